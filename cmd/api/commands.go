package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "feishu-bot",
	Short:        "Feishu and Telegram assistant",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	RunE:  runServe,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and maintain the durable session store",
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired session rows",
	RunE:  runSessionsPurge,
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset <conversation-id>",
	Short: "Delete the stored session of one conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsReset,
}

func init() {
	rootCmd.AddCommand(serveCmd, sessionsCmd)
	sessionsCmd.AddCommand(sessionsPurgeCmd, sessionsResetCmd)

	// Bare invocation keeps the container entrypoint working.
	rootCmd.RunE = runServe
}

func runSessionsPurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap()
	if err != nil {
		return err
	}

	repo, err := openSessionRepository(ctx, a.cfg.Session.Store, a.l)
	if err != nil {
		return err
	}
	if repo == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "memory store: nothing to purge")
		return nil
	}
	defer repo.Close()

	n, err := repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired sessions\n", n)
	return nil
}

func runSessionsReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap()
	if err != nil {
		return err
	}

	repo, err := openSessionRepository(ctx, a.cfg.Session.Store, a.l)
	if err != nil {
		return err
	}
	if repo == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "memory store: nothing to reset")
		return nil
	}
	defer repo.Close()

	if err := repo.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("reset %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session %s deleted\n", args[0])
	return nil
}
