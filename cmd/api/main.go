package main

import (
	"os"

	_ "github.com/linusssssai/feishu-bot-vercel/docs" // Swagger docs
)

// @title       Feishu Bot API
// @description Feishu and Telegram assistant backed by Gemini, with Bitable table commands.
// @version     1
// @host        localhost:8080
// @schemes     http
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
