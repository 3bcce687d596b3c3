package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/linusssssai/feishu-bot-vercel/config"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

func TestOpenSessionRepository(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.SessionStoreConfig
		wantNil bool
		wantErr bool
	}{
		{"memory", config.SessionStoreConfig{Driver: "memory"}, true, false},
		{"empty driver", config.SessionStoreConfig{}, true, false},
		{"bolt", config.SessionStoreConfig{Driver: "bolt", Path: filepath.Join(dir, "s.bolt")}, false, false},
		{"sqlite", config.SessionStoreConfig{Driver: "sqlite", DSN: "file:" + filepath.Join(dir, "s.db")}, false, false},
		{"unknown", config.SessionStoreConfig{Driver: "redis"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := openSessionRepository(context.Background(), tt.cfg, log.NewNop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (repo == nil) != tt.wantNil {
				t.Fatalf("repo = %v, wantNil %v", repo, tt.wantNil)
			}
			if repo != nil {
				repo.Close()
			}
		})
	}
}

func TestNewFeishuClient_Disabled(t *testing.T) {
	c, err := newFeishuClient(config.FeishuConfig{AppID: "cli_x"})
	if err != nil || c != nil {
		t.Errorf("got %v, %v", c, err)
	}
}

func TestNewArtifactStore_Disabled(t *testing.T) {
	s, err := newArtifactStore(context.Background(), config.ArtifactConfig{})
	if err != nil || s != nil {
		t.Errorf("got %v, %v", s, err)
	}
}
