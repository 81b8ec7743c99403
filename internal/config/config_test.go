// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1"

[backend]
base_url = "http://localhost:1234"

[chat]
max_plan_iterations = 2
report_style = "news"

[storage]
backend = "sqlite"

[ui]
theme = "dark"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:1234", cfg.Backend.BaseURL)
	require.Equal(t, 2, cfg.Chat.MaxPlanIterations)
	require.Equal(t, "news", cfg.Chat.ReportStyle)
	require.Equal(t, "sqlite", cfg.Storage.Backend)
	require.Equal(t, "dark", cfg.UI.Theme)

	// Unset fields are filled from defaults.
	require.Equal(t, Default().Chat.MaxStepNum, cfg.Chat.MaxStepNum)
	require.Equal(t, Default().Server.Listen, cfg.Server.Listen)
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad url", "[backend]\nbase_url = \"not a url\"\n"},
		{"bad report style", "[chat]\nreport_style = \"haiku\"\n"},
		{"bad storage backend", "[storage]\nbackend = \"redis\"\n"},
		{"bad theme", "[ui]\ntheme = \"sepia\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := LoadFromPath(path)
			require.Error(t, err)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AURAFLOW_BACKEND_URL", "http://192.168.1.20:1234")
	t.Setenv("AURAFLOW_REPLAY", "1")
	t.Setenv("AURAFLOW_FAST_FORWARD", "true")
	t.Setenv("AURAFLOW_REPORT_STYLE", "popular_science")
	t.Setenv("AURAFLOW_STORAGE", "encrypted")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "http://192.168.1.20:1234", cfg.Backend.BaseURL)
	require.True(t, cfg.Replay.Enabled)
	require.True(t, cfg.Replay.FastForward)
	require.Equal(t, "popular_science", cfg.Chat.ReportStyle)
	require.Equal(t, "encrypted", cfg.Storage.Backend)
	require.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Backend.BaseURL = "https://chat.example.com/api/chat/stream"
	cfg.Chat.AutoAcceptedPlan = true
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Backend.BaseURL, loaded.Backend.BaseURL)
	require.True(t, loaded.Chat.AutoAcceptedPlan)
}

func TestChatParams(t *testing.T) {
	cfg := Default()
	cfg.Chat.ReportStyle = "social_media"
	params := cfg.ChatParams()
	require.Equal(t, "social_media", params["report_style"])
	require.Equal(t, cfg.Chat.MaxPlanIterations, params["max_plan_iterations"])
	require.Contains(t, params, "auto_accepted_plan")
}

// Run with: go test -race ./internal/config/
func TestGlobalConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to establish, then rewrite the file.
	time.Sleep(100 * time.Millisecond)
	cfg := Default()
	cfg.Chat.ReportStyle = "news"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		require.Equal(t, "news", got.Chat.ReportStyle)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not deliver reload")
	}

	cancel()
	<-done
}
