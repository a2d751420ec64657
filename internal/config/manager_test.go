package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"

	logx "ticktock/pkg/logx"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	want := &Config{
		Logging:         LoggingConfig{Level: "debug", Console: true, File: LoggingFile{Enabled: true, Path: "/tmp/tt.log"}},
		Timers:          TimersConfig{MaxRoutines: 50, PanicLogRate: 2.5, HistorySize: 10},
		ShutdownTimeout: "3s",
	}

	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "json",
			file: "config.json",
			body: `{"logging":{"level":"debug","console":true,"file":{"enabled":true,"path":"/tmp/tt.log"}},
"timers":{"max_routines":50,"panic_log_rate":2.5,"history_size":10},"shutdown_timeout":"3s"}`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			body: `
logging:
  level: debug
  console: true
  file:
    enabled: true
    path: /tmp/tt.log
timers:
  max_routines: 50
  panic_log_rate: 2.5
  history_size: 10
shutdown_timeout: 3s
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.body)
			m := NewManager(path, logx.Nop())
			got, err := m.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if diff := deep.Equal(got, want); diff != nil {
				t.Fatalf("config mismatch: %v", diff)
			}
			if m.Get() != got {
				t.Fatalf("Get did not return the committed config")
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		body    string
		errPart string
	}{
		{"unknown field", "a.json", `{"timers":{"max_routine":1}}`, "unknown field"},
		{"trailing data", "b.json", `{} {}`, "trailing"},
		{"negative limit", "c.yaml", "timers:\n  max_routines: -1\n", "max_routines"},
		{"bad level", "d.json", `{"logging":{"level":"loud"}}`, "logging.level"},
		{"bad duration", "e.yml", "shutdown_timeout: soon\n", "shutdown_timeout"},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.file)
		writeFile(t, path, tt.body)
		_, err := NewManager(path, logx.Nop()).Load()
		if err == nil || !strings.Contains(err.Error(), tt.errPart) {
			t.Fatalf("%s: err = %v, want containing %q", tt.name, err, tt.errPart)
		}
	}
}

func TestEmptyYAMLUsesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "")
	cfg, err := NewManager(path, logx.Nop()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, err := cfg.ShutdownTimeoutOrDefault()
	if err != nil || d != defaultShutdownTimeout {
		t.Fatalf("ShutdownTimeoutOrDefault = %v, %v; want %v", d, err, defaultShutdownTimeout)
	}
}

func TestWatchPublishesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "timers:\n  max_routines: 1\n")

	m := NewManager(path, logx.Nop())
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	updates := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchErr := make(chan error, 1)
	go func() { watchErr <- m.Watch(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "timers:\n  max_routines: 7\n")

	select {
	case cfg := <-updates:
		if cfg.Timers.MaxRoutines != 7 {
			t.Fatalf("MaxRoutines = %d, want 7", cfg.Timers.MaxRoutines)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no reload published")
	}

	cancel()
	select {
	case err := <-watchErr:
		if err != nil {
			t.Fatalf("Watch returned %v after cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Watch did not return after cancel")
	}
}
