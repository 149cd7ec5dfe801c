package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watcherConfig = `app:
  name: watched-app
log:
  level: info
  format: json
`

func writeWatcherConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scriptd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create temp config: %v", err)
	}
	return path
}

func TestNewWatcher(t *testing.T) {
	t.Run("valid config path", func(t *testing.T) {
		path := writeWatcherConfig(t, watcherConfig)
		watcher, err := NewWatcher(path)
		if err != nil {
			t.Fatalf("NewWatcher failed: %v", err)
		}
		defer watcher.Stop()

		if watcher.ConfigPath() != path {
			t.Errorf("expected config path %s, got %s", path, watcher.ConfigPath())
		}
	})

	t.Run("empty config path", func(t *testing.T) {
		if _, err := NewWatcher(""); err == nil {
			t.Fatal("expected error for empty config path")
		}
	})

	t.Run("with debounce option", func(t *testing.T) {
		path := writeWatcherConfig(t, watcherConfig)
		watcher, err := NewWatcher(path, WithDebounce(100*time.Millisecond))
		if err != nil {
			t.Fatalf("NewWatcher failed: %v", err)
		}
		defer watcher.Stop()

		if watcher.debounce != 100*time.Millisecond {
			t.Errorf("expected debounce 100ms, got %v", watcher.debounce)
		}
	})
}

func TestWatcher_DetectsChanges(t *testing.T) {
	path := writeWatcherConfig(t, watcherConfig)

	watcher, err := NewWatcher(path, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer watcher.Stop()

	reloaded := make(chan *Config, 1)
	watcher.OnChange(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()

	// Give the watcher a moment to register before touching the file.
	time.Sleep(100 * time.Millisecond)

	updated := `app:
  name: updated-app
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.App.Name != "updated-app" {
			t.Errorf("app name = %s, want updated-app", cfg.App.Name)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("log level = %s, want debug", cfg.Log.Level)
		}
	case <-ctx.Done():
		t.Fatal("watcher never reported the change")
	}
}

func TestWatcher_IgnoresInvalidConfig(t *testing.T) {
	path := writeWatcherConfig(t, watcherConfig)

	watcher, err := NewWatcher(path, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer watcher.Stop()

	reloaded := make(chan *Config, 1)
	watcher.OnChange(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// An invalid log level fails validation; the callback must not fire.
	if err := os.WriteFile(path, []byte("log:\n  level: trace\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("callback fired with invalid config: %+v", cfg)
	case <-ctx.Done():
	}
}
