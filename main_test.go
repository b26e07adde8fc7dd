package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/soocke/cursorcast-go/config"
)

func TestNewLogger_Handlers(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, slog.LevelInfo).Info("hello", "k", 1)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
	if rec["msg"] != "hello" {
		t.Fatalf("unexpected record %v", rec)
	}

	buf.Reset()
	newLogger(&buf, true, slog.LevelWarn).Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("level not honoured: %q", buf.String())
	}
	newLogger(&buf, true, slog.LevelWarn).Warn("kept")
	if !strings.Contains(buf.String(), "msg=kept") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("canvas_width: 320\npreview_addr: \":1\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got *config.Config
	a := newCLI()
	for _, cmd := range a.Commands {
		if cmd.Name == "run" {
			cmd.Action = func(c *cli.Context) error {
				cfg, logger, err := loadConfig(c)
				if err != nil {
					return err
				}
				if !logger.Enabled(c.Context, slog.LevelDebug) {
					t.Errorf("debug flag did not lower the log level")
				}
				got = cfg
				return nil
			}
		}
	}
	args := []string{"cursorcast", "--config", path, "--debug", "run", "--fps", "50", "--preview-addr", "127.0.0.1:8080"}
	if err := a.Run(args); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got == nil {
		t.Fatalf("action not invoked")
	}
	if got.CanvasWidth != 320 || !got.Debug || got.FrameIntervalMS != 20 || got.PreviewAddr != "127.0.0.1:8080" {
		t.Fatalf("unexpected config %+v", got)
	}
}
