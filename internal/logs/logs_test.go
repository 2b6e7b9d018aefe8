package logs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AETHER_LOG_LEVEL", "debug")
	t.Setenv("AETHER_LOG_DEV", "true")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Level != "debug" || !cfg.Dev {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MaxSize != 10 || cfg.MaxBackups != 3 {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	t.Setenv("AETHER_LOG_MAX_SIZE", "lots")
	if _, err := ConfigFromEnv(); err == nil {
		t.Error("expected error for non-numeric size")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("test", Config{Level: "WARN"}, &buf)
	l.Info("hidden")
	l.Warn("shown")
	_ = l.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}

	buf.Reset()
	l = newLogger("test", Config{Level: "nonsense"}, &buf)
	l.Debug("debug")
	l.Info("info")
	_ = l.Sync()
	if strings.Contains(buf.String(), "debug") || !strings.Contains(buf.String(), "info") {
		t.Errorf("unknown level should fall back to info: %q", buf.String())
	}
}

func TestFileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	var console bytes.Buffer
	l := newLogger("economy", Config{Level: "info", File: path}, &console)
	l.Info("tick")
	_ = l.Sync()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("log file is empty")
	}
	var entry map[string]any
	if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
		t.Fatalf("file line is not JSON: %v (%q)", err, sc.Text())
	}
	if entry["msg"] != "tick" || entry["logger"] != "economy" || entry["level"] != "INFO" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.log")
	l := NewFileOnly("watch", Config{Level: "info", File: path})
	l.Info("step")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"step"`) {
		t.Errorf("file = %q", data)
	}

	// no file configured: a silent logger, not a nil one
	NewFileOnly("watch", Config{}).Info("dropped")
}
