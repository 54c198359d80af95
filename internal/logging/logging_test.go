package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileOnlyWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chattui.log")

	logger, err := NewFileOnly(path, "test")
	if err != nil {
		t.Fatalf("NewFileOnly() error = %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["instance"] != "test" {
		t.Errorf("instance = %v, want test", entry["instance"])
	}
	if _, ok := entry["pid"]; !ok {
		t.Error("missing pid field")
	}
}
