package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_RequiresOut(t *testing.T) {
	err := run(io.Discard, nil)
	if err == nil || !strings.Contains(err.Error(), "--out") {
		t.Fatalf("expected missing --out error, got %v", err)
	}
}

func TestRun_WritesOneSchemaPerMessage(t *testing.T) {
	dir := t.TempDir()
	if err := run(io.Discard, []string{"--out=" + dir}); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"hello", "welcome", "cmd", "ack", "events", "state"} {
		b, err := os.ReadFile(filepath.Join(dir, name+".schema.json"))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("%s is not json: %v", name, err)
		}
		if m["title"] != "gridfactory 1.0" {
			t.Fatalf("%s title=%v", name, m["title"])
		}
	}
}
