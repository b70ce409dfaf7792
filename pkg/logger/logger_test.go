package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(Config{Level: "info", Format: "json", Output: &buf})

	l.Debugf("hidden %d", 1)
	l.With("url", "https://a.example").Infof("analyzed in %dms", 12)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["level"] != "info" || rec["message"] != "analyzed in 12ms" || rec["url"] != "https://a.example" {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestNop(t *testing.T) {
	Nop().Errorf("nothing %s", "here")
}
