package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = newLogger("warn", "text", &buf)

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = newLogger("debug", "json", &buf)

	WithFields(map[string]interface{}{"sport": "basketball_nba"}).Info("fetched")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["sport"] != "basketball_nba" || entry["msg"] != "fetched" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = newLogger("verbose", "text", &buf)

	Debug("nope")
	Info("yes")

	if strings.Contains(buf.String(), "nope") || !strings.Contains(buf.String(), "yes") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
