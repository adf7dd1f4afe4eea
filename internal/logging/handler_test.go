package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerBuffersUntilFlush(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler()
	log := slog.New(h)

	log.Debug("early debug")
	log.Info("early info")

	if buf.Len() != 0 {
		t.Fatalf("output before flush: %q", buf.String())
	}

	h.SetLevel(slog.LevelInfo)
	h.SetStream(&buf)
	h.Flush()

	out := buf.String()
	if strings.Contains(out, "early debug") {
		t.Fatalf("debug record written at info level: %q", out)
	}
	if !strings.Contains(out, "early info") {
		t.Fatalf("buffered info record missing: %q", out)
	}
}

func TestHandlerDirectAfterFlush(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler()
	h.SetStream(&buf)
	h.SetLevel(slog.LevelWarn)
	h.Flush()

	log := slog.New(h)
	log.Info("dropped")
	log.Warn("kept", "layer", "libs")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info written at warn level: %q", out)
	}
	if !strings.Contains(out, "kept layer=libs") {
		t.Fatalf("output = %q, want \"kept layer=libs\"", out)
	}
}

func TestHandlerGroupsQualifyKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler()
	h.SetStream(&buf)
	h.Flush()

	slog.New(h.WithGroup("cruximg")).Info("staged", "path", "/tmp/ctx")

	if !strings.Contains(buf.String(), "cruximg.path=/tmp/ctx") {
		t.Fatalf("output = %q, want grouped key", buf.String())
	}
}

func TestFormatValueQuotesSpaces(t *testing.T) {
	got := formatValue(slog.StringValue("two words"))
	if got != `"two words"` {
		t.Fatalf("formatValue = %s, want quoted", got)
	}
}
