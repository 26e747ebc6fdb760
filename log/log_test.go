package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestFilterDropsBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilter(NewStdLogger(&buf), FilterLevel(LevelWarn))
	h := NewHelper(logger)

	h.Debugf("debug %d", 1)
	h.Infof("info %d", 2)
	h.Warnf("warn %d", 3)
	h.Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Fatalf("filter let a below-threshold entry through: %q", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Fatalf("filter dropped an at-or-above-threshold entry: %q", out)
	}
}

func TestHelperNilIsSafe(t *testing.T) {
	var h *Helper
	h.Debug("should not panic")
	h.Errorf("neither should this: %d", 1)
}

func TestOddKeyvalsGetPadded(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(&buf)
	err := logger.Log(LevelInfo, "key")
	if err != nil {
		t.Fatalf("Log returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "key=MISSING_VALUE") {
		t.Fatalf("expected padded keyval, got %q", buf.String())
	}
}
