package util

import (
	"bytes"
	"strings"
	"testing"
)

func quietLogger(verbosity int) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(verbosity)
	l.SetOutput(&buf)
	l.SetTimestamps(false)
	return l, &buf
}

func TestLogger_Prefixes(t *testing.T) {
	l, buf := quietLogger(3)

	l.Error("e")
	l.Warn("w")
	l.Info("i")
	l.Verbose("v")
	l.Debug("d")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"[ERR]", "[WRN]", "[INF]", "[VRB]", "[DBG]"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i, prefix := range want {
		if !strings.Contains(lines[i], prefix) {
			t.Errorf("line %d %q missing %q", i, lines[i], prefix)
		}
	}
}

// Each -v step admits exactly one more level.
func TestLogger_VerbosityGates(t *testing.T) {
	tests := []struct {
		verbosity int
		want      []string
	}{
		{0, []string{"[ERR]"}},
		{1, []string{"[ERR]", "[WRN]", "[INF]"}},
		{2, []string{"[ERR]", "[WRN]", "[INF]", "[VRB]"}},
		{3, []string{"[ERR]", "[WRN]", "[INF]", "[VRB]", "[DBG]"}},
	}
	for _, tt := range tests {
		l, buf := quietLogger(tt.verbosity)
		if got := l.Level(); got != LogLevel(tt.verbosity) {
			t.Errorf("Level() = %d, want %d", got, tt.verbosity)
		}

		l.Error("channel 31 rejected")
		l.Warn("peer went away")
		l.Info("connected to laptop")
		l.Verbose("read window elapsed")
		l.Debug("gen 4 loop exiting")

		out := buf.String()
		if n := strings.Count(out, "\n"); n != len(tt.want) {
			t.Errorf("-v=%d: got %d lines, want %d:\n%s", tt.verbosity, n, len(tt.want), out)
		}
		for _, prefix := range tt.want {
			if !strings.Contains(out, prefix) {
				t.Errorf("-v=%d: missing %s in\n%s", tt.verbosity, prefix, out)
			}
		}
	}
}

func TestLogger_Timestamps(t *testing.T) {
	l, buf := quietLogger(1)
	l.SetTimestamps(true)

	l.Info("test")

	// "HH:MM:SS.mmm [INF] test"
	out := buf.String()
	if strings.Count(out, ":") < 2 || len(out) < 15 {
		t.Errorf("expected timestamp prefix, got %q", out)
	}
}

func TestLogger_DebugEnablesTimestamps(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(3)
	l.SetOutput(&buf)

	l.Debug("x")

	if !strings.Contains(buf.String(), ".") {
		t.Errorf("debug output should carry a millisecond timestamp, got %q", buf.String())
	}
}

func TestLogger_SetOutputAfterUse(t *testing.T) {
	var first, second bytes.Buffer
	l := NewLogger(1)
	l.SetTimestamps(false)
	l.SetOutput(&first)
	l.Info("one")
	l.SetOutput(&second)
	l.Info("two")

	if !strings.Contains(first.String(), "one") || strings.Contains(first.String(), "two") {
		t.Errorf("first writer got %q", first.String())
	}
	if !strings.Contains(second.String(), "two") {
		t.Errorf("second writer got %q", second.String())
	}
}
