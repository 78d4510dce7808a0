package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"rfchat/internal/device"
	"rfchat/util"
)

func TestDevicesMode(t *testing.T) {
	var out bytes.Buffer
	m := &DevicesMode{
		Directory: device.Static{
			{Name: "pi", Network: "tcp", Host: "10.0.0.5", BasePort: 7000},
			{Name: "hub", Network: "ws", Host: "hub.example.com", BasePort: 8000, Path: "/chat"},
		},
		Channel: 3,
		Logger:  util.NewLogger(0),
		Stdout:  &out,
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "hub") || !strings.Contains(lines[1], "ws://hub.example.com:8003/chat") {
		t.Errorf("hub line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "pi") || !strings.Contains(lines[2], "10.0.0.5:7003") {
		t.Errorf("pi line = %q", lines[2])
	}
}

func TestDevicesMode_Empty(t *testing.T) {
	var out bytes.Buffer
	m := &DevicesMode{Directory: device.Static{}, Logger: util.NewLogger(0), Stdout: &out}
	if err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}
