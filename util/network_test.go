package util

import (
	"testing"
)

func TestFormatAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"1.2.3.4", 22, "1.2.3.4:22"},
		{"::1", 443, "[::1]:443"},
		{"peer.local", 7001, "peer.local:7001"},
	}
	for _, tt := range tests {
		if got := FormatAddr(tt.host, tt.port); got != tt.want {
			t.Errorf("FormatAddr(%q,%d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestChannelPort(t *testing.T) {
	if got := ChannelPort(7000, 1); got != 7001 {
		t.Errorf("ChannelPort(7000,1) = %d, want 7001", got)
	}
	if got := ChannelPort(7000, 30); got != 7030 {
		t.Errorf("ChannelPort(7000,30) = %d, want 7030", got)
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}
}
