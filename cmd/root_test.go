package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help returns without error.
func TestExecute_Help(t *testing.T) {
	for _, flag := range []string{"--help", "-h"} {
		t.Run(flag, func(t *testing.T) {
			if err := Execute(context.Background(), []string{flag}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	for _, args := range [][]string{
		{"-l", "-c", "3", "--dry-run"},
		{"-H", "127.0.0.1", "--dry-run"},
		{"--devices", "--devices-file", "", "--dry-run"},
	} {
		if err := Execute(context.Background(), args); err != nil {
			t.Errorf("%v: unexpected error: %v", args, err)
		}
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := [][]string{
		{"-c", "31", "--dry-run"},
		{"--relay", "--dry-run"},
		{"-l", "phone", "--dry-run"},
		{"-n", "udp", "--dry-run"},
		{"-T", "user@host:99999", "--dry-run"},
		{"a", "b", "--dry-run"},
	}
	for _, args := range tests {
		if err := Execute(context.Background(), args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	if err := Execute(context.Background(), []string{"--nonexistent-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rfchat.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestParse_Precedence verifies flags > env > file > defaults.
func TestParse_Precedence(t *testing.T) {
	path := writeConfig(t, `
channel = 5
username = "file-user"
poll_interval = "1s"
base_port = 9000
`)
	t.Setenv("RFCHAT_USERNAME", "env-user")
	t.Setenv("RFCHAT_POLL", "2s")

	inv, err := parse([]string{"--config", path, "--poll", "3s", "phone"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := inv.cfg
	if cfg.Channel != 5 {
		t.Errorf("Channel = %d, want file value 5", cfg.Channel)
	}
	if cfg.BasePort != 9000 {
		t.Errorf("BasePort = %d, want file value 9000", cfg.BasePort)
	}
	if cfg.Identity != "env-user" {
		t.Errorf("Identity = %q, want env value", cfg.Identity)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %v, want flag value", cfg.PollInterval)
	}
	if cfg.Device != "phone" {
		t.Errorf("Device = %q", cfg.Device)
	}
}

func TestParse_ConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "channel = 12\n")
	t.Setenv("RFCHAT_CONFIG", path)

	inv, err := parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if inv.cfg.Channel != 12 || inv.cfg.ConfigFile != path {
		t.Errorf("channel=%d file=%q", inv.cfg.Channel, inv.cfg.ConfigFile)
	}
}

func TestParse_UnknownConfigKeys(t *testing.T) {
	path := writeConfig(t, "chanel = 12\n")
	inv, err := parse([]string{"--config=" + path})
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.unknown) != 1 || inv.unknown[0] != "chanel" {
		t.Errorf("unknown = %v", inv.unknown)
	}
}

func TestParse_BadConfigFile(t *testing.T) {
	path := writeConfig(t, "channel = \n")
	if _, err := parse([]string{"--config", path}); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestParse_VerboseLayering(t *testing.T) {
	t.Setenv("RFCHAT_VERBOSE", "2")

	inv, err := parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if inv.cfg.Verbose != 2 {
		t.Errorf("Verbose = %d, want env value 2", inv.cfg.Verbose)
	}

	inv, err = parse([]string{"-v"})
	if err != nil {
		t.Fatal(err)
	}
	if inv.cfg.Verbose != 1 {
		t.Errorf("Verbose = %d, want flag count 1", inv.cfg.Verbose)
	}
}

func TestParse_Tunnel(t *testing.T) {
	inv, err := parse([]string{"-T", "ops@gw:2200", "-H", "10.0.0.7"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := inv.cfg
	if !cfg.TunnelEnabled || cfg.TunnelUser != "ops" || cfg.TunnelHost != "gw" || cfg.TunnelPort != 2200 {
		t.Errorf("tunnel fields %+v", cfg)
	}
}
