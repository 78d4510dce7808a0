package config

// loader.go - configuration loading from a TOML file and environment
// variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (LoadFromEnv)
//   3. Config file  (LoadFile)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	rferr "rfchat/internal/errors"
)

// ── Config file ──────────────────────────────────────────────────────

// fileConfig mirrors the TOML layout.  Pointer fields tell "absent"
// apart from a zero value.  Durations are Go duration strings.
type fileConfig struct {
	Username         *string `toml:"username"`
	Channel          *int    `toml:"channel"`
	Network          *string `toml:"network"`
	Host             *string `toml:"host"`
	Bind             *string `toml:"bind"`
	BasePort         *int    `toml:"base_port"`
	Path             *string `toml:"path"`
	DevicesFile      *string `toml:"devices_file"`
	PollInterval     *string `toml:"poll_interval"`
	ReadWindow       *string `toml:"read_window"`
	HandshakeTimeout *string `toml:"handshake_timeout"`
	ReplayCapacity   *int    `toml:"replay_capacity"`
	Relay            *bool   `toml:"relay"`
	Verbose          *int    `toml:"verbose"`
	Timestamps       *bool   `toml:"timestamps"`

	Tunnel struct {
		Spec          *string `toml:"spec"`
		Key           *string `toml:"key"`
		Password      *bool   `toml:"password"`
		Agent         *bool   `toml:"agent"`
		StrictHostKey *bool   `toml:"strict_hostkey"`
		KnownHosts    *string `toml:"known_hosts"`
	} `toml:"tunnel"`

	// Device tables belong to the registry; accept them here so one
	// file can hold both.
	Device []toml.Primitive `toml:"device"`
}

// LoadFile overlays the TOML file at path onto cfg.  It returns the
// keys it did not recognise so the caller can warn about typos.
func LoadFile(path string, cfg *Config) (unknown []string, err error) {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		if len(key) > 0 && key[0] == "device" {
			continue
		}
		unknown = append(unknown, key.String())
	}

	setString(&cfg.Identity, fc.Username)
	setInt(&cfg.Channel, fc.Channel)
	setString(&cfg.Network, fc.Network)
	setString(&cfg.Host, fc.Host)
	setString(&cfg.BindHost, fc.Bind)
	setInt(&cfg.BasePort, fc.BasePort)
	setString(&cfg.Path, fc.Path)
	setString(&cfg.DevicesFile, fc.DevicesFile)
	setInt(&cfg.ReplayCapacity, fc.ReplayCapacity)
	setBool(&cfg.Relay, fc.Relay)
	setInt(&cfg.Verbose, fc.Verbose)
	setBool(&cfg.Timestamps, fc.Timestamps)

	durations := []struct {
		field string
		src   *string
		dst   *time.Duration
	}{
		{"poll_interval", fc.PollInterval, &cfg.PollInterval},
		{"read_window", fc.ReadWindow, &cfg.ReadWindow},
		{"handshake_timeout", fc.HandshakeTimeout, &cfg.HandshakeTimeout},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return unknown, &rferr.ConfigError{
				Field:   d.field,
				Value:   *d.src,
				Message: "not a duration",
				Hint:    `use Go duration syntax such as "250ms" or "2s"`,
			}
		}
		*d.dst = v
	}

	setString(&cfg.TunnelSpec, fc.Tunnel.Spec)
	setString(&cfg.SSHKeyPath, fc.Tunnel.Key)
	setBool(&cfg.SSHPassword, fc.Tunnel.Password)
	setBool(&cfg.UseSSHAgent, fc.Tunnel.Agent)
	setBool(&cfg.StrictHostKey, fc.Tunnel.StrictHostKey)
	setString(&cfg.KnownHostsPath, fc.Tunnel.KnownHosts)

	cfg.ConfigFile = path
	return unknown, nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the RFCHAT_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations use Go
// syntax ("250ms").

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("RFCHAT_DEVICE"); v != "" {
		cfg.Device = v
	}
	if v := envInt("RFCHAT_CHANNEL"); v > 0 {
		cfg.Channel = v
	}
	if v := os.Getenv("RFCHAT_USERNAME"); v != "" {
		cfg.Identity = v
	}
	if envBool("RFCHAT_LISTEN") {
		cfg.Listen = true
	}
	if envBool("RFCHAT_RELAY") {
		cfg.Relay = true
	}
	if v := envInt("RFCHAT_REPLAY"); v > 0 {
		cfg.ReplayCapacity = v
	}

	// Transport
	if v := os.Getenv("RFCHAT_NETWORK"); v != "" {
		cfg.Network = v
	}
	if v := os.Getenv("RFCHAT_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("RFCHAT_BIND"); v != "" {
		cfg.BindHost = v
	}
	if v := envInt("RFCHAT_BASE_PORT"); v > 0 {
		cfg.BasePort = v
	}
	if v := os.Getenv("RFCHAT_DEVICES_FILE"); v != "" {
		cfg.DevicesFile = v
	}
	if v := envDuration("RFCHAT_POLL"); v > 0 {
		cfg.PollInterval = v
	}
	if v := envDuration("RFCHAT_READ_WINDOW"); v > 0 {
		cfg.ReadWindow = v
	}
	if v := envDuration("RFCHAT_HANDSHAKE_TIMEOUT"); v > 0 {
		cfg.HandshakeTimeout = v
	}

	// SSH tunnel
	if v := os.Getenv("RFCHAT_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("RFCHAT_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("RFCHAT_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("RFCHAT_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("RFCHAT_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("RFCHAT_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("RFCHAT_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("RFCHAT_TIMESTAMPS") {
		cfg.Timestamps = true
	}
}

// ConfigFileFromEnv returns RFCHAT_CONFIG, the file used when --config
// is not given.
func ConfigFileFromEnv() string {
	return os.Getenv("RFCHAT_CONFIG")
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
