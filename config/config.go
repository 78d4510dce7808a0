// Package config defines the runtime configuration for rfchat and
// provides helpers for parsing channels and tunnel specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	rferr "rfchat/internal/errors"
)

// Config holds every tuneable for a single rfchat process.
type Config struct {
	// ── Session ──────────────────────────────────────────────────────
	Device         string // peer to connect to on start-up (optional)
	Channel        int    // 1..30
	Identity       string // sender tag; empty → derived from the host name
	Listen         bool
	Relay          bool // with Listen: echo every inbound line back
	ListDevices    bool
	ReplayCapacity int // 0 keeps every line

	// ── Transport ────────────────────────────────────────────────────
	Network          string // tcp, ws or wss
	Host             string // ad-hoc peer host, added to the directory as Device
	BindHost         string // listen address
	BasePort         int    // channel N uses BasePort+N
	Path             string // WebSocket path
	DevicesFile      string
	ConfigFile       string
	PollInterval     time.Duration
	ReadWindow       time.Duration
	HandshakeTimeout time.Duration

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int
	Timestamps bool
	DryRun     bool
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Channel:          DefaultChannel,
		Network:          DefaultNetwork,
		BindHost:         DefaultBindHost,
		BasePort:         DefaultBasePort,
		Path:             DefaultWSPath,
		DevicesFile:      DefaultDevicesFile(),
		PollInterval:     DefaultPollInterval,
		ReadWindow:       DefaultReadWindow,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}

// ── Channel helper ───────────────────────────────────────────────────

// ParseChannel accepts a decimal channel number in MinChannel..MaxChannel.
func ParseChannel(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid channel %q", s)
	}
	if n < MinChannel || n > MaxChannel {
		return 0, fmt.Errorf("channel %d out of range %d-%d", n, MinChannel, MaxChannel)
	}
	return n, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q: expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec, if set, into the tunnel fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Channel < MinChannel || c.Channel > MaxChannel {
		return &rferr.ConfigError{
			Field:   "channel",
			Value:   c.Channel,
			Message: fmt.Sprintf("out of range %d-%d", MinChannel, MaxChannel),
			Hint:    "channels run from 1 to 30, like RFCOMM",
		}
	}

	switch c.Network {
	case "tcp", "ws", "wss":
	default:
		return &rferr.ConfigError{
			Field:   "network",
			Value:   c.Network,
			Message: "unsupported network",
			Hint:    "use tcp, ws or wss",
		}
	}

	if c.BasePort < 0 || c.BasePort+MaxChannel > 65535 {
		return &rferr.ConfigError{
			Field:   "base-port",
			Value:   c.BasePort,
			Message: "base port plus channel must stay within 1-65535",
			Hint:    fmt.Sprintf("pick a base port at most %d", 65535-MaxChannel),
		}
	}

	if c.Listen {
		if c.Device != "" || c.Host != "" {
			return &rferr.ConfigError{
				Field:   "listen",
				Message: "listen mode does not take a device or host",
				Hint:    "run the dialing side with the device name instead",
			}
		}
		if c.Network == "wss" {
			return &rferr.ConfigError{
				Field:   "network",
				Value:   c.Network,
				Message: "listen mode cannot terminate TLS",
				Hint:    "listen with --network ws behind a TLS proxy",
			}
		}
		if c.TunnelEnabled {
			return fmt.Errorf("listen mode through an SSH tunnel is not supported")
		}
	}

	if c.Relay && !c.Listen {
		return &rferr.ConfigError{
			Field:   "relay",
			Message: "relay only applies to listen mode",
			Hint:    "add -l",
		}
	}

	if c.ListDevices && c.Listen {
		return fmt.Errorf("--devices and --listen are mutually exclusive")
	}

	if c.PollInterval <= 0 {
		return &rferr.ConfigError{Field: "poll", Value: c.PollInterval, Message: "must be positive"}
	}
	if c.ReadWindow <= 0 {
		return &rferr.ConfigError{Field: "read-window", Value: c.ReadWindow, Message: "must be positive"}
	}
	if c.ReplayCapacity < 0 {
		return &rferr.ConfigError{Field: "replay", Value: c.ReplayCapacity, Message: "must be zero or positive"}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return fmt.Errorf("tunnel host is required")
	}
	if c.TunnelEnabled && c.Network != "tcp" {
		return &rferr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: "SSH tunnelling carries tcp only",
			Hint:    "drop --network or the tunnel",
		}
	}

	return nil
}
