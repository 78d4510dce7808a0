package config

import (
	"os"
	"path/filepath"
	"time"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// MinChannel and MaxChannel bound the channel number.
	MinChannel = 1
	MaxChannel = 30

	// DefaultChannel is the channel used until the user picks another.
	DefaultChannel = 1

	// DefaultBasePort maps channel N to TCP port 7000+N.
	DefaultBasePort = 7000

	// DefaultNetwork is the transport for flag-defined peers and
	// listen mode.
	DefaultNetwork = "tcp"

	// DefaultBindHost is where listen mode accepts its peer.
	DefaultBindHost = "0.0.0.0"

	// DefaultWSPath is the WebSocket endpoint path.
	DefaultWSPath = "/"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultPollInterval is how long the receive loop idles after an
	// empty read.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultReadWindow bounds each transport read.
	DefaultReadWindow = 100 * time.Millisecond

	// DefaultHandshakeTimeout is the dial and SSH connection timeout.
	DefaultHandshakeTimeout = 30 * time.Second
)

// DefaultDevicesFile is the bonded-device registry under the user's
// config directory, or "" when that directory is unknown.
func DefaultDevicesFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rfchat", "devices.toml")
}
