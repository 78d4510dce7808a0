// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"rfchat/config"
	"rfchat/internal/core"
	"rfchat/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X rfchat/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// invocation is the parsed command line.
type invocation struct {
	cfg         *config.Config
	fs          *flag.FlagSet
	unknown     []string // unrecognised config-file keys
	showHelp    bool
	showVersion bool
}

// Execute parses args and runs the appropriate rfchat mode.
func Execute(ctx context.Context, args []string) error {
	inv, err := parse(args)
	if err != nil {
		return err
	}
	if inv.showHelp {
		printUsage(inv.fs)
		return nil
	}
	if inv.showVersion {
		fmt.Printf("rfchat %s\n", version)
		return nil
	}
	cfg := inv.cfg

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	if cfg.Timestamps {
		logger.SetTimestamps(true)
	}
	for _, key := range inv.unknown {
		logger.Warn("config file %s: unknown key %q", cfg.ConfigFile, key)
	}

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		logger.Info("configuration valid (%T)", mode)
		return nil
	}

	return mode.Run(ctx)
}

// parse layers defaults, the config file, the environment and the
// flags, in increasing precedence.
func parse(args []string) (*invocation, error) {
	inv := &invocation{cfg: config.Default()}
	cfg := inv.cfg

	if path := configPath(args); path != "" {
		unknown, err := config.LoadFile(path, cfg)
		if err != nil {
			return nil, err
		}
		inv.unknown = unknown
	}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("rfchat", flag.ContinueOnError)
	inv.fs = fs
	layered := cfg.Verbose // CountVar resets its target
	bindFlags(fs, cfg)
	fs.BoolVar(&inv.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&inv.showHelp, "help", "h", false, "Show this help")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = layered
	}

	// ── positional device name ───────────────────────────────────
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		cfg.Device = rest[0]
	default:
		return nil, fmt.Errorf("expected at most one device name, got %d arguments", len(rest))
	}

	// ── tunnel spec ──────────────────────────────────────────────
	if err := cfg.ApplyTunnelSpec(); err != nil {
		return nil, err
	}
	return inv, nil
}

// bindFlags registers every flag with cfg's current values as
// defaults, so flags override the file and environment layers.
func bindFlags(fs *flag.FlagSet, cfg *config.Config) {
	// ── session ──────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Wait for one peer to connect")
	fs.BoolVar(&cfg.Relay, "relay", cfg.Relay, "Echo every inbound line back to the peer (with -l)")
	fs.IntVarP(&cfg.Channel, "channel", "c", cfg.Channel, "Channel 1-30; selects port base-port+channel")
	fs.StringVarP(&cfg.Identity, "username", "u", cfg.Identity, "Name shown to the peer (default: host name)")
	fs.BoolVar(&cfg.ListDevices, "devices", cfg.ListDevices, "List bonded devices and exit")
	fs.IntVar(&cfg.ReplayCapacity, "replay", cfg.ReplayCapacity, "Lines kept for redisplay (0 = all)")

	// ── transport ────────────────────────────────────────────────
	fs.StringVarP(&cfg.Network, "network", "n", cfg.Network, "Transport: tcp, ws or wss")
	fs.StringVarP(&cfg.Host, "host", "H", cfg.Host, "Peer host, bypassing the device registry")
	fs.StringVar(&cfg.BindHost, "bind", cfg.BindHost, "Listen address (with -l)")
	fs.IntVarP(&cfg.BasePort, "base-port", "p", cfg.BasePort, "Port of channel 0")
	fs.StringVar(&cfg.Path, "path", cfg.Path, "WebSocket path")
	fs.StringVar(&cfg.DevicesFile, "devices-file", cfg.DevicesFile, "Bonded-device registry (TOML)")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Config file (TOML)")
	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "Receive poll interval")
	fs.DurationVar(&cfg.ReadWindow, "read-window", cfg.ReadWindow, "How long one read waits for data")
	fs.DurationVarP(&cfg.HandshakeTimeout, "timeout", "w", cfg.HandshakeTimeout, "Connect timeout")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Timestamps, "timestamps", cfg.Timestamps, "Timestamp log lines")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Validate the configuration and exit")
}

// configPath finds --config before the full parse, since the file
// supplies the defaults the other flags override.
func configPath(args []string) string {
	pre := flag.NewFlagSet("rfchat-config", flag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	pre.SetOutput(io.Discard)
	path := pre.String("config", "", "")
	pre.Parse(args) //nolint:errcheck
	if *path != "" {
		return *path
	}
	return config.ConfigFileFromEnv()
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `rfchat: two-peer text chat v%s

Chat over a point-to-point stream.  Each device has a base port;
channel N of that device is base-port+N.

Usage:
  rfchat [options] [device]                   Chat (connects to device if given)
  rfchat -H <host> [options]                  Chat with an unregistered peer
  rfchat -l [options]                         Wait for one peer
  rfchat --devices                            List bonded devices

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Console commands:
  list, update, connect NAME, disconnect, stop,
  channel [N], username [NAME], help, quit
  anything else is sent to the peer

Examples:
  rfchat -l -c 3                              Listen on port 7003
  rfchat -H 192.168.1.20 -c 3 -u alice        Chat with it
  rfchat -n ws -H relay.example.com kitchen   WebSocket peer
  rfchat -T admin@bastion -H 10.0.0.7         Through an SSH gateway
`)
}
