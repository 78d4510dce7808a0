package core

import (
	"net"

	"rfchat/config"
	"rfchat/internal/device"
	"rfchat/internal/metrics"
	"rfchat/internal/session"
	"rfchat/internal/transport"
	"rfchat/tunnel"
	"rfchat/util"
)

// FlagDevice is the directory name given to a peer defined with
// --host when no device name is supplied.
const FlagDevice = "peer"

// ListenDevice is the directory name of listen mode's own endpoint.
const ListenDevice = "listen"

// Build constructs the appropriate Mode from the given configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	switch {
	case cfg.ListDevices:
		return buildDevices(cfg, logger)
	case cfg.Listen:
		return buildListen(cfg, logger)
	default:
		return buildChat(cfg, logger)
	}
}

// ── mode builders ────────────────────────────────────────────────────

func buildChat(cfg *config.Config, logger *util.Logger) (Mode, error) {
	dialer := buildDialer(cfg, logger)
	collector := metrics.New()

	sess := newSession(cfg, logger, collector, buildDirectory(cfg), &transport.NetProvider{
		Dialer:           dialer,
		ReadWindow:       cfg.ReadWindow,
		HandshakeTimeout: cfg.HandshakeTimeout,
	})

	device := cfg.Device
	if device == "" && cfg.Host != "" {
		device = FlagDevice
	}

	return &ChatMode{
		Session: sess,
		Device:  device,
		Dialer:  dialer,
		Metrics: collector,
		Logger:  logger,
	}, nil
}

func buildListen(cfg *config.Config, logger *util.Logger) (Mode, error) {
	collector := metrics.New()
	m := &ListenMode{
		Relay:   cfg.Relay,
		Metrics: collector,
		Logger:  logger,
	}

	self := device.Static{{
		Name:     ListenDevice,
		Network:  cfg.Network,
		Host:     cfg.BindHost,
		BasePort: cfg.BasePort,
		Path:     cfg.Path,
	}}
	m.Session = newSession(cfg, logger, collector, self, &transport.ListenProvider{
		ReadWindow: cfg.ReadWindow,
		OnListen:   m.listening,
	})
	return m, nil
}

func buildDevices(cfg *config.Config, logger *util.Logger) (Mode, error) {
	return &DevicesMode{
		Directory: buildDirectory(cfg),
		Channel:   cfg.Channel,
		Logger:    logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

func newSession(cfg *config.Config, logger *util.Logger, collector *metrics.Collector,
	dir device.Directory, provider transport.Provider) *session.Session {
	return session.New(session.Options{
		Directory:      dir,
		Provider:       provider,
		Identity:       cfg.Identity,
		Channel:        cfg.Channel,
		PollInterval:   cfg.PollInterval,
		ReplayCapacity: cfg.ReplayCapacity,
		Logger:         logger,
		Metrics:        collector,
	})
}

// buildDirectory layers a --host peer over the registry file.
func buildDirectory(cfg *config.Config) device.Directory {
	defaults := device.Ref{Network: cfg.Network, BasePort: cfg.BasePort, Path: cfg.Path}

	path := cfg.DevicesFile
	if path == "" {
		path = cfg.ConfigFile
	}
	var dir device.Directory = &device.Registry{Path: path, Defaults: defaults}

	if cfg.Host != "" {
		ref := defaults
		ref.Name = cfg.Device
		if ref.Name == "" {
			ref.Name = FlagDevice
		}
		ref.Host = cfg.Host
		dir = device.Chain{dir, device.Static{ref}}
	}
	return dir
}

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.HandshakeTimeout,
		}, logger)
	}
	return &transport.TCPDialer{Timeout: cfg.HandshakeTimeout}
}

// reportMetrics dumps the collector at debug verbosity.
func reportMetrics(logger *util.Logger, collector *metrics.Collector) {
	if logger.Level() >= util.LogDebug {
		logger.Debug("session metrics:\n%s", collector.JSON())
	}
}

// addrString tolerates a nil address in log lines.
func addrString(a net.Addr) string {
	if a == nil {
		return "?"
	}
	return a.String()
}
