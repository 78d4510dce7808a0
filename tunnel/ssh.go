package tunnel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	rferr "rfchat/internal/errors"
	"rfchat/util"
)

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Addr returns the gateway's host:port.
func (c *SSHConfig) Addr() string { return util.FormatAddr(c.Host, c.Port) }

// SSHTunnel implements [Tunnel] over a single golang.org/x/crypto/ssh
// client connection.
type SSHTunnel struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHTunnel{config: cfg, logger: logger}
}

// Connect dials the gateway and completes the SSH handshake.  Calling
// Connect on a live tunnel is a no-op.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	if t.IsAlive() {
		return nil
	}

	auth, err := BuildAuthMethods(t.config)
	if err != nil {
		return rferr.WrapSSH("auth", t.config.Host, t.config.Port, err)
	}
	hostKeys, err := hostKeyCallback(t.config)
	if err != nil {
		return rferr.WrapSSH("hostkey", t.config.Host, t.config.Port, err)
	}

	addr := t.config.Addr()
	t.logger.Debug("ssh: dialing gateway %s as %s", addr, t.config.User)

	d := net.Dialer{Timeout: t.config.ConnTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return rferr.Wrap("dial", addr, err)
	}

	conn, chans, reqs, err := ssh.NewClientConn(raw, addr, &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         t.config.ConnTimeout,
	})
	if err != nil {
		raw.Close()
		return rferr.WrapSSH("handshake", t.config.Host, t.config.Port, err)
	}

	client := ssh.NewClient(conn, chans, reqs)
	t.mu.Lock()
	t.client = client
	t.alive = true
	t.mu.Unlock()

	go t.watch(client)
	return nil
}

// Dial forwards a stream to address through the gateway.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client, alive := t.client, t.alive
	t.mu.RUnlock()

	if !alive || client == nil {
		return nil, rferr.ErrNotConnected
	}

	t.logger.Debug("ssh: forwarding %s %s", network, address)

	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		c, err := client.Dial(network, address)
		done <- result{c, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, rferr.WrapSSH("dial", t.config.Host, t.config.Port,
				fmt.Errorf("%s: %w", address, r.err))
		}
		return r.conn, nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Close shuts the gateway connection down.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

// IsAlive reports whether the gateway connection is still up.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// watch flips the alive flag once the gateway connection ends.
func (t *SSHTunnel) watch(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client {
		t.alive = false
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("ssh: gateway closed: %v", err)
	} else {
		t.logger.Debug("ssh: gateway closed")
	}
}
