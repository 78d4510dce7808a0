// Package tunnel reaches chat peers that sit behind an SSH gateway.
// The gateway connection is opened once and every peer dial is
// forwarded over it with ssh.Client.Dial.
package tunnel

import (
	"context"
	"net"
)

// Tunnel abstracts an encrypted channel through which peer streams can
// be forwarded.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a stream to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the gateway connection is still up.
	IsAlive() bool
}
