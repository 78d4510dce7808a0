// Package transport provides the byte streams a chat session runs
// over.  A Provider turns a device reference and a channel into an
// unopened Transport; Open performs the connection handshake (dial or
// accept), after which the session owns the handle until Close.
//
// Transports handle the "how" of data movement (TCP, WebSocket, or
// TCP through an SSH gateway) independent of the chat framing carried
// over them.
package transport

import (
	"context"
	"net"
	"time"

	"rfchat/internal/device"
)

// DefaultReadWindow bounds how long Read waits for data before
// reporting that nothing is available.
const DefaultReadWindow = 100 * time.Millisecond

// Transport is one bidirectional byte stream to a peer.
type Transport interface {
	// Open establishes the stream.  It blocks until the peer is
	// reached, ctx is done, or Close is called from another goroutine.
	Open(ctx context.Context) error

	// Read fills p with whatever arrived.  It returns (0, nil) when no
	// data showed up within the read window, io.EOF once the peer hung
	// up, and a closed-stream error after a local Close.
	Read(p []byte) (int, error)

	// Write sends all of p or returns an error.
	Write(p []byte) error

	// Close releases the stream.  It is safe to call more than once and
	// concurrently with Open or Read.
	Close() error

	// RemoteAddr describes the peer for logging.  Empty before Open.
	RemoteAddr() string
}

// Provider creates transports for bonded devices.  Capability
// failures (permission, unsupported network) are reported as
// *errors.CapabilityError so they stay distinct from connection
// failures.
type Provider interface {
	Create(ref device.Ref, channel int) (Transport, error)
}

// Dialer opens outbound network connections.  Implementations include
// a plain TCP dialer and an SSH-tunnelled dialer that routes traffic
// through a gateway.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}
