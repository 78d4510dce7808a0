package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPDialer establishes plain TCP connections, optionally binding to a
// specific source port.
type TCPDialer struct {
	Timeout   time.Duration
	LocalPort int // optional source-port binding (0 = ephemeral)
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	if d.LocalPort > 0 {
		local := fmt.Sprintf(":%d", d.LocalPort)
		a, err := net.ResolveTCPAddr(network, local)
		if err != nil {
			return nil, fmt.Errorf("resolve local addr: %w", err)
		}
		dialer.LocalAddr = a
	}

	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }

// netLink adapts a net.Conn to the bounded-read contract using read
// deadlines.
type netLink struct {
	conn net.Conn
}

func (l *netLink) read(p []byte, window time.Duration) (int, error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(window)); err != nil {
		return 0, err
	}
	n, err := l.conn.Read(p)
	if n > 0 {
		return n, nil
	}
	if isTimeout(err) {
		return 0, nil
	}
	return 0, err
}

func (l *netLink) write(p []byte) error {
	_, err := l.conn.Write(p)
	return err
}

func (l *netLink) close() error   { return l.conn.Close() }
func (l *netLink) remote() string { return l.conn.RemoteAddr().String() }

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// acceptTCP listens on addr, hands the bound address to onListen, and
// returns the first inbound connection.  The listener is closed before
// returning so exactly one peer gets through.
func acceptTCP(ctx context.Context, addr string, onListen func(net.Addr)) (net.Conn, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	if onListen != nil {
		onListen(ln.Addr())
	}

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}
