package transport

import (
	"context"
	"net"
	"sync"
	"time"

	rferr "rfchat/internal/errors"
)

// link is an established stream.  Implementations wrap a net.Conn or
// a websocket connection.
type link interface {
	read(p []byte, window time.Duration) (int, error)
	write(p []byte) error
	close() error
	remote() string
}

type connectFunc func(ctx context.Context) (link, error)

// handle implements Transport on top of a connectFunc.  Close may race
// with Open: it cancels the in-flight handshake and any link that
// arrives afterwards is discarded.
type handle struct {
	connect connectFunc
	window  time.Duration

	mu     sync.Mutex
	link   link
	cancel context.CancelFunc
	closed bool
}

func newHandle(connect connectFunc, window time.Duration) *handle {
	if window <= 0 {
		window = DefaultReadWindow
	}
	return &handle{connect: connect, window: window}
}

func (h *handle) Open(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return rferr.ErrCancelled
	}
	h.cancel = cancel
	h.mu.Unlock()

	l, err := h.connect(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancel = nil
	if h.closed {
		if l != nil {
			l.close()
		}
		return rferr.ErrCancelled
	}
	if err != nil {
		return err
	}
	h.link = l
	return nil
}

func (h *handle) current() (link, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.link == nil {
		return nil, net.ErrClosed
	}
	return h.link, nil
}

func (h *handle) Read(p []byte) (int, error) {
	l, err := h.current()
	if err != nil {
		return 0, err
	}
	return l.read(p, h.window)
}

func (h *handle) Write(p []byte) error {
	l, err := h.current()
	if err != nil {
		return err
	}
	return l.write(p)
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if h.cancel != nil {
		h.cancel()
	}
	if h.link != nil {
		return h.link.close()
	}
	return nil
}

func (h *handle) RemoteAddr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.link == nil {
		return ""
	}
	return h.link.remote()
}
