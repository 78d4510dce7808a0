package session

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"rfchat/internal/device"
	"rfchat/internal/transport"
)

// fakeTransport is an in-memory Transport.  Read blocks until data is
// pushed, the peer "hangs up", or (unless stickyRead is set) the
// transport is closed.
type fakeTransport struct {
	openErr    error
	openBlock  chan struct{} // if set, Open waits on it or on Close
	writeErr   error
	closeErr   error
	stickyRead bool

	data   chan []byte
	hangup chan struct{}
	closed chan struct{}

	mu        sync.Mutex
	written   []string
	closes    int
	closeOnce sync.Once
}

func newFake() *fakeTransport {
	return &fakeTransport{
		data:   make(chan []byte, 16),
		hangup: make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) Open(ctx context.Context) error {
	if f.openBlock != nil {
		select {
		case <-f.openBlock:
		case <-f.closed:
			return context.Canceled
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.openErr
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	closed := f.closed
	if f.stickyRead {
		closed = nil
	}
	select {
	case d := <-f.data:
		return copy(p, d), nil
	case <-f.hangup:
		return 0, io.EOF
	case <-closed:
		return 0, net.ErrClosed
	}
}

func (f *fakeTransport) Write(p []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	f.written = append(f.written, string(p))
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.closed) })
	return f.closeErr
}

func (f *fakeTransport) RemoteAddr() string { return "fake" }

func (f *fakeTransport) push(s string) { f.data <- []byte(s) }

func (f *fakeTransport) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// fakeProvider hands out queued transports in order.
type fakeProvider struct {
	mu        sync.Mutex
	queue     []*fakeTransport
	createErr error
	channels  []int
}

func (p *fakeProvider) Create(ref device.Ref, channel int) (transport.Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	if p.createErr != nil {
		return nil, p.createErr
	}
	if len(p.queue) == 0 {
		return newFake(), nil
	}
	tr := p.queue[0]
	p.queue = p.queue[1:]
	return tr, nil
}

type line struct{ sender, body string }

type status struct {
	kind   StatusKind
	detail string
}

// recorder is a Sink that keeps everything it sees.
type recorder struct {
	mu       sync.Mutex
	messages []line
	sent     []string
	statuses []status
}

func (r *recorder) OnMessage(sender, body string) {
	r.mu.Lock()
	r.messages = append(r.messages, line{sender, body})
	r.mu.Unlock()
}

func (r *recorder) OnSent(body string) {
	r.mu.Lock()
	r.sent = append(r.sent, body)
	r.mu.Unlock()
}

func (r *recorder) OnStatus(kind StatusKind, detail string) {
	r.mu.Lock()
	r.statuses = append(r.statuses, status{kind, detail})
	r.mu.Unlock()
}

func (r *recorder) lines() []line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]line(nil), r.messages...)
}

func (r *recorder) kinds() []StatusKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StatusKind
	for _, s := range r.statuses {
		out = append(out, s.kind)
	}
	return out
}

func (r *recorder) hasStatus(kind StatusKind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// waitFor polls cond for up to two seconds.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
