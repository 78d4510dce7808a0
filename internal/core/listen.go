package core

import (
	"context"
	"io"
	"net"
	"os"
	"sync"

	"rfchat/internal/console"
	"rfchat/internal/metrics"
	"rfchat/internal/session"
	"rfchat/util"
)

// stopBody is the message that shuts a listener down.
const stopBody = "stop"

// ListenMode accepts exactly one peer and prints what it says.  With
// Relay set every inbound line is written back to the peer, whose
// self-echo filter drops it.  It returns when the peer hangs up, the
// peer sends "stop", or ctx is done.
type ListenMode struct {
	Session *session.Session
	Relay   bool
	Metrics *metrics.Collector
	Logger  *util.Logger

	// Ready, when set, is called with the bound address once the
	// listener is up.
	Ready func(net.Addr)

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

func (m *ListenMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *ListenMode) listening(addr net.Addr) {
	m.Logger.Info("listening on %s", addrString(addr))
	if m.Ready != nil {
		m.Ready(addr)
	}
}

// Run waits for a peer and serves it until the conversation ends.
func (m *ListenMode) Run(ctx context.Context) error {
	defer reportMetrics(m.Logger, m.Metrics)
	defer m.Session.Disconnect()

	sink := &listenSink{
		Console: console.New(m.Session, m.stdout()),
		sess:    m.Session,
		relay:   m.Relay,
		done:    make(chan struct{}),
	}
	m.Session.Attach(sink)

	if err := m.Session.Connect(ctx, ListenDevice); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	select {
	case <-ctx.Done():
	case <-sink.done:
	}
	return nil
}

// listenSink renders like the console and watches for the end of the
// conversation.
type listenSink struct {
	*console.Console
	sess  *session.Session
	relay bool

	once sync.Once
	done chan struct{}
}

func (s *listenSink) OnMessage(sender, body string) {
	s.Console.OnMessage(sender, body)
	if body == stopBody {
		s.finish()
		return
	}
	if s.relay {
		s.sess.Forward(sender, body) //nolint:errcheck
	}
}

func (s *listenSink) OnStatus(kind session.StatusKind, detail string) {
	if kind == session.StatusConnected {
		detail = "a peer"
	}
	s.Console.OnStatus(kind, detail)
	if kind == session.StatusDisconnected {
		s.finish()
	}
}

func (s *listenSink) finish() {
	s.once.Do(func() { close(s.done) })
}
