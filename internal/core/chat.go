package core

import (
	"context"
	"io"
	"os"

	"rfchat/internal/console"
	"rfchat/internal/metrics"
	"rfchat/internal/session"
	"rfchat/internal/transport"
	"rfchat/util"
)

// prompt is shown by the interactive line editor.
const prompt = "> "

// Terminal detection and setup.  Tests replace them.
var (
	isTerminal   = console.IsTerminal
	openTerminal = console.OpenTerminal
)

// ChatMode drives a dialing session from the console, the default
// client mode.
type ChatMode struct {
	Session *session.Session
	Device  string // connected on start-up when set
	Dialer  transport.Dialer
	Metrics *metrics.Collector
	Logger  *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ChatMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ChatMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run attaches a console to the session and reads commands until the
// user quits, input ends, or ctx is done.  The connection and the
// dialer are closed when Run returns.
func (m *ChatMode) Run(ctx context.Context) error {
	if m.Dialer != nil {
		defer m.Dialer.Close()
	}
	defer reportMetrics(m.Logger, m.Metrics)
	defer m.Session.Disconnect()

	con := console.New(m.Session, m.stdout())

	var in console.LineReader
	if f, ok := m.stdin().(*os.File); ok && isTerminal(f) {
		t, err := openTerminal(f, m.stdout(), prompt)
		if err != nil {
			return err
		}
		defer t.Close()
		con.SetOutput(t)
		in = t
	} else {
		in = console.NewScanReader(m.stdin())
	}

	m.Session.Attach(con)
	m.Logger.Verbose("identity %q, channel %d", m.Session.Identity(), m.Session.Channel())

	if m.Device != "" {
		// A failure is already on screen; stay in the console so the
		// user can retry.
		m.Session.Connect(ctx, m.Device) //nolint:errcheck
	}

	return con.Run(ctx, in)
}
