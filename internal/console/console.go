// Package console is the line-oriented front end of a chat session: it
// parses typed commands, drives the session, and renders everything
// the session reports as "title : content" lines.
package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"rfchat/internal/device"
	"rfchat/internal/session"
)

// Engine is the part of *session.Session the console drives.
type Engine interface {
	Devices() (map[string]device.Ref, error)
	RefreshDevices() (map[string]device.Ref, error)
	Connect(ctx context.Context, name string) error
	Disconnect() bool
	Stop() error
	Send(text string) error
	Channel() int
	SetChannel(n int) error
	Identity() string
	SetIdentity(text string) error
	Record(title, body string)
}

// Line titles.
const (
	titleInfo     = "info"
	titleError    = "error"
	titleSent     = "sent"
	titleDevices  = "devices"
	titleChannel  = "channel"
	titleUsername = "username"
)

const helpText = `commands:
  list                 show bonded devices
  update               reload bonded devices
  connect NAME         connect to a device
  disconnect           close the connection
  stop                 ask a listening peer to stop, then disconnect
  channel [N]          show or set the channel (1-30)
  username [NAME]      show or set your name
  quit                 leave
anything else is sent to the peer`

// Console renders session output and executes commands.  It is a
// session.Sink.
type Console struct {
	engine Engine

	mu  sync.Mutex
	out io.Writer
}

// New returns a Console that writes to out.
func New(engine Engine, out io.Writer) *Console {
	return &Console{engine: engine, out: out}
}

// SetOutput swaps the writer, e.g. once a terminal is set up.
func (c *Console) SetOutput(w io.Writer) {
	c.mu.Lock()
	c.out = w
	c.mu.Unlock()
}

// ── session.Sink ─────────────────────────────────────────────────────

// OnMessage renders a peer line, or a replayed one.
func (c *Console) OnMessage(sender, body string) {
	c.render(sender, body)
}

// OnSent renders a line we sent.
func (c *Console) OnSent(body string) {
	c.render(titleSent, body)
}

// OnStatus renders and records a session notification.
func (c *Console) OnStatus(kind session.StatusKind, detail string) {
	title := titleInfo
	switch {
	case kind.IsError():
		title = titleError
	case kind == session.StatusConnected:
		detail = "connected to " + detail
	case kind == session.StatusChannel:
		title = titleChannel
	case kind == session.StatusIdentity:
		title = titleUsername
	}
	c.show(title, detail)
}

// ── commands ─────────────────────────────────────────────────────────

// Execute runs one command.  It reports whether the user asked to quit.
// Failures are already shown to the user through OnStatus, so Execute
// only returns them for callers that want to react.
func (c *Console) Execute(ctx context.Context, cmd Command) (quit bool, err error) {
	switch cmd.Kind {
	case List:
		devices, err := c.engine.Devices()
		if err != nil {
			return false, err
		}
		c.showDevices(devices)

	case Update:
		devices, err := c.engine.RefreshDevices()
		if err != nil {
			return false, err
		}
		c.showDevices(devices)

	case Connect:
		return false, c.engine.Connect(ctx, cmd.Arg)

	case Disconnect:
		if !c.engine.Disconnect() {
			c.show(titleError, "no device connected")
		}

	case Stop:
		return false, c.engine.Stop()

	case ShowChannel:
		c.show(titleChannel, strconv.Itoa(c.engine.Channel()))

	case SetChannel:
		n, err := strconv.Atoi(cmd.Arg)
		if err != nil {
			c.show(titleError, "invalid value")
			return false, fmt.Errorf("channel %q: %w", cmd.Arg, err)
		}
		return false, c.engine.SetChannel(n)

	case ShowUsername:
		c.show(titleUsername, c.engine.Identity())

	case SetUsername:
		return false, c.engine.SetIdentity(cmd.Arg)

	case Help:
		c.render("", helpText)

	case Quit:
		return true, nil

	default:
		if cmd.Arg == "" {
			return false, nil
		}
		return false, c.engine.Send(cmd.Arg)
	}
	return false, nil
}

// Run reads lines until EOF, quit, or ctx is done.
func (c *Console) Run(ctx context.Context, in LineReader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			line, err := in.ReadLine()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case line := <-lines:
			quit, _ := c.Execute(ctx, Parse(line))
			if quit {
				return nil
			}
		}
	}
}

// ── rendering ────────────────────────────────────────────────────────

func (c *Console) showDevices(devices map[string]device.Ref) {
	names := device.Names(devices)
	if len(names) == 0 {
		c.show(titleDevices, "(none)")
		return
	}
	c.show(titleDevices, "")
	for _, name := range names {
		c.show("", " - "+name)
	}
}

// show renders a line and keeps it for replay.
func (c *Console) show(title, body string) {
	c.engine.Record(title, body)
	c.render(title, body)
}

func (c *Console) render(title, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, Format(title, body))
}

// Format lays out one display line.
func Format(title, body string) string {
	switch {
	case title == "":
		return body
	case body == "":
		return title + " :"
	default:
		return title + " : " + body
	}
}
