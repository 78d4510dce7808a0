// Package session is the connection engine: it owns the one active
// peer connection, runs the background receive loop, applies the chat
// framing, and keeps the replay buffer.
//
// Cancellation is generation based.  Every connect and disconnect
// advances the session's generation under its mutex; a receive loop
// remembers the generation it was started with and re-checks it after
// every blocking read, exiting without touching shared state once it
// has been superseded.  Disconnect never waits for the old loop.
package session

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"rfchat/internal/device"
	rferr "rfchat/internal/errors"
	"rfchat/internal/message"
	"rfchat/internal/metrics"
	"rfchat/internal/replay"
	"rfchat/internal/transport"
	"rfchat/util"
)

// Channel bounds, inclusive.
const (
	MinChannel = 1
	MaxChannel = 30
)

// DefaultPollInterval is how long the receive loop idles after a read
// that returned nothing.
const DefaultPollInterval = 500 * time.Millisecond

// sentTitle is the replay title for outbound lines.
const sentTitle = "sent"

// Options configures a Session.
type Options struct {
	Directory      device.Directory
	Provider       transport.Provider
	Identity       string // defaults to message.DefaultIdentity()
	Channel        int    // defaults to MinChannel
	PollInterval   time.Duration
	ReplayCapacity int // 0 keeps every line
	Logger         *util.Logger
	Metrics        *metrics.Collector
}

// Session owns at most one peer connection at a time.
type Session struct {
	dir      device.Directory
	provider transport.Provider
	poll     time.Duration
	logger   *util.Logger
	metrics  *metrics.Collector
	history  *replay.Buffer

	// mu guards everything below.  Swapping the transport and advancing
	// gen always happen together under it.
	mu       sync.Mutex
	state    State
	tr       transport.Transport
	gen      uint64
	connID   string
	peer     string
	channel  int
	identity string
	sink     Sink

	// deliverMu serializes inbound delivery against installing a new
	// connection or sink, so a loop that passed its generation check
	// finishes before anything newer becomes visible.
	deliverMu sync.Mutex

	// writeMu keeps sends in call order.
	writeMu sync.Mutex

	devMu   sync.Mutex
	devices map[string]device.Ref
}

// New builds a disconnected Session.
func New(opts Options) *Session {
	s := &Session{
		dir:      opts.Directory,
		provider: opts.Provider,
		poll:     opts.PollInterval,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		history:  replay.New(opts.ReplayCapacity),
		channel:  opts.Channel,
		identity: opts.Identity,
		sink:     nopSink{},
	}
	if s.dir == nil {
		s.dir = device.Static(nil)
	}
	if s.poll <= 0 {
		s.poll = DefaultPollInterval
	}
	if s.logger == nil {
		s.logger = util.NewLogger(0)
	}
	if s.channel == 0 {
		s.channel = MinChannel
	}
	if id, err := message.SanitizeIdentity(s.identity); err == nil {
		s.identity = id
	} else {
		s.identity = message.DefaultIdentity()
	}
	return s
}

// ── accessors ────────────────────────────────────────────────────────

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Channel returns the channel the next connection will use.
func (s *Session) Channel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// Identity returns the local sender tag.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// ConnectionID returns the id of the live connection, or "".
func (s *Session) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID
}

// Peer returns the name of the connected device, or "".
func (s *Session) Peer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// SetChannel selects the channel for the next connection.  Values
// outside 1..30 are rejected and the previous channel is kept.
func (s *Session) SetChannel(n int) error {
	if n < MinChannel || n > MaxChannel {
		return s.fail(rferr.NewSession(rferr.InvalidChannel, "channel",
			fmt.Errorf("%d is outside %d-%d", n, MinChannel, MaxChannel)))
	}
	s.mu.Lock()
	s.channel = n
	s.mu.Unlock()
	s.status(StatusChannel, fmt.Sprint(n))
	return nil
}

// SetIdentity sanitizes text and makes it the local sender tag.
func (s *Session) SetIdentity(text string) error {
	id, err := message.SanitizeIdentity(text)
	if err != nil {
		return s.fail(rferr.NewSession(rferr.InvalidIdentity, "username", err))
	}
	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
	s.status(StatusIdentity, id)
	return nil
}

// ── devices ──────────────────────────────────────────────────────────

// Devices returns the bonded devices, loading them on first use.
func (s *Session) Devices() (map[string]device.Ref, error) {
	s.devMu.Lock()
	cached := s.devices
	s.devMu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return s.RefreshDevices()
}

// RefreshDevices re-reads the device directory.  Only permission
// failures are reported as PermissionDenied.
func (s *Session) RefreshDevices() (map[string]device.Ref, error) {
	devices, err := s.dir.Bonded()
	if err != nil {
		if rferr.IsPermission(err) {
			return nil, s.fail(rferr.NewSession(rferr.PermissionDenied, "devices", err))
		}
		return nil, s.fail(fmt.Errorf("devices: %w", err))
	}
	s.devMu.Lock()
	s.devices = devices
	s.devMu.Unlock()
	return devices, nil
}

// ── lifecycle ────────────────────────────────────────────────────────

// Connect resolves name, opens a transport on the current channel and
// starts the receive loop.  It is only valid while disconnected and
// must not be called from a Sink callback.
func (s *Session) Connect(ctx context.Context, name string) error {
	s.mu.Lock()
	if s.state != Disconnected {
		s.mu.Unlock()
		return s.fail(rferr.NewSession(rferr.HandshakeFailed, "connect", rferr.ErrAlreadyConnected))
	}
	s.state = Connecting
	attempt := s.gen
	channel := s.channel
	s.mu.Unlock()

	devices, err := s.Devices()
	if err != nil {
		s.abandon(attempt, nil)
		return err
	}
	ref, ok := devices[name]
	if !ok {
		s.abandon(attempt, nil)
		return s.fail(rferr.NewSession(rferr.DeviceNotFound, "connect",
			fmt.Errorf("no bonded device named %q", name)))
	}

	s.logger.Verbose("connecting to %s (%s %s, channel %d)", name, ref.Network, ref.Host, channel)

	tr, err := s.provider.Create(ref, channel)
	if err != nil {
		s.abandon(attempt, nil)
		kind := rferr.SocketCreateFailed
		if rferr.IsPermission(err) {
			kind = rferr.PermissionDenied
		}
		return s.fail(rferr.NewSession(kind, "connect", err))
	}

	s.mu.Lock()
	if s.gen != attempt || s.state != Connecting {
		s.mu.Unlock()
		tr.Close()
		return s.fail(rferr.NewSession(rferr.HandshakeFailed, "connect", rferr.ErrCancelled))
	}
	s.tr = tr
	s.mu.Unlock()

	if err := tr.Open(ctx); err != nil {
		s.abandon(attempt, tr)
		tr.Close()
		if !s.current(attempt) {
			err = rferr.ErrCancelled
		}
		return s.fail(rferr.NewSession(rferr.HandshakeFailed, "connect", err))
	}

	s.deliverMu.Lock()
	s.mu.Lock()
	if s.gen != attempt || s.tr != tr {
		s.mu.Unlock()
		s.deliverMu.Unlock()
		tr.Close()
		return s.fail(rferr.NewSession(rferr.HandshakeFailed, "connect", rferr.ErrCancelled))
	}
	s.gen++
	gen := s.gen
	s.state = Connected
	s.connID = uuid.NewString()
	s.peer = name
	connID := s.connID
	s.mu.Unlock()
	s.deliverMu.Unlock()

	s.metrics.ConnectionOpened(connID)
	s.logger.Verbose("connected to %s at %s (conn %s)", name, tr.RemoteAddr(), connID)

	go s.receive(gen, tr)

	s.status(StatusConnected, name)
	return nil
}

// abandon returns a failed connect attempt to Disconnected, unless a
// Disconnect already took the session over.
func (s *Session) abandon(attempt uint64, tr transport.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == attempt && s.state == Connecting && s.tr == tr {
		s.tr = nil
		s.state = Disconnected
	}
}

// Disconnect tears the connection down.  It reports whether there was
// anything to disconnect; calling it while disconnected is a no-op.
func (s *Session) Disconnect() bool {
	return s.disconnect(0, false, nil)
}

type event struct {
	kind   StatusKind
	detail string
}

// disconnect implements Disconnect.  With guarded set it only acts if
// gen is still current, which is how a receive loop tears down its own
// connection without touching a newer one.  cause, if set, is reported
// before the disconnect notice.
func (s *Session) disconnect(gen uint64, guarded bool, cause *event) bool {
	s.mu.Lock()
	if s.state == Disconnected || s.state == Disconnecting || (guarded && s.gen != gen) {
		s.mu.Unlock()
		return false
	}
	wasConnected := s.state == Connected
	s.state = Disconnecting
	s.gen++
	tr, connID := s.tr, s.connID
	s.tr, s.connID, s.peer = nil, "", ""
	s.mu.Unlock()

	if cause != nil {
		s.status(cause.kind, cause.detail)
	}

	var closeErr error
	if tr != nil {
		closeErr = tr.Close()
	}

	s.mu.Lock()
	s.state = Disconnected
	s.mu.Unlock()

	if wasConnected {
		s.metrics.ConnectionClosed()
	}
	if closeErr != nil {
		s.metrics.RecordError(closeErr.Error())
		s.logger.Warn("closing socket: %v", closeErr)
		s.status(StatusError, fmt.Sprintf("closing socket (%v)", closeErr))
	}
	s.logger.Verbose("disconnected (conn %s)", connID)
	s.status(StatusDisconnected, "disconnected")
	return true
}

// Send frames text under the local identity and writes it.  A failed
// write disconnects, since the stream is in an unknown state.
func (s *Session) Send(text string) error {
	if err := s.write("", text); err != nil {
		return err
	}
	s.history.Append(sentTitle, text)
	s.sinkRef().OnSent(text)
	return nil
}

// Forward writes a line framed under someone else's tag.  A relaying
// listener uses it to echo what it heard back to the peer, whose
// self-echo filter then drops it.
func (s *Session) Forward(sender, body string) error {
	return s.write(sender, body)
}

func (s *Session) write(sender, text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.state != Connected {
		s.mu.Unlock()
		return s.fail(rferr.NewSession(rferr.SendFailed, "send", rferr.ErrNotConnected))
	}
	tr, gen := s.tr, s.gen
	if sender == "" {
		sender = s.identity
	}
	s.mu.Unlock()

	payload := message.Encode(sender, text)
	if err := tr.Write(payload); err != nil {
		serr := rferr.NewSession(rferr.SendFailed, "send", err)
		s.fail(serr)
		s.disconnect(gen, true, nil)
		return serr
	}
	s.metrics.MessageSent(len(payload))
	return nil
}

// Stop asks a listening peer to shut down by sending "stop", then
// disconnects.
func (s *Session) Stop() error {
	if err := s.Send("stop"); err != nil {
		return err
	}
	s.Disconnect()
	return nil
}

// ── presentation ─────────────────────────────────────────────────────

// Attach replays the buffered lines into sink and then makes it the
// active presentation layer.
func (s *Session) Attach(sink Sink) {
	if sink == nil {
		sink = nopSink{}
	}
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	for e := range s.history.Replay() {
		sink.OnMessage(e.Sender, e.Body)
	}
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Record appends a presentation-level line to the replay buffer.
func (s *Session) Record(title, body string) {
	s.history.Append(title, body)
}

// Replay returns the buffered lines in display order.  Ranging over it
// does not consume the buffer.
func (s *Session) Replay() iter.Seq[replay.Entry] {
	return s.history.Replay()
}

// ── helpers ──────────────────────────────────────────────────────────

func (s *Session) sinkRef() Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}

func (s *Session) status(kind StatusKind, detail string) {
	s.sinkRef().OnStatus(kind, detail)
}

// fail reports err as an error status and returns it.
func (s *Session) fail(err error) error {
	s.metrics.RecordError(err.Error())
	s.logger.Verbose("%v", err)
	s.status(StatusError, err.Error())
	return err
}
