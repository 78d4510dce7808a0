// Package metrics provides lightweight, lock-free counters for
// tracking runtime statistics of a chat session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a chat session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	messagesIn        atomic.Int64
	messagesOut       atomic.Int64
	echoesSuppressed  atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	connID       string
	connSince    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters and
// remembers id as the current connection.
func (c *Collector) ConnectionOpened(id string) {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
	c.mu.Lock()
	c.connID = id
	c.connSince = time.Now()
	c.mu.Unlock()
}

// ConnectionClosed decrements the active connection counter and
// forgets the current connection.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
	c.mu.Lock()
	c.connID = ""
	c.connSince = time.Time{}
	c.mu.Unlock()
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── Message metrics ──────────────────────────────────────────────────

// MessageReceived records one delivered inbound chunk of n bytes.
func (c *Collector) MessageReceived(n int) {
	if c == nil {
		return
	}
	c.messagesIn.Add(1)
	c.bytesIn.Add(int64(n))
}

// MessageSent records one outbound message of n bytes.
func (c *Collector) MessageSent(n int) {
	if c == nil {
		return
	}
	c.messagesOut.Add(1)
	c.bytesOut.Add(int64(n))
}

// EchoSuppressed records an inbound chunk dropped by the self-echo
// filter.  Its bytes still count as received.
func (c *Collector) EchoSuppressed(n int) {
	if c == nil {
		return
	}
	c.echoesSuppressed.Add(1)
	c.bytesIn.Add(int64(n))
}

// MessagesIn returns the number of delivered inbound messages.
func (c *Collector) MessagesIn() int64 {
	if c == nil {
		return 0
	}
	return c.messagesIn.Load()
}

// MessagesOut returns the number of sent messages.
func (c *Collector) MessagesOut() int64 {
	if c == nil {
		return 0
	}
	return c.messagesOut.Load()
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	ConnectionID      string `json:"connection_id,omitempty"`
	ConnectedFor      string `json:"connected_for,omitempty"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	MessagesIn        int64  `json:"messages_in"`
	MessagesOut       int64  `json:"messages_out"`
	EchoesSuppressed  int64  `json:"echoes_suppressed"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		MessagesIn:        c.messagesIn.Load(),
		MessagesOut:       c.messagesOut.Load(),
		EchoesSuppressed:  c.echoesSuppressed.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if c.connID != "" {
		s.ConnectionID = c.connID
		s.ConnectedFor = time.Since(c.connSince).Truncate(time.Second).String()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
