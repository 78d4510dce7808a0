// Package errors provides domain-specific error types for rfchat.
//
// These types carry structured context (failure kind, operation,
// address) that helps callers decide how to report failures and
// provides better diagnostics than plain string wrapping.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotConnected     = errors.New("no device connected")
	ErrAlreadyConnected = errors.New("a device is already connected")
	ErrCancelled        = errors.New("connection cancelled")
	ErrUnknownNetwork   = errors.New("unsupported network")
	ErrPermission       = errors.New("permission denied")
	ErrAuthFailed       = errors.New("authentication failed")
)

// ── Session failure taxonomy ─────────────────────────────────────────

// Kind classifies a session failure.  Every kind is terminal to the
// operation that produced it, never to the process.
type Kind int

const (
	KindUnknown Kind = iota
	PermissionDenied
	DeviceNotFound
	SocketCreateFailed
	HandshakeFailed
	SendFailed
	TransportError
	PeerDisconnected
	InvalidChannel
	InvalidIdentity
)

func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "permission denied"
	case DeviceNotFound:
		return "device not found"
	case SocketCreateFailed:
		return "socket creation failed"
	case HandshakeFailed:
		return "connection failed"
	case SendFailed:
		return "send failed"
	case TransportError:
		return "transport error"
	case PeerDisconnected:
		return "peer disconnected"
	case InvalidChannel:
		return "invalid channel"
	case InvalidIdentity:
		return "invalid username"
	default:
		return "unknown error"
	}
}

// SessionError is returned by every session engine operation that
// fails.  Err preserves the underlying cause for display.
type SessionError struct {
	Kind Kind
	Op   string // "connect", "send", "channel", "username", "read"
	Err  error
}

func (e *SessionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Op, e.Kind, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Is matches another *SessionError by Kind so callers can write
// errors.Is(err, &SessionError{Kind: SendFailed}).
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	return ok && t.Kind == e.Kind
}

// CapabilityError is returned by transport providers when a device
// cannot be used at all (missing permission, unsupported network).  It
// is reported distinctly from connection failures.
type CapabilityError struct {
	Network    string
	Permission bool
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("device capability %s: %v", e.Network, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "dial", "listen", "accept", "write", "read"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether a fresh attempt may succeed
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// NewSession creates a SessionError.
func NewSession(kind Kind, op string, err error) *SessionError {
	return &SessionError{Kind: kind, Op: op, Err: err}
}

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// KindOf returns the Kind of the first SessionError in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsCapability reports whether err came from a provider rejecting the
// device outright.
func IsCapability(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}

// IsPermission reports whether err is a permission failure.
func IsPermission(err error) bool {
	var ce *CapabilityError
	if errors.As(err, &ce) && ce.Permission {
		return true
	}
	return errors.Is(err, ErrPermission)
}

// IsRetryable reports whether err is worth a fresh user-initiated
// attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsClosed reports whether err is what a read or write returns on a
// stream that has already been closed locally or by the peer.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use rfchat/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
