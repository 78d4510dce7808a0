package session

// State is the lifecycle position of the session's single connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// StatusKind tags a lifecycle or error notification sent to the Sink.
type StatusKind int

const (
	StatusConnected StatusKind = iota
	StatusDisconnected
	StatusChannel
	StatusIdentity
	StatusPeerDisconnected
	StatusTransportError
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusChannel:
		return "channel"
	case StatusIdentity:
		return "username"
	case StatusPeerDisconnected:
		return "peer disconnected"
	case StatusTransportError:
		return "transport error"
	default:
		return "error"
	}
}

// IsError reports whether k describes a failure.
func (k StatusKind) IsError() bool {
	return k >= StatusPeerDisconnected
}

// Sink is the presentation layer.  OnMessage is called from the
// receive goroutine; OnSent and OnStatus from whichever goroutine
// drove the operation.  Implementations must be safe for concurrent
// use and must not call Connect or Attach from a callback.
type Sink interface {
	OnMessage(sender, body string)
	OnSent(body string)
	OnStatus(kind StatusKind, detail string)
}

type nopSink struct{}

func (nopSink) OnMessage(string, string)    {}
func (nopSink) OnSent(string)               {}
func (nopSink) OnStatus(StatusKind, string) {}
