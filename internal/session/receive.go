package session

import (
	"io"
	"time"

	rferr "rfchat/internal/errors"
	"rfchat/internal/message"
	"rfchat/internal/transport"
)

// receive is the background loop for one connection generation.  It
// never retries a failed read.
func (s *Session) receive(gen uint64, tr transport.Transport) {
	buf := make([]byte, message.MaxChunk)
	for {
		n, err := tr.Read(buf)
		if !s.current(gen) {
			return
		}

		switch {
		case err != nil && rferr.Is(err, io.EOF):
			s.logger.Verbose("peer closed the connection")
			serr := rferr.NewSession(rferr.PeerDisconnected, "read", err)
			s.disconnect(gen, true, &event{StatusPeerDisconnected, serr.Error()})
			return

		case err != nil:
			// A close we initiated advances gen first, so getting here
			// means the link itself failed.
			serr := rferr.NewSession(rferr.TransportError, "read", err)
			s.metrics.RecordError(serr.Error())
			s.logger.Warn("%v", serr)
			s.disconnect(gen, true, &event{StatusTransportError, serr.Error()})
			return

		case n == 0:
			time.Sleep(s.poll)

		default:
			s.deliver(gen, buf[:n])
		}
	}
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// deliver decodes one chunk and hands it to the sink, unless the loop
// has been superseded or the chunk is our own echo.
func (s *Session) deliver(gen uint64, chunk []byte) {
	msg := message.Decode(chunk)

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	live := s.gen == gen
	self, sink := s.identity, s.sink
	s.mu.Unlock()

	if !live {
		return
	}
	if msg.Sender == self {
		s.metrics.EchoSuppressed(len(chunk))
		s.logger.Debug("dropping echo of own message")
		return
	}

	s.metrics.MessageReceived(len(chunk))
	s.history.Append(msg.Sender, msg.Body)
	sink.OnMessage(msg.Sender, msg.Body)
}
