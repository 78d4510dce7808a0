package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// pumpChunk is the read size for streams drained by a pump.
const pumpChunk = 512

// pump bounds reads on connections that cannot take a read deadline.
// One goroutine owns the blocking reads and read waits on its channel
// with a timer instead.
type pump struct {
	in    chan []byte
	done  chan struct{}
	isEOF func(error) bool

	pending []byte // rest of a chunk larger than the caller's buffer

	errMu   sync.Mutex
	readErr error

	stopOnce sync.Once
}

// startPump runs next until it fails.  isEOF reports which of its
// errors mean the peer hung up.
func startPump(next func() ([]byte, error), isEOF func(error) bool) *pump {
	p := &pump{
		in:    make(chan []byte),
		done:  make(chan struct{}),
		isEOF: isEOF,
	}
	go p.run(next)
	return p
}

func (p *pump) run(next func() ([]byte, error)) {
	defer close(p.in)
	for {
		data, err := next()
		if len(data) > 0 {
			select {
			case p.in <- data:
			case <-p.done:
				return
			}
		}
		if err != nil {
			p.errMu.Lock()
			p.readErr = err
			p.errMu.Unlock()
			return
		}
	}
}

func (p *pump) read(b []byte, window time.Duration) (int, error) {
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}

	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case data, ok := <-p.in:
		if !ok {
			return 0, p.terminalErr()
		}
		n := copy(b, data)
		p.pending = data[n:]
		return n, nil
	case <-timer.C:
		return 0, nil
	case <-p.done:
		return 0, net.ErrClosed
	}
}

// terminalErr maps the final read error.  After stop it is always
// net.ErrClosed.
func (p *pump) terminalErr() error {
	select {
	case <-p.done:
		return net.ErrClosed
	default:
	}

	p.errMu.Lock()
	err := p.readErr
	p.errMu.Unlock()

	if p.isEOF(err) {
		return io.EOF
	}
	return err
}

func (p *pump) stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// streamLink is a net.Conn drained by a pump.  Channels forwarded over
// an SSH gateway refuse read deadlines and land here.
type streamLink struct {
	*pump
	conn net.Conn
}

func newStreamLink(conn net.Conn) *streamLink {
	return &streamLink{
		conn: conn,
		pump: startPump(func() ([]byte, error) {
			buf := make([]byte, pumpChunk)
			n, err := conn.Read(buf)
			return buf[:n], err
		}, func(err error) bool { return errors.Is(err, io.EOF) }),
	}
}

func (l *streamLink) write(p []byte) error {
	_, err := l.conn.Write(p)
	return err
}

func (l *streamLink) close() error {
	l.stop()
	return l.conn.Close()
}

func (l *streamLink) remote() string { return l.conn.RemoteAddr().String() }

// newConnLink picks the link for conn: read deadlines when the conn
// supports them, a pump otherwise.
func newConnLink(conn net.Conn) link {
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return newStreamLink(conn)
	}
	return &netLink{conn: conn}
}
