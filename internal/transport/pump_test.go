package transport

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// noDeadlineConn refuses read deadlines the way channels forwarded by
// an SSH client do.
type noDeadlineConn struct {
	net.Conn
}

func (noDeadlineConn) SetReadDeadline(time.Time) error {
	return errors.New("deadline not supported")
}

func streamPair(t *testing.T) (local link, remote net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	l := newConnLink(noDeadlineConn{a})
	if _, ok := l.(*streamLink); !ok {
		t.Fatalf("newConnLink = %T, want *streamLink", l)
	}
	t.Cleanup(func() {
		l.close()
		b.Close()
	})
	return l, b
}

func TestNewConnLink_DeadlineCapable(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	if l := newConnLink(a); !isNetLink(l) {
		t.Errorf("newConnLink = %T, want *netLink", l)
	}
}

func isNetLink(l link) bool {
	_, ok := l.(*netLink)
	return ok
}

func TestStreamLink_IdleReturnsZero(t *testing.T) {
	l, _ := streamPair(t)

	n, err := l.read(make([]byte, 16), 20*time.Millisecond)
	if n != 0 || err != nil {
		t.Errorf("idle read = (%d, %v), want (0, nil)", n, err)
	}
}

func TestStreamLink_Exchange(t *testing.T) {
	l, remote := streamPair(t)

	go remote.Write([]byte("bob hi"))
	buf := make([]byte, 512)
	n, err := l.read(buf, time.Second)
	if err != nil || string(buf[:n]) != "bob hi" {
		t.Fatalf("read = (%q, %v)", buf[:n], err)
	}

	got := make(chan string, 1)
	go func() {
		b := make([]byte, 512)
		n, _ := remote.Read(b)
		got <- string(b[:n])
	}()
	if err := l.write([]byte("alice hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if s := <-got; s != "alice hello" {
		t.Errorf("remote got %q", s)
	}
}

// A chunk larger than the caller's buffer is handed out over several
// reads.
func TestStreamLink_SplitsLargeChunk(t *testing.T) {
	l, remote := streamPair(t)

	go remote.Write([]byte("abcdef"))
	var out []byte
	buf := make([]byte, 4)
	for len(out) < 6 {
		n, err := l.read(buf, time.Second)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		out = append(out, buf[:n]...)
	}
	if string(out) != "abcdef" {
		t.Errorf("got %q", out)
	}
}

func TestStreamLink_PeerCloseIsEOF(t *testing.T) {
	l, remote := streamPair(t)
	remote.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, err := l.read(make([]byte, 16), 20*time.Millisecond)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("err = %v, want io.EOF", err)
			}
			return
		}
	}
	t.Fatal("never observed EOF")
}

func TestStreamLink_LocalCloseIsClosed(t *testing.T) {
	l, _ := streamPair(t)
	l.close()

	_, err := l.read(make([]byte, 16), time.Second)
	if !errors.Is(err, net.ErrClosed) {
		t.Errorf("err = %v, want net.ErrClosed", err)
	}
}
