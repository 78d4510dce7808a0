package transport

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsCloseGrace = time.Second

// wsLink adapts a websocket connection to the bounded-read contract.
// gorilla/websocket treats a read deadline as fatal, so a pump owns
// ReadMessage.
type wsLink struct {
	*pump
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWSLink(conn *websocket.Conn) *wsLink {
	return &wsLink{
		conn: conn,
		pump: startPump(func() ([]byte, error) {
			_, data, err := conn.ReadMessage()
			return data, err
		}, isPeerClose),
	}
}

// isPeerClose reports whether err is a close frame or a dropped link
// from the peer.
func isPeerClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure)
}

func (l *wsLink) write(p []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.conn.WriteMessage(websocket.TextMessage, p)
}

func (l *wsLink) close() error {
	var err error
	l.closeOnce.Do(func() {
		l.stop()
		l.writeMu.Lock()
		l.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsCloseGrace))
		l.writeMu.Unlock()
		err = l.conn.Close()
	})
	return err
}

func (l *wsLink) remote() string { return l.conn.RemoteAddr().String() }

// acceptWS serves a single websocket upgrade on path and returns the
// first peer to complete it.  Later upgrades are refused.
func acceptWS(ctx context.Context, addr, path string, onListen func(net.Addr)) (*websocket.Conn, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	got := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case got <- c:
		default:
			c.Close()
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln) //nolint:errcheck
	defer srv.Close()

	if onListen != nil {
		onListen(ln.Addr())
	}

	select {
	case c := <-got:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
