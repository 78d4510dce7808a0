package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"rfchat/internal/device"
	rferr "rfchat/internal/errors"
	"rfchat/util"
)

// Supported device networks.
const (
	NetworkTCP = "tcp"
	NetworkWS  = "ws"
	NetworkWSS = "wss"
)

// NetProvider dials peers.  The channel selects the port as
// BasePort+channel on the device's host.
type NetProvider struct {
	Dialer           Dialer // used for tcp and as the websocket's net dialer
	ReadWindow       time.Duration
	HandshakeTimeout time.Duration
}

// Create implements [Provider].
func (p *NetProvider) Create(ref device.Ref, channel int) (Transport, error) {
	if ref.Host == "" {
		return nil, fmt.Errorf("device %q has no host", ref.Name)
	}
	addr := util.FormatAddr(ref.Host, util.ChannelPort(ref.BasePort, channel))
	dialer := p.Dialer
	if dialer == nil {
		dialer = &TCPDialer{Timeout: p.HandshakeTimeout}
	}

	switch networkOf(ref) {
	case NetworkTCP:
		return newHandle(func(ctx context.Context) (link, error) {
			conn, err := dialer.Dial(ctx, "tcp", addr)
			if err != nil {
				return nil, rferr.Wrap("dial", addr, err)
			}
			return newConnLink(conn), nil
		}, p.ReadWindow), nil

	case NetworkWS, NetworkWSS:
		u := url.URL{Scheme: ref.Network, Host: addr, Path: wsPath(ref)}
		wsd := &websocket.Dialer{
			NetDialContext:   dialer.Dial,
			HandshakeTimeout: p.HandshakeTimeout,
		}
		return newHandle(func(ctx context.Context) (link, error) {
			conn, resp, err := wsd.DialContext(ctx, u.String(), nil)
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}
			if err != nil {
				return nil, rferr.Wrap("dial", u.String(), err)
			}
			return newWSLink(conn), nil
		}, p.ReadWindow), nil

	default:
		return nil, &rferr.CapabilityError{Network: ref.Network, Err: rferr.ErrUnknownNetwork}
	}
}

// ListenProvider waits for one inbound peer instead of dialing.  The
// device reference supplies the bind host, base port and network.
type ListenProvider struct {
	ReadWindow time.Duration

	// OnListen, when set, is told the bound address as soon as the
	// listener is up.
	OnListen func(net.Addr)
}

// Create implements [Provider].
func (p *ListenProvider) Create(ref device.Ref, channel int) (Transport, error) {
	port := util.ChannelPort(ref.BasePort, channel)
	if port > 0 && port < 1024 && os.Geteuid() > 0 {
		return nil, &rferr.CapabilityError{
			Network:    ref.Network,
			Permission: true,
			Err:        fmt.Errorf("%w: port %d needs elevated privileges", rferr.ErrPermission, port),
		}
	}
	addr := util.FormatAddr(ref.Host, port)

	switch networkOf(ref) {
	case NetworkTCP:
		return newHandle(func(ctx context.Context) (link, error) {
			conn, err := acceptTCP(ctx, addr, p.OnListen)
			if err != nil {
				return nil, rferr.Wrap("accept", addr, err)
			}
			return newConnLink(conn), nil
		}, p.ReadWindow), nil

	case NetworkWS:
		return newHandle(func(ctx context.Context) (link, error) {
			conn, err := acceptWS(ctx, addr, wsPath(ref), p.OnListen)
			if err != nil {
				return nil, rferr.Wrap("accept", addr, err)
			}
			return newWSLink(conn), nil
		}, p.ReadWindow), nil

	default:
		return nil, &rferr.CapabilityError{Network: ref.Network, Err: rferr.ErrUnknownNetwork}
	}
}

func networkOf(ref device.Ref) string {
	if ref.Network == "" {
		return NetworkTCP
	}
	return ref.Network
}

func wsPath(ref device.Ref) string {
	if ref.Path == "" {
		return "/"
	}
	return ref.Path
}
