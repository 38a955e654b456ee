package socket

import (
	"net/http"

	"golang.org/x/net/websocket"
	"verigate.github.io/pulse/envelope"
)

// Conn wraps one bidirectional channel. Implementations redial on every
// Dial call, dropping whatever connection they held before.
type Conn interface {
	Dial() error
	Close() error
	ReadEnvelope() (envelope.Envelope, error)
	WriteEnvelope(e envelope.Envelope) error
}

// Dialer builds the Conn a socket uses. Tests substitute their own.
type Dialer func(url string, header http.Header) Conn

type wsConn struct {
	url    string
	header http.Header
	conn   *websocket.Conn
}

func newWSConn(url string, header http.Header) Conn {
	return &wsConn{url: url, header: header}
}

func (c *wsConn) Dial() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	config, err := websocket.NewConfig(c.url, originOf(c.url))
	if err != nil {
		return err
	}
	if c.header != nil {
		config.Header = c.header
	}
	ws, err := websocket.DialConfig(config)
	if err != nil {
		return err
	}
	c.conn = ws
	return nil
}

func (c *wsConn) Close() error {
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *wsConn) ReadEnvelope() (envelope.Envelope, error) {
	var data []byte
	if err := websocket.Message.Receive(c.conn, &data); err != nil {
		return envelope.Envelope{}, err
	}
	return envelope.Decode(data)
}

func (c *wsConn) WriteEnvelope(e envelope.Envelope) error {
	data, err := envelope.Encode(e)
	if err != nil {
		return err
	}
	return websocket.Message.Send(c.conn, data)
}

// originOf derives the handshake origin from a ws:// or wss:// URL.
func originOf(url string) string {
	switch {
	case len(url) > 6 && url[:6] == "wss://":
		return "https://" + hostOf(url[6:])
	case len(url) > 5 && url[:5] == "ws://":
		return "http://" + hostOf(url[5:])
	default:
		return url
	}
}

func hostOf(rest string) string {
	for i := range len(rest) {
		if rest[i] == '/' {
			return rest[:i]
		}
	}
	return rest
}
