// Package network provides listener helpers for the visitlog HTTP server.
package network

import (
	"bufio"
	"net"
	"net/http"
	"sync"
	"time"
)

// tlsRecordHandshake is the first byte of every TLS ClientHello.
const tlsRecordHandshake = 0x16

const sniffTimeout = 10 * time.Second

// AutoHttpsListener answers plain HTTP requests that reach a TLS port with a
// redirect to the https URL. TLS connections pass through untouched.
type AutoHttpsListener struct {
	net.Listener
}

// NewAutoHttpsListener wraps l. It must sit below tls.NewListener.
func NewAutoHttpsListener(l net.Listener) net.Listener {
	return &AutoHttpsListener{Listener: l}
}

func (l *AutoHttpsListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &sniffConn{Conn: conn, reader: bufio.NewReader(conn)}, nil
}

// sniffConn peeks the first byte of the stream on the first Read.
type sniffConn struct {
	net.Conn
	reader *bufio.Reader
	once   sync.Once
	err    error
}

func (c *sniffConn) Read(b []byte) (int, error) {
	c.once.Do(c.sniff)
	if c.err != nil {
		return 0, c.err
	}
	return c.reader.Read(b)
}

func (c *sniffConn) sniff() {
	_ = c.Conn.SetReadDeadline(time.Now().Add(sniffTimeout))
	first, err := c.reader.Peek(1)
	_ = c.Conn.SetReadDeadline(time.Time{})
	if err != nil || first[0] == tlsRecordHandshake {
		return
	}
	c.err = net.ErrClosed
	req, err := http.ReadRequest(c.reader)
	if err != nil {
		_ = c.Conn.Close()
		return
	}
	resp := &http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", "https://"+req.Host+req.RequestURI)
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
	_ = c.Conn.Close()
}
