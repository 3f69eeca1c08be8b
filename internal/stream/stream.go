// Package stream wraps a TCP connection to a NetDIMM with the guarantees the
// protocol engine depends on: a bounded connect, reads that block until
// exactly N bytes arrive (or fail), writes that retry until the whole buffer
// is sent, and an idempotent close that always runs on scope exit.
package stream

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/softdrink117/go-netdimm/internal/neterr"
)

// Port is the fixed TCP port NetDIMM devices listen on.
const Port = 10703

const (
	connectTimeout   = 1 * time.Second
	operationTimeout = 10 * time.Second
)

// Stream is a blocking, timeout-bounded TCP byte stream to a NetDIMM.
type Stream struct {
	conn net.Conn
}

// Dial opens an IPv4 TCP stream to ip:Port with a 1 second connect timeout,
// then raises the operational timeout to 10 seconds for all subsequent
// reads and writes. Best-effort tuning (TCP_NODELAY) is applied afterward;
// failures there are logged, not fatal.
func Dial(ip string) (*Stream, error) {
	conn, err := net.DialTimeout("tcp4", net.JoinHostPort(ip, strconv.Itoa(Port)), connectTimeout)
	if err != nil {
		return nil, neterr.Wrap(neterr.Connection, "dial", err)
	}

	s := &Stream{conn: conn}
	tuneNoDelay(conn)
	return s, nil
}

// ReadExact reads exactly n bytes, blocking across short reads, and fails
// rather than returning a short buffer.
func (s *Stream) ReadExact(n int) ([]byte, error) {
	if s.conn == nil {
		return nil, neterr.New(neterr.Connection, "read: not connected")
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(operationTimeout)); err != nil {
		return nil, neterr.Wrap(neterr.Connection, "read: set deadline", err)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return nil, neterr.Wrap(neterr.Connection, "read", err)
	}
	return buf, nil
}

// WriteAll writes the entire buffer, retrying on partial writes.
func (s *Stream) WriteAll(buf []byte) error {
	if s.conn == nil {
		return neterr.New(neterr.Connection, "write: not connected")
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(operationTimeout)); err != nil {
		return neterr.Wrap(neterr.Connection, "write: set deadline", err)
	}

	total := 0
	for total < len(buf) {
		n, err := s.conn.Write(buf[total:])
		if err != nil {
			return neterr.Wrap(neterr.Connection, "write", err)
		}
		total += n
	}
	return nil
}

// Conn exposes the underlying net.Conn for collaborators that need it for
// read-only introspection (internal/netmetrics's connection instrumentation).
// It must not be used to read, write, or close the stream directly.
func (s *Stream) Conn() net.Conn {
	return s.conn
}

// Close idempotently closes the underlying connection. Safe to call more
// than once and safe to call on a Stream whose Dial failed.
func (s *Stream) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return neterr.Wrap(neterr.Connection, "close", err)
	}
	return nil
}
