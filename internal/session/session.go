// Package session is the scoped resource around a Stream: it opens the TCP
// connection, sends the startup no-op older firmware requires, and
// guarantees the socket is released on every exit path. It is the only
// layer that knows about frame.Packet plus raw I/O; the command layer built
// on top only knows request/response contracts.
package session

import (
	"github.com/rs/xid"

	"github.com/softdrink117/go-netdimm/internal/frame"
	"github.com/softdrink117/go-netdimm/internal/neterr"
	"github.com/softdrink117/go-netdimm/internal/netlog"
	"github.com/softdrink117/go-netdimm/internal/stream"
)

const (
	packetStartup uint8 = 0x01
)

// Session owns one TCP connection to a NetDIMM for the duration of one
// facade operation (info/send/reboot/download).
type Session struct {
	id     xid.ID
	s      *stream.Stream
	quiet  bool
	closed bool
}

// Cid implements netlog.Context.
func (sess *Session) Cid() string {
	return sess.id.String()
}

// Dialer opens the transport a Session rides on. stream.Dial satisfies this
// signature; tests substitute a dialer pointed at internal/testutil's fake
// device instead.
type Dialer func(ip string) (*stream.Stream, error)

// Open dials ip via dial, then sends the startup no-op packet. Callers must
// defer sess.Close() regardless of the returned error: a partially-opened
// session (connect succeeded, startup write failed) still owns a socket
// that needs releasing.
func Open(dial Dialer, ip string, quiet bool) (*Session, error) {
	sess := &Session{id: xid.New(), quiet: quiet}

	s, err := dial(ip)
	if err != nil {
		return sess, err
	}
	sess.s = s

	if !quiet {
		netlog.Trace.Println(sess, "connected to", ip)
	}

	if err := sess.Send(frame.Packet{ID: packetStartup, Flags: 0x00}); err != nil {
		return sess, err
	}
	return sess, nil
}

// Send encodes and writes a single packet.
func (sess *Session) Send(p frame.Packet) error {
	if sess.s == nil {
		return neterr.New(neterr.Connection, "session.Send: no connection")
	}
	buf, err := frame.Encode(p)
	if err != nil {
		return neterr.Wrap(neterr.InvalidArgument, "session.Send", err)
	}
	return sess.s.WriteAll(buf)
}

// Recv reads a single packet: 4-byte header, then its declared payload.
func (sess *Session) Recv() (frame.Packet, error) {
	if sess.s == nil {
		return frame.Packet{}, neterr.New(neterr.Connection, "session.Recv: no connection")
	}

	header, err := sess.s.ReadExact(frame.HeaderSize)
	if err != nil {
		return frame.Packet{}, err
	}

	var hdr [frame.HeaderSize]byte
	copy(hdr[:], header)
	id, flags, length := frame.DecodeHeader(hdr)

	var payload []byte
	if length > 0 {
		payload, err = sess.s.ReadExact(int(length))
		if err != nil {
			return frame.Packet{}, err
		}
	}

	return frame.Packet{ID: id, Flags: flags, Payload: payload}, nil
}

// Stream exposes the underlying stream for internal/netmetrics instrumentation.
func (sess *Session) Stream() *stream.Stream {
	return sess.s
}

// Close releases the socket. Idempotent: safe to call multiple times and
// safe to call on a Session whose Open failed partway through.
func (sess *Session) Close() error {
	if sess.closed {
		return nil
	}
	sess.closed = true
	if sess.s == nil {
		return nil
	}
	if !sess.quiet {
		netlog.Trace.Println(sess, "closing session")
	}
	return sess.s.Close()
}
