// Package testutil provides a scripted fake NetDIMM TCP server, grounded on
// the fake-device pattern used throughout the example corpus for exercising
// a driver without real hardware: a small listener that frames/deframes
// packets the same way the real protocol engine does, letting tests assert
// on exact bytes sent and queue canned replies.
package testutil

import (
	"net"

	"github.com/softdrink117/go-netdimm/internal/frame"
)

// FakeDevice is an in-process TCP server speaking the NetDIMM wire
// protocol. It accepts one connection at a time; call Accept once per
// facade operation under test, mirroring the real connection-per-operation
// model.
type FakeDevice struct {
	ln net.Listener
}

// NewFakeDevice binds to an ephemeral loopback port.
func NewFakeDevice() (*FakeDevice, error) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	return &FakeDevice{ln: ln}, nil
}

// Addr returns the host:port the device is listening on.
func (f *FakeDevice) Addr() string {
	return f.ln.Addr().String()
}

// Close stops accepting new connections.
func (f *FakeDevice) Close() error {
	return f.ln.Close()
}

// Accept waits for and wraps the next incoming connection.
func (f *FakeDevice) Accept() (*FakeConn, error) {
	conn, err := f.ln.Accept()
	if err != nil {
		return nil, err
	}
	return &FakeConn{conn: conn}, nil
}

// FakeConn is one accepted connection to a FakeDevice, with helpers to read
// and write raw frame.Packets for scripting a test scenario.
type FakeConn struct {
	conn net.Conn
}

// ReadPacket reads one frame.Packet off the connection.
func (c *FakeConn) ReadPacket() (frame.Packet, error) {
	var hdrBuf [frame.HeaderSize]byte
	if _, err := readFull(c.conn, hdrBuf[:]); err != nil {
		return frame.Packet{}, err
	}
	id, flags, length := frame.DecodeHeader(hdrBuf)

	var payload []byte
	if length > 0 {
		payload = make([]byte, length)
		if _, err := readFull(c.conn, payload); err != nil {
			return frame.Packet{}, err
		}
	}
	return frame.Packet{ID: id, Flags: flags, Payload: payload}, nil
}

// ExpectStartup reads and discards the session-open startup no-op packet
// (id 0x01) every real session sends first.
func (c *FakeConn) ExpectStartup() (frame.Packet, error) {
	return c.ReadPacket()
}

// WritePacket encodes and writes p to the connection.
func (c *FakeConn) WritePacket(p frame.Packet) error {
	buf, err := frame.Encode(p)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(buf)
	return err
}

// Close closes the connection.
func (c *FakeConn) Close() error {
	return c.conn.Close()
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
