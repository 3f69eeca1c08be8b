package testutil

import (
	"io"

	"github.com/softdrink117/go-netdimm/internal/frame"
)

// MemorySender is an in-memory stand-in for *session.Session, usable
// anywhere the command/upload/target packages only need something
// satisfying Send(frame.Packet) error / Recv() (frame.Packet, error). It
// records every packet sent and serves replies from a queue, letting a test
// assert on exact wire traffic without a real socket.
type MemorySender struct {
	Sent    []frame.Packet
	Replies []frame.Packet
}

// Send records p.
func (m *MemorySender) Send(p frame.Packet) error {
	m.Sent = append(m.Sent, p)
	return nil
}

// Recv pops the next queued reply, or io.EOF if none remain.
func (m *MemorySender) Recv() (frame.Packet, error) {
	if len(m.Replies) == 0 {
		return frame.Packet{}, io.EOF
	}
	r := m.Replies[0]
	m.Replies = m.Replies[1:]
	return r, nil
}

// QueueReply appends a canned reply.
func (m *MemorySender) QueueReply(p frame.Packet) {
	m.Replies = append(m.Replies, p)
}
