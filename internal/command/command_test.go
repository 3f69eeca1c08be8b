package command

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softdrink117/go-netdimm/internal/frame"
	"github.com/softdrink117/go-netdimm/internal/neterr"
	"github.com/softdrink117/go-netdimm/internal/testutil"
	"github.com/softdrink117/go-netdimm/internal/types"
)

func le16(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }
func le32(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }

func TestGetInfoDecodesReply(t *testing.T) {
	// spec.md §8 scenario 1.
	payload := append(append(append(append(
		le16(0x1234),
		le16(0x030C)...),
		le16(0x0100)...),
		le16(0x0200)...),
		le32(0xEFBEADDE)...)

	sender := &testutil.MemorySender{}
	sender.QueueReply(frame.Packet{ID: 0x18, Payload: payload})

	info, err := GetInfo(sender)
	require.NoError(t, err)
	require.Equal(t, types.FirmwareUnknown, info.FirmwareVersion)
	require.Equal(t, uint16(0x0200), info.DimmMemoryMB)
	require.Equal(t, uint32(0x0100)<<20, info.AvailableGameMemory)
	require.Equal(t, uint32(0xEFBEADDE), info.CurrentGameCRC)
	require.Equal(t, uint16(0x1234), info.Unknown)

	require.Len(t, sender.Sent, 1)
	require.Equal(t, uint8(0x18), sender.Sent[0].ID)
}

func TestGetInfoMismatchedReplyIsProtocolError(t *testing.T) {
	// spec.md §8 scenario 6.
	sender := &testutil.MemorySender{}
	sender.QueueReply(frame.Packet{ID: 0x19})

	_, err := GetInfo(sender)
	require.Error(t, err)

	var nerr *neterr.Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, neterr.Protocol, nerr.Kind)
}

func TestExchangeHostModeQueryIsIdempotent(t *testing.T) {
	// spec.md §8 P6: mask=0xFF, set=0x00 is a pure query.
	sender := &testutil.MemorySender{}
	sender.QueueReply(frame.Packet{ID: 0x07, Payload: le32(7)})

	mode, err := ExchangeHostMode(sender, 0xFF, 0x00)
	require.NoError(t, err)
	require.Equal(t, uint8(7), mode)

	require.Len(t, sender.Sent, 1)
	sent := binary.LittleEndian.Uint32(sender.Sent[0].Payload)
	require.Equal(t, uint32(0xFF00), sent) // mask<<8 | set
}

func TestExchangeHostModeSet(t *testing.T) {
	sender := &testutil.MemorySender{}
	sender.QueueReply(frame.Packet{ID: 0x07, Payload: le32(1)})

	mode, err := ExchangeHostMode(sender, 0x00, 1)
	require.NoError(t, err)
	require.Equal(t, uint8(1), mode)
}

func TestUploadChunkFlagsAndLastChunk(t *testing.T) {
	sender := &testutil.MemorySender{}
	require.NoError(t, UploadChunk(sender, 1, 0, []byte{1, 2, 3}, false))
	require.NoError(t, UploadChunk(sender, 2, 3, []byte{4, 5, 6}, true))

	require.Equal(t, uint8(0x80), sender.Sent[0].Flags)
	require.Equal(t, uint8(0x81), sender.Sent[1].Flags)
}

func TestDownloadReassemblesStream(t *testing.T) {
	sender := &testutil.MemorySender{}
	first := append(append(le32(1), le32(0)...), le16(0)...)
	first = append(first, []byte("hello")...)
	second := append(append(le32(2), le32(5)...), le16(0)...)
	second = append(second, []byte("world")...)

	sender.QueueReply(frame.Packet{ID: 0x04, Flags: 0x00, Payload: first})
	sender.QueueReply(frame.Packet{ID: 0x04, Flags: 0x01, Payload: second})

	data, err := Download(sender, 0, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("helloworld"), data)
}

func TestDownloadRejectsShortPayload(t *testing.T) {
	sender := &testutil.MemorySender{}
	sender.QueueReply(frame.Packet{ID: 0x04, Flags: 0x01, Payload: make([]byte, 5)})

	_, err := Download(sender, 0, 10)
	require.Error(t, err)
}

func TestHostPokeWirePayload(t *testing.T) {
	sender := &testutil.MemorySender{}
	require.NoError(t, HostPoke(sender, 0x8000CC6C, 0x4E800020))

	require.Equal(t, uint8(0x11), sender.Sent[0].ID)
	require.Equal(t, uint32(0x8000CC6C), binary.LittleEndian.Uint32(sender.Sent[0].Payload[0:4]))
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(sender.Sent[0].Payload[4:8]))
	require.Equal(t, uint32(0x4E800020), binary.LittleEndian.Uint32(sender.Sent[0].Payload[8:12]))
}
