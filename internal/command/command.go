// Package command implements one operation per NetDIMM protocol packet
// type (§4.4): host/dimm mode exchange, key code, upload/download chunks,
// get/set info, restart, set time limit, and host memory poke. Every
// command that expects a reply validates the reply's packet id and payload
// length against the contract table in spec.md §4.4; a mismatch is a fatal
// ProtocolError.
package command

import (
	"encoding/binary"
	"fmt"

	"github.com/softdrink117/go-netdimm/internal/frame"
	"github.com/softdrink117/go-netdimm/internal/neterr"
	"github.com/softdrink117/go-netdimm/internal/types"
)

// Packet ids, named after their protocol role.
const (
	idUpload      uint8 = 0x04
	idDownload    uint8 = 0x05
	idExchangeHM  uint8 = 0x07
	idExchangeDM  uint8 = 0x08
	idClose       uint8 = 0x09
	idRestart     uint8 = 0x0A
	idHostPoke    uint8 = 0x11
	idSetTimeLim  uint8 = 0x17
	idGetInfo     uint8 = 0x18
	idSetInfo     uint8 = 0x19
	idKeyCode     uint8 = 0x7F
)

// sender is the subset of *session.Session the command layer depends on.
// Declared as an interface so command tests can drive a fake without a real
// socket.
type sender interface {
	Send(frame.Packet) error
	Recv() (frame.Packet, error)
}

func expectReply(sess sender, wantID uint8, wantLen int, op string) (frame.Packet, error) {
	reply, err := sess.Recv()
	if err != nil {
		return frame.Packet{}, err
	}
	if reply.ID != wantID {
		return frame.Packet{}, neterr.Wrap(neterr.Protocol, op,
			fmt.Errorf("unexpected reply packet id 0x%02X, want 0x%02X", reply.ID, wantID))
	}
	if wantLen >= 0 && len(reply.Payload) != wantLen {
		return frame.Packet{}, neterr.Wrap(neterr.Protocol, op,
			fmt.Errorf("unexpected reply length %d, want %d", len(reply.Payload), wantLen))
	}
	return reply, nil
}

func send(sess sender, id, flags uint8, payload []byte, op string) error {
	p, err := frame.New(id, flags, payload)
	if err != nil {
		return neterr.Wrap(neterr.InvalidArgument, op, err)
	}
	return sess.Send(p)
}

// HostPoke writes a 32-bit word to an absolute physical address on the host
// CPU's memory map. No reply.
func HostPoke(sess sender, addr, value uint32) error {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], addr)
	binary.LittleEndian.PutUint32(payload[4:8], 0)
	binary.LittleEndian.PutUint32(payload[8:12], value)
	return send(sess, idHostPoke, 0x00, payload, "command.HostPoke")
}

func exchangeMode(sess sender, id uint8, mask, set uint8, op string) (uint8, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, (uint32(mask&0xFF)<<8)|uint32(set&0xFF))
	if err := send(sess, id, 0x00, payload, op); err != nil {
		return 0, err
	}

	reply, err := expectReply(sess, id, 4, op)
	if err != nil {
		return 0, err
	}
	return uint8(binary.LittleEndian.Uint32(reply.Payload) & 0xFF), nil
}

// ExchangeHostMode performs a read-modify-write exchange of the device's
// host mode register: new = (old & mask) | set, returning new & 0xFF. Send
// mask=0x00 to set a mode unconditionally, mask=0xFF,set=0x00 to query.
func ExchangeHostMode(sess sender, mask, set uint8) (uint8, error) {
	return exchangeMode(sess, idExchangeHM, mask, set, "command.ExchangeHostMode")
}

// ExchangeDimmMode is the dimm-mode analogue of ExchangeHostMode. Its effect
// on device behavior is undocumented (spec.md's SUPPLEMENTED FEATURES); it
// is exposed for diagnostics through Client.ExchangeDimmMode, outside the
// three core operations (Info, Send, Reboot).
func ExchangeDimmMode(sess sender, mask, set uint8) (uint8, error) {
	return exchangeMode(sess, idExchangeDM, mask, set, "command.ExchangeDimmMode")
}

// SetKeyCode sends the 8-byte DES key code, or eight zero bytes (the "magic
// zero-key") to disable decryption. No reply.
func SetKeyCode(sess sender, key [8]byte) error {
	return send(sess, idKeyCode, 0x00, key[:], "command.SetKeyCode")
}

// UploadChunk sends one upload-file chunk. flags is 0x80 for every chunk
// except the last, which carries 0x81. No reply.
func UploadChunk(sess sender, seq, addr uint32, data []byte, last bool) error {
	payload := make([]byte, 10+len(data))
	binary.LittleEndian.PutUint32(payload[0:4], seq)
	binary.LittleEndian.PutUint32(payload[4:8], addr)
	binary.LittleEndian.PutUint16(payload[8:10], 0)
	copy(payload[10:], data)

	flags := uint8(0x80)
	if last {
		flags = 0x81
	}
	return send(sess, idUpload, flags, payload, "command.UploadChunk")
}

// Download requests size bytes starting at addr and reassembles the
// streamed 0x04 reply packets (each a 10-byte seq/addr/pad prefix plus
// data) until the low bit of a reply's flags marks the final packet.
func Download(sess sender, addr, size uint32) ([]byte, error) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], addr)
	binary.LittleEndian.PutUint32(payload[4:8], size)
	if err := send(sess, idDownload, 0x00, payload, "command.Download"); err != nil {
		return nil, err
	}

	var data []byte
	for {
		chunk, err := sess.Recv()
		if err != nil {
			return nil, err
		}
		if chunk.ID != idUpload {
			return nil, neterr.Wrap(neterr.Protocol, "command.Download",
				fmt.Errorf("unexpected reply packet id 0x%02X, want 0x%02X", chunk.ID, idUpload))
		}
		if len(chunk.Payload) <= 10 {
			return nil, neterr.Wrap(neterr.Protocol, "command.Download",
				fmt.Errorf("unexpected reply length %d, want > 10", len(chunk.Payload)))
		}

		data = append(data, chunk.Payload[10:]...)
		if chunk.Flags&0x01 != 0 {
			return data, nil
		}
	}
}

// GetInfo requests and decodes the 12-byte device info reply.
func GetInfo(sess sender) (types.DeviceInfo, error) {
	if err := send(sess, idGetInfo, 0x00, nil, "command.GetInfo"); err != nil {
		return types.DeviceInfo{}, err
	}

	reply, err := expectReply(sess, idGetInfo, 12, "command.GetInfo")
	if err != nil {
		return types.DeviceInfo{}, err
	}

	unknown := binary.LittleEndian.Uint16(reply.Payload[0:2])
	version := binary.LittleEndian.Uint16(reply.Payload[2:4])
	gameMemoryMB := binary.LittleEndian.Uint16(reply.Payload[4:6])
	dimmMemory := binary.LittleEndian.Uint16(reply.Payload[6:8])
	crc := binary.LittleEndian.Uint32(reply.Payload[8:12])

	versionStr := fmt.Sprintf("%d.%02d", (version>>8)&0xFF, version&0xFF)

	return types.DeviceInfo{
		CurrentGameCRC:      crc,
		DimmMemoryMB:        dimmMemory,
		FirmwareVersion:     types.ParseFirmwareVersion(versionStr),
		AvailableGameMemory: uint32(gameMemoryMB) << 20,
		Unknown:             unknown,
	}, nil
}

// SetInfo reports the final CRC and length of an uploaded image. No reply.
func SetInfo(sess sender, crc, length uint32) error {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], crc)
	binary.LittleEndian.PutUint32(payload[4:8], length)
	binary.LittleEndian.PutUint32(payload[8:12], 0)
	return send(sess, idSetInfo, 0x00, payload, "command.SetInfo")
}

// Restart reboots the host into the loaded game. No reply.
func Restart(sess sender) error {
	return send(sess, idRestart, 0x00, nil, "command.Restart")
}

// SetTimeLimit sets the boot time limit in minutes. The device clamps
// values >= 10 to a 60-second default. No reply.
func SetTimeLimit(sess sender, minutes uint32) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, minutes)
	return send(sess, idSetTimeLim, 0x00, payload, "command.SetTimeLimit")
}

// Close asks the device to stop listening for additional connections.
// Present for completeness (spec.md's wire table); never wired into the
// facade, matching the original implementation's own non-use of it. No
// reply.
func Close(sess sender) error {
	return send(sess, idClose, 0x00, nil, "command.Close")
}
