package netdimm

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softdrink117/go-netdimm/internal/frame"
	"github.com/softdrink117/go-netdimm/internal/session"
	"github.com/softdrink117/go-netdimm/internal/stream"
	"github.com/softdrink117/go-netdimm/internal/testutil"
)

func fakeDialer(t *testing.T, dev *testutil.FakeDevice) session.Dialer {
	t.Helper()
	return func(ip string) (*stream.Stream, error) {
		return stream.DialAddr(dev.Addr())
	}
}

func le32(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }
func le16(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }

func TestClientInfo(t *testing.T) {
	dev, err := testutil.NewFakeDevice()
	require.NoError(t, err)
	defer dev.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := dev.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()

		if _, err := conn.ExpectStartup(); err != nil {
			done <- err
			return
		}
		req, err := conn.ReadPacket()
		if err != nil {
			done <- err
			return
		}
		if req.ID != 0x18 {
			done <- err
			return
		}

		payload := append(append(append(append(
			le16(0),
			le16(0x0302)...),
			le16(0x0080)...),
			le16(0x0040)...),
			le32(0x11223344)...)

		done <- conn.WritePacket(frame.Packet{ID: 0x18, Payload: payload})
	}()

	client := New("127.0.0.1", withDialer(fakeDialer(t, dev)))
	info, err := client.Info()
	require.NoError(t, err)
	require.NoError(t, <-done)

	// version bytes 0x0302 decode to "3.02", not in the firmware enum.
	require.Equal(t, FirmwareUnknown, info.FirmwareVersion)
	require.Equal(t, uint16(0x0040), info.DimmMemoryMB)
	require.Equal(t, uint32(0x0080)<<20, info.AvailableGameMemory)
	require.Equal(t, uint32(0x11223344), info.CurrentGameCRC)
}

func TestClientSendRejectsEmptyPayload(t *testing.T) {
	client := New("127.0.0.1")
	err := client.Send(nil, nil, nil)
	require.Error(t, err)
}

func TestClientSendRejectsUnalignedKeyedPayload(t *testing.T) {
	client := New("127.0.0.1")
	key := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	err := client.Send([]byte{1, 2, 3}, &key, nil)
	require.Error(t, err)
}

func TestClientSendDrivesHostModeKeyAndUpload(t *testing.T) {
	dev, err := testutil.NewFakeDevice()
	require.NoError(t, err)
	defer dev.Close()

	data := []byte("abcdefgh") // one 8-byte chunk, well under ChunkSize

	done := make(chan error, 1)
	go func() {
		conn, err := dev.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()

		if _, err := conn.ExpectStartup(); err != nil {
			done <- err
			return
		}

		hostMode, err := conn.ReadPacket()
		if err != nil {
			done <- err
			return
		}
		if hostMode.ID != 0x07 {
			done <- errUnexpected(hostMode.ID, 0x07)
			return
		}
		if err := conn.WritePacket(frame.Packet{ID: 0x07, Payload: le32(1)}); err != nil {
			done <- err
			return
		}

		keyPkt, err := conn.ReadPacket()
		if err != nil {
			done <- err
			return
		}
		if keyPkt.ID != 0x7F {
			done <- errUnexpected(keyPkt.ID, 0x7F)
			return
		}

		chunkPkt, err := conn.ReadPacket()
		if err != nil {
			done <- err
			return
		}
		if chunkPkt.ID != 0x04 || chunkPkt.Flags != 0x81 {
			done <- errUnexpected(chunkPkt.ID, 0x04)
			return
		}

		setInfoPkt, err := conn.ReadPacket()
		if err != nil {
			done <- err
			return
		}
		if setInfoPkt.ID != 0x19 {
			done <- errUnexpected(setInfoPkt.ID, 0x19)
			return
		}

		done <- nil
	}()

	client := New("127.0.0.1", withDialer(fakeDialer(t, dev)))

	var progressed []int
	err = client.Send(data, nil, func(done, total int) {
		progressed = append(progressed, done)
	})
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.Equal(t, []int{0, 0}, progressed) // Send's own 0,len + upload's single chunk at offset 0
}

func TestClientRebootTriforce203PatchesBootID(t *testing.T) {
	dev, err := testutil.NewFakeDevice()
	require.NoError(t, err)
	defer dev.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := dev.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()

		if _, err := conn.ExpectStartup(); err != nil {
			done <- err
			return
		}

		restart, err := conn.ReadPacket()
		if err != nil || restart.ID != 0x0A {
			done <- errUnexpected(restart.ID, 0x0A)
			return
		}

		timeLimit, err := conn.ReadPacket()
		if err != nil || timeLimit.ID != 0x17 {
			done <- errUnexpected(timeLimit.ID, 0x17)
			return
		}

		for i := 0; i < 4; i++ {
			poke, err := conn.ReadPacket()
			if err != nil {
				done <- err
				return
			}
			if poke.ID != 0x11 {
				done <- errUnexpected(poke.ID, 0x11)
				return
			}
		}
		done <- nil
	}()

	client := New("127.0.0.1", WithTarget(TargetTriforce), WithFirmwareVersion(Firmware2_03), withDialer(fakeDialer(t, dev)))
	require.NoError(t, client.Reboot())
	require.NoError(t, <-done)
}

func TestClientGetInfoProtocolErrorOnMismatch(t *testing.T) {
	// spec.md §8 scenario 6.
	dev, err := testutil.NewFakeDevice()
	require.NoError(t, err)
	defer dev.Close()

	go func() {
		conn, err := dev.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.ExpectStartup()
		_, _ = conn.ReadPacket()
		_ = conn.WritePacket(frame.Packet{ID: 0x19})
	}()

	client := New("127.0.0.1", withDialer(fakeDialer(t, dev)))
	_, err = client.Info()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrProtocol)
}

type unexpectedIDError struct {
	got, want uint8
}

func (e *unexpectedIDError) Error() string {
	return "unexpected packet id"
}

func errUnexpected(got, want uint8) error {
	return &unexpectedIDError{got: got, want: want}
}
