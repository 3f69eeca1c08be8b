package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/softdrink117/go-netdimm/internal/frame"
	"github.com/softdrink117/go-netdimm/internal/stream"
	"github.com/softdrink117/go-netdimm/internal/testutil"
)

func TestOpenSendsStartupPacket(t *testing.T) {
	dev, err := testutil.NewFakeDevice()
	require.NoError(t, err)
	defer dev.Close()

	done := make(chan frame.Packet, 1)
	go func() {
		conn, err := dev.Accept()
		require.NoError(t, err)
		defer conn.Close()
		p, err := conn.ReadPacket()
		require.NoError(t, err)
		done <- p
	}()

	dial := func(ip string) (*stream.Stream, error) { return stream.DialAddr(dev.Addr()) }
	sess, err := Open(dial, "127.0.0.1", true)
	require.NoError(t, err)
	defer sess.Close()

	startup := <-done
	require.Equal(t, uint8(0x01), startup.ID)
	require.Equal(t, uint8(0x00), startup.Flags)
	require.Empty(t, startup.Payload)
}

func TestOpenReturnsSessionOnDialFailureForSafeClose(t *testing.T) {
	dial := func(ip string) (*stream.Stream, error) {
		return nil, errDial
	}
	sess, err := Open(dial, "127.0.0.1", true)
	require.Error(t, err)
	require.NotNil(t, sess)
	require.NoError(t, sess.Close()) // must not panic on a never-connected session
	require.NoError(t, sess.Close()) // idempotent
}

var errDial = &dialErr{}

type dialErr struct{}

func (e *dialErr) Error() string { return "dial failed" }
