package stream

import (
	"net"

	"github.com/softdrink117/go-netdimm/internal/neterr"
)

// DialAddr dials a literal host:port address instead of the conventional
// ip:Port pairing Dial uses. It exists for test harnesses that bind a fake
// NetDIMM to an ephemeral port (see internal/testutil) and otherwise shares
// Dial's timeout and TCP_NODELAY behavior.
func DialAddr(addr string) (*Stream, error) {
	conn, err := net.DialTimeout("tcp4", addr, connectTimeout)
	if err != nil {
		return nil, neterr.Wrap(neterr.Connection, "dial", err)
	}
	s := &Stream{conn: conn}
	tuneNoDelay(conn)
	return s, nil
}
