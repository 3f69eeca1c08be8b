//go:build linux || darwin

package stream

import (
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"

	"github.com/softdrink117/go-netdimm/internal/netlog"
)

// tuneNoDelay disables Nagle's algorithm on conn. Upload and command traffic
// is a stream of small, unacknowledged writes (§4.5/§5) so batching small
// writes only adds latency; this is best-effort and never fails the dial.
func tuneNoDelay(conn net.Conn) {
	fd := netfd.GetFdFromConn(conn)
	if fd < 0 {
		return
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		netlog.Warn.Println(nil, "stream: could not set TCP_NODELAY:", err)
	}
}
