//go:build !linux && !darwin

package stream

import "net"

// tuneNoDelay is a no-op on platforms without the raw-fd access netfd
// provides; Go's net package has no portable TCP_NODELAY setter that also
// works with the plain net.Conn interface returned by net.DialTimeout.
func tuneNoDelay(conn net.Conn) {}
