//go:build linux

package netmetrics

import "golang.org/x/sys/unix"

// tcpInfo is the subset of Linux's tcp_info this package reports.
type tcpInfo struct {
	RTTMicros   uint32
	Retransmits uint32
}

// getTCPInfo reads TCP_INFO for fd via getsockopt, the same call
// runZeroInc's go-tcpinfo issues against a raw fd obtained from netfd. It is
// gated by tcpInfoSupported, set in kernel_linux.go, so it never fires a
// syscall on a kernel too old to carry the fields this package reads.
func getTCPInfo(fd int) (tcpInfo, error) {
	if !tcpInfoSupported || fd < 0 {
		return tcpInfo{}, errUnsupported
	}

	raw, err := unix.GetsockoptTCPInfo(fd, unix.IPPROTO_TCP, unix.TCP_INFO)
	if err != nil {
		return tcpInfo{}, err
	}

	return tcpInfo{
		RTTMicros:   raw.Rtt,
		Retransmits: uint32(raw.Retransmits),
	}, nil
}
