//go:build !linux

package netmetrics

// tcpInfo mirrors the linux-only type so Collect can stay platform-neutral.
type tcpInfo struct {
	RTTMicros   uint32
	Retransmits uint32
}

// getTCPInfo has no portable implementation outside Linux's getsockopt
// TCP_INFO; other platforms fall back to the byte/chunk counters only.
func getTCPInfo(fd int) (tcpInfo, error) {
	return tcpInfo{}, errUnsupported
}
