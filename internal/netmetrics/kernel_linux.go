//go:build linux

package netmetrics

import (
	"github.com/docker/docker/pkg/parsers/kernel"

	"github.com/softdrink117/go-netdimm/internal/netlog"
)

// minKernel, minKernelMajor and minKernelMinor give the oldest kernel (3.0.0)
// this package will attempt TCP_INFO reads against. TCP_INFO itself is
// ancient (2.6). go-tcpinfo (the library this gating is adapted from) gates
// on 5.4 because several of the struct's later fields only exist from there
// on; this package reads only rtt and retransmits, so its gate is the lower
// 3.0.0.
const (
	minKernel      = 3
	minKernelMajor = 0
	minKernelMinor = 0
)

// tcpInfoSupported is resolved once at package init. Unlike go-tcpinfo,
// which panics on an unparseable or too-old kernel, this driver is a
// library callers import for other reasons too (info/send/reboot don't
// need metrics at all) — failing the whole import over an optional
// instrumentation feature would be hostile, so this degrades to "disabled"
// instead.
var tcpInfoSupported bool

func init() {
	version, err := kernel.GetKernelVersion()
	if err != nil {
		netlog.Warn.Println(nil, "netmetrics: could not determine kernel version, TCP_INFO metrics disabled:", err)
		return
	}

	if kernel.CompareKernelVersion(*version, kernel.VersionInfo{Kernel: minKernel, Major: minKernelMajor, Minor: minKernelMinor}) < 0 {
		netlog.Warn.Println(nil, "netmetrics: kernel older than required for TCP_INFO metrics, disabling")
		return
	}

	tcpInfoSupported = true
}
