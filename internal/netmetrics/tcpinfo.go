package netmetrics

import "errors"

// errUnsupported is returned by getTCPInfo on platforms or kernels that
// can't supply TCP_INFO the way this package expects. Collect treats it as
// "no live TCP metrics this round", not a fatal error.
var errUnsupported = errors.New("netmetrics: TCP_INFO unsupported on this platform/kernel")
