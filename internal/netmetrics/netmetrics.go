// Package netmetrics provides optional Prometheus instrumentation for a
// NetDIMM session's TCP connection, modeled on
// runZeroInc's go-tcpinfo TCPInfoCollector: it tracks the connection(s)
// for the lifetime of a facade operation and reports byte/chunk counters
// plus (on Linux) live TCP_INFO samples (RTT, retransmits) pulled through
// the connection's raw fd.
//
// Instrumentation is entirely optional. A Collector with no Registerer
// wired in (the default) does no work beyond bookkeeping a handful of
// counters in memory.
package netmetrics

import (
	"net"
	"sync"

	"github.com/higebu/netfd"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector is a prometheus.Collector tracking the NetDIMM connections
// currently open. One Collector is shared across all sessions created by a
// single facade instance.
type Collector struct {
	mu    sync.Mutex
	conns map[net.Conn]*connState

	bytesSent   *prometheus.Desc
	chunksSent  *prometheus.Desc
	rtt         *prometheus.Desc
	retransmits *prometheus.Desc
}

type connState struct {
	fd         int
	sessionID  string
	bytesSent  uint64
	chunksSent uint64
}

// New builds a Collector. constLabels are attached to every metric it
// reports (e.g. a target/firmware pair).
func New(constLabels prometheus.Labels) *Collector {
	variableLabels := []string{"session"}
	return &Collector{
		conns:       make(map[net.Conn]*connState),
		bytesSent:   prometheus.NewDesc("netdimm_upload_bytes_sent", "Bytes sent to the NetDIMM so far in this session.", variableLabels, constLabels),
		chunksSent:  prometheus.NewDesc("netdimm_upload_chunks_sent", "Upload chunks sent to the NetDIMM so far in this session.", variableLabels, constLabels),
		rtt:         prometheus.NewDesc("netdimm_tcp_rtt_microseconds", "Smoothed round-trip time of the NetDIMM connection, from TCP_INFO.", variableLabels, constLabels),
		retransmits: prometheus.NewDesc("netdimm_tcp_retransmits_total", "Retransmitted segments on the NetDIMM connection, from TCP_INFO.", variableLabels, constLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.bytesSent
	descs <- c.chunksSent
	descs <- c.rtt
	descs <- c.retransmits
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, st := range c.conns {
		labels := []string{st.sessionID}
		metrics <- prometheus.MustNewConstMetric(c.bytesSent, prometheus.CounterValue, float64(st.bytesSent), labels...)
		metrics <- prometheus.MustNewConstMetric(c.chunksSent, prometheus.CounterValue, float64(st.chunksSent), labels...)

		if info, err := getTCPInfo(st.fd); err == nil {
			metrics <- prometheus.MustNewConstMetric(c.rtt, prometheus.GaugeValue, float64(info.RTTMicros), labels...)
			metrics <- prometheus.MustNewConstMetric(c.retransmits, prometheus.CounterValue, float64(info.Retransmits), labels...)
		}
	}
}

// Track registers conn for instrumentation under sessionID. Call Untrack
// when the session's socket is closed.
func (c *Collector) Track(conn net.Conn, sessionID string) {
	if c == nil || conn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[conn] = &connState{fd: netfd.GetFdFromConn(conn), sessionID: sessionID}
}

// Untrack removes conn from instrumentation.
func (c *Collector) Untrack(conn net.Conn) {
	if c == nil || conn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, conn)
}

// AddBytes records n additional bytes sent over conn.
func (c *Collector) AddBytes(conn net.Conn, n int) {
	if c == nil || conn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.conns[conn]; ok {
		st.bytesSent += uint64(n)
	}
}

// AddChunk records one additional upload chunk sent over conn.
func (c *Collector) AddChunk(conn net.Conn) {
	if c == nil || conn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.conns[conn]; ok {
		st.chunksSent++
	}
}
