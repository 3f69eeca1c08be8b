package netmetrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/softdrink117/go-netdimm/internal/netlog"
)

// ByteSource reports a monotonically increasing count of bytes sent over
// the life of one upload.
type ByteSource interface {
	TotalBytes() uint64
}

// Throughput samples a ByteSource on a fixed interval and derives bytes/sec
// over trailing 10s, 30s and 300s windows plus a lifetime average. A
// Client's single Send call rarely runs long enough to fill the 300s
// window, but Throughput is built to also track a long-lived batch loader
// driving the same Client repeatedly.
type Throughput interface {
	// Start begins the background sampling goroutine.
	Start()

	// BPS10s returns bytes/sec over the trailing 10 second window.
	BPS10s() float64
	// BPS30s returns bytes/sec over the trailing 30 second window.
	BPS30s() float64
	// BPS300s returns bytes/sec over the trailing 300 second window.
	BPS300s() float64
	// Average returns the lifetime average bytes/sec since Start.
	Average() float64

	// Close stops sampling. A closed Throughput must not be reused.
	Close() error
}

type window struct {
	bps        float64
	totalBytes uint64
	lastSample time.Time
	interval   time.Duration
}

func (w *window) initialize(now time.Time, total uint64) {
	w.totalBytes = total
	w.lastSample = now
}

func (w *window) sample(now time.Time, total uint64) bool {
	if w.lastSample.Add(w.interval).After(now) {
		return false
	}

	diff := int64(total - w.totalBytes)
	w.totalBytes = total
	w.lastSample = now
	if diff <= 0 {
		w.bps = 0
		return true
	}

	ms := int64(w.interval / time.Millisecond)
	w.bps = float64(diff) * 1000 / float64(ms)
	return true
}

var errThroughputClosed = fmt.Errorf("throughput tracker closed")

type throughput struct {
	source ByteSource

	lock    sync.Mutex
	closed  bool
	started bool

	w10s, w30s, w300s window

	firstTotal uint64
	start      time.Time
}

// NewThroughput builds a Throughput sampling src every 10 seconds.
func NewThroughput(src ByteSource) Throughput {
	t := &throughput{source: src}
	t.w10s.interval = 10 * time.Second
	t.w30s.interval = 30 * time.Second
	t.w300s.interval = 300 * time.Second
	return t
}

func (t *throughput) Start() {
	t.lock.Lock()
	t.started = true
	t.start = time.Now()
	t.firstTotal = t.source.TotalBytes()
	t.lock.Unlock()

	go t.run()
}

func (t *throughput) run() {
	for {
		time.Sleep(10 * time.Second)
		if err := t.sampleOnce(); err != nil {
			if err == errThroughputClosed {
				return
			}
			netlog.Warn.Println(nil, "throughput sample failed, err is", err)
		}
	}
}

func (t *throughput) sampleOnce() error {
	defer func() {
		if r := recover(); r != nil {
			netlog.Warn.Println(nil, "recover throughput sampler from", r)
		}
	}()

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return errThroughputClosed
	}

	now := time.Now()
	total := t.source.TotalBytes()

	if t.w10s.lastSample.IsZero() {
		t.w10s.initialize(now, total)
		t.w30s.initialize(now, total)
		t.w300s.initialize(now, total)
		return nil
	}

	t.w10s.sample(now, total)
	t.w30s.sample(now, total)
	t.w300s.sample(now, total)
	return nil
}

func (t *throughput) BPS10s() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.w10s.bps
}

func (t *throughput) BPS30s() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.w30s.bps
}

func (t *throughput) BPS300s() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.w300s.bps
}

func (t *throughput) Average() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.started {
		return 0
	}
	elapsedMs := int64(time.Since(t.start) / time.Millisecond)
	if elapsedMs <= 0 {
		return 0
	}
	diff := int64(t.source.TotalBytes() - t.firstTotal)
	if diff <= 0 {
		return 0
	}
	return float64(diff) * 1000 / float64(elapsedMs)
}

func (t *throughput) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.closed = true
	t.started = false
	return nil
}
