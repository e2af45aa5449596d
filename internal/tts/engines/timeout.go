package engines

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// idleReader bounds every Read on a response body: if no data arrives
// within timeout, the request context is cancelled, which unblocks the
// pending Read with an error.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	cancel  func()

	mu    sync.Mutex
	timer *time.Timer
	fired atomic.Bool
}

func newIdleReader(r io.Reader, timeout time.Duration, cancel func()) *idleReader {
	return &idleReader{
		r:       r,
		timeout: timeout,
		cancel:  cancel,
	}
}

// Read arms the timer, reads once, and disarms it again.
func (ir *idleReader) Read(p []byte) (int, error) {
	ir.arm()
	n, err := ir.r.Read(p)
	ir.disarm()
	return n, err
}

func (ir *idleReader) arm() {
	if ir.timeout <= 0 {
		return
	}
	ir.mu.Lock()
	defer ir.mu.Unlock()

	if ir.timer == nil {
		ir.timer = time.AfterFunc(ir.timeout, ir.expire)
		return
	}
	ir.timer.Reset(ir.timeout)
}

func (ir *idleReader) disarm() {
	ir.mu.Lock()
	defer ir.mu.Unlock()
	if ir.timer != nil {
		ir.timer.Stop()
	}
}

func (ir *idleReader) expire() {
	ir.fired.Store(true)
	ir.cancel()
}

// timedOut reports whether the reader gave up on the body.
func (ir *idleReader) timedOut() bool {
	return ir.fired.Load()
}

func (ir *idleReader) stop() {
	ir.disarm()
}
