package view

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the quiet period for free-text filter input.
const DefaultDebounce = 120 * time.Millisecond

// Debouncer coalesces bursts of calls: only the last function passed to
// Trigger runs, once the quiet period has elapsed without another Trigger.
type Debouncer struct {
	mu    sync.Mutex
	clock clockwork.Clock
	delay time.Duration
	timer clockwork.Timer
	gen   uint64
}

// NewDebouncer returns a Debouncer. A nil clock uses the real clock.
func NewDebouncer(clock clockwork.Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Trigger schedules fn, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Latest guards a stream of lookups where each new request supersedes the
// previous one: starting a request cancels the one in flight, and results
// of superseded requests are discarded.
type Latest struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// begin cancels the in-flight request and returns a context and token for
// the new one.
func (l *Latest) begin(parent context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.seq++
	l.cancel = cancel
	return ctx, l.seq
}

// end releases the request's context if it is still the current one and
// reports whether it was.
func (l *Latest) end(token uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.seq {
		return false
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return true
}

// RunLatest runs fn as the newest request on l. ok is false when a later
// request superseded this one; the result must then be ignored.
func RunLatest[T any](ctx context.Context, l *Latest, fn func(ctx context.Context) (T, error)) (v T, ok bool, err error) {
	rctx, token := l.begin(ctx)
	v, err = fn(rctx)
	if !l.end(token) {
		var zero T
		return zero, false, nil
	}
	return v, true, err
}
