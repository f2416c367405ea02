// SPDX-License-Identifier: EPL-2.0

package mixplayer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// relay carries end notifications from the audio thread to whichever
// goroutine drains it. Posting never blocks; the inbox channel is never
// closed, so a post racing abort is harmless.
type relay struct {
	inbox   chan struct{}
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Int64
	once    sync.Once
	log     *log.Logger

	mtx      sync.Mutex
	listener func()
	waiters  []chan struct{}
}

func newRelay(size int, logger *log.Logger) *relay {
	return &relay{
		inbox: make(chan struct{}, size),
		done:  make(chan struct{}),
		log:   logger,
	}
}

// post queues one notification. It reports false when the notification was
// dropped because the inbox is full or the relay is closed.
func (r *relay) post() bool {
	if r.closed.Load() {
		return false
	}

	select {
	case r.inbox <- struct{}{}:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// setListener replaces the single listener slot; nil empties it.
func (r *relay) setListener(fn func()) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.listener = fn
}

// deliver runs the listener for one drained notification and wakes
// goroutines blocked in wait. Drops counted by post are logged here, off the
// audio thread.
func (r *relay) deliver() {
	if n := r.dropped.Swap(0); n > 0 {
		r.log.Debug("end notifications dropped", "count", n, "reason", "inbox full")
	}

	r.mtx.Lock()
	fn := r.listener
	waiters := r.waiters
	r.waiters = nil
	r.mtx.Unlock()

	if fn != nil {
		fn()
	}
	for _, w := range waiters {
		close(w)
	}
}

// dispatch drains the inbox without blocking and returns how many
// notifications were delivered.
func (r *relay) dispatch() int {
	n := 0
	for !r.closed.Load() {
		select {
		case <-r.inbox:
			r.deliver()
			n++
		default:
			return n
		}
	}
	return n
}

// run drains until ctx is done or the relay is aborted.
func (r *relay) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.done:
			return nil
		case <-r.inbox:
			if r.closed.Load() {
				return nil
			}
			r.deliver()
		}
	}
}

// wait blocks until the next notification has been delivered, draining it
// itself when no other goroutine does.
func (r *relay) wait(ctx context.Context) error {
	w := make(chan struct{})
	r.mtx.Lock()
	r.waiters = append(r.waiters, w)
	r.mtx.Unlock()

	for {
		select {
		case <-w:
			return nil
		case <-ctx.Done():
			r.dropWaiter(w)
			return ctx.Err()
		case <-r.done:
			r.dropWaiter(w)
			return ErrClosed
		case <-r.inbox:
			if r.closed.Load() {
				return ErrClosed
			}
			r.deliver()
		}
	}
}

func (r *relay) dropWaiter(w chan struct{}) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for i, x := range r.waiters {
		if x == w {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}

// abort closes the relay. Later posts are dropped and drains stop.
func (r *relay) abort() {
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.done)

		r.mtx.Lock()
		r.listener = nil
		r.mtx.Unlock()
	})
}
