package app

import (
	"context"
	"sync"
)

// Loop is a single-goroutine task queue. Everything posted to one Loop runs
// sequentially, so state touched only from its tasks needs no locking.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks in order until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.done:
			return
		case task := <-l.tasks:
			select {
			case <-l.done:
				return
			default:
			}
			task()
		}
	}
}

// Post enqueues fn. It reports false when the loop has been stopped.
// Post blocks while the queue is full, so it must not be called from a task
// on the same loop with a saturated buffer.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Stop makes Run return and rejects further posts. Safe to call repeatedly.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
