package voice

import (
	"sync"

	"flashvoice-backend/internal/logger"
)

// serialQueue runs tasks one at a time in submission order. A task posted
// while another is running (from a callback, a timer or another goroutine)
// waits its turn instead of running re-entrantly.
type serialQueue struct {
	log *logger.Logger

	mu      sync.Mutex
	tasks   []func()
	running bool
}

// post runs fn on the calling goroutine if the queue is idle. Otherwise fn is
// left for the goroutine currently draining the queue.
func (q *serialQueue) post(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.drain()
}

// call posts fn and returns once it has run. It must not be called from
// inside a task.
func (q *serialQueue) call(fn func()) {
	done := make(chan struct{})
	q.post(func() {
		defer close(done)
		fn()
	})
	<-done
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.run(fn)
	}
}

func (q *serialQueue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("voice task panicked", "panic", r)
		}
	}()
	fn()
}
