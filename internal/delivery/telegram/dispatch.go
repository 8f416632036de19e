package telegram

import "sync"

// eventDispatcher runs the quiz updates of each user in order on a goroutine
// of their own, so session timers and the update loop never wait on Telegram.
type eventDispatcher struct {
	mu      sync.Mutex
	queues  map[int64][]func()
	running map[int64]bool
	wg      sync.WaitGroup
}

func newEventDispatcher() *eventDispatcher {
	return &eventDispatcher{
		queues:  make(map[int64][]func()),
		running: make(map[int64]bool),
	}
}

// dispatch queues fn behind the pending work of userID.
func (d *eventDispatcher) dispatch(userID int64, fn func()) {
	d.wg.Add(1)

	d.mu.Lock()
	d.queues[userID] = append(d.queues[userID], fn)
	if d.running[userID] {
		d.mu.Unlock()
		return
	}
	d.running[userID] = true
	d.mu.Unlock()

	go d.drain(userID)
}

func (d *eventDispatcher) drain(userID int64) {
	for {
		d.mu.Lock()
		queue := d.queues[userID]
		if len(queue) == 0 {
			delete(d.queues, userID)
			delete(d.running, userID)
			d.mu.Unlock()
			return
		}
		fn := queue[0]
		queue[0] = nil
		d.queues[userID] = queue[1:]
		d.mu.Unlock()

		fn()
		d.wg.Done()
	}
}

// wait blocks until every queued update has run.
func (d *eventDispatcher) wait() {
	d.wg.Wait()
}
