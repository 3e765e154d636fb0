package server

import "sync"

// Listener is notified of lifecycle changes and of errors that cannot be returned to a caller.
// Callbacks run on the goroutine that caused them, never while the server holds its lock.
// State changes are delivered one at a time in the order they happened, so a callback must
// not start or stop advertising itself; it may read State and Services.
type Listener interface {
	OnServerStateChanged(state ServerState, err error)
	OnInternalError(err error)
}

type nopListener struct{}

func (nopListener) OnServerStateChanged(ServerState, error) {}
func (nopListener) OnInternalError(error)                   {}

// callbackQueue hands out tickets in transition order and runs each ticket's callback
// only after every earlier one has returned
type callbackQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	next uint64
	done uint64
}

func newCallbackQueue() *callbackQueue {
	q := &callbackQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *callbackQueue) ticket() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.next
	q.next++
	return n
}

// run must be called exactly once for every ticket
func (q *callbackQueue) run(ticket uint64, fn func()) {
	q.mu.Lock()
	for q.done != ticket {
		q.cond.Wait()
	}
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.done++
		q.cond.Broadcast()
		q.mu.Unlock()
	}()
	fn()
}
