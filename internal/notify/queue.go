package notify

import (
	"sync"
	"time"

	"github.com/yildizm/mlstudio/internal/clock"
)

// DefaultTTL is how long a notification stays visible without dismissal
const DefaultTTL = 4000 * time.Millisecond

// Kind classifies a notification
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is a transient user-facing message
type Notification struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type entry struct {
	Notification
	timer clock.Timer
}

// Queue holds notifications in insertion order and expires each one independently
type Queue struct {
	mu       sync.Mutex
	clock    clock.Clock
	ttl      time.Duration
	nextID   uint64
	entries  []*entry
	listener func()
}

// NewQueue creates a queue. A nil clock uses wall time, a non-positive ttl uses DefaultTTL.
func NewQueue(clk clock.Clock, ttl time.Duration) *Queue {
	if clk == nil {
		clk = clock.Real()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{clock: clk, ttl: ttl}
}

// SetListener registers a callback invoked after every change to the queue
func (q *Queue) SetListener(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listener = fn
}

// Push appends a notification and schedules its removal
func (q *Queue) Push(message string, kind Kind) Notification {
	q.mu.Lock()
	q.nextID++
	e := &entry{Notification: Notification{
		ID:        q.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: q.clock.Now(),
	}}
	q.entries = append(q.entries, e)
	id := e.ID
	// scheduled under the lock so a zero ttl cannot fire before the timer is stored
	e.timer = q.clock.AfterFunc(q.ttl, func() { q.remove(id) })
	n := e.Notification
	q.mu.Unlock()

	q.notify()
	return n
}

// Success pushes a success notification
func (q *Queue) Success(message string) Notification {
	return q.Push(message, KindSuccess)
}

// Error pushes an error notification
func (q *Queue) Error(message string) Notification {
	return q.Push(message, KindError)
}

// Info pushes an info notification
func (q *Queue) Info(message string) Notification {
	return q.Push(message, KindInfo)
}

// Dismiss removes a notification immediately and cancels its pending expiry.
// It reports whether the notification was still present.
func (q *Queue) Dismiss(id uint64) bool {
	q.mu.Lock()
	e := q.take(id)
	q.mu.Unlock()

	if e == nil {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	q.notify()
	return true
}

// List returns a snapshot of the queue, oldest first
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Notification
	}
	return out
}

// Len returns the number of visible notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear dismisses every notification
func (q *Queue) Clear() {
	q.mu.Lock()
	entries := q.entries
	q.entries = nil
	q.mu.Unlock()

	for _, e := range entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	if len(entries) > 0 {
		q.notify()
	}
}

// remove is the expiry path; a notification already dismissed is ignored
func (q *Queue) remove(id uint64) {
	q.mu.Lock()
	e := q.take(id)
	q.mu.Unlock()

	if e != nil {
		q.notify()
	}
}

// take unlinks the entry with the given id. Caller holds q.mu.
func (q *Queue) take(id uint64) *entry {
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return e
		}
	}
	return nil
}

func (q *Queue) notify() {
	q.mu.Lock()
	fn := q.listener
	q.mu.Unlock()

	if fn != nil {
		fn()
	}
}
