package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"rental-site/internal/clock"
)

type item struct {
	n     Notification
	timer clock.Timer
}

// Queue holds the active notifications of one session. Each notification
// owns a timer that dismisses it when its TTL elapses; dismissing it first
// stops the timer.
type Queue struct {
	mu              sync.Mutex
	clock           clock.Clock
	defaultDuration time.Duration
	items           []*item
	byID            map[string]*item
	closed          bool
}

type QueueOption func(*Queue)

func WithQueueClock(c clock.Clock) QueueOption {
	return func(q *Queue) { q.clock = c }
}

// WithDefaultDuration overrides DefaultDuration for this queue.
func WithDefaultDuration(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.defaultDuration = d
		}
	}
}

func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		clock:           clock.Real{},
		defaultDuration: DefaultDuration,
		byID:            make(map[string]*item),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Show appends a notification and returns its id. A non-positive duration
// uses the queue's default.
func (q *Queue) Show(in Input) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if in.Duration <= 0 {
		in.Duration = q.defaultDuration
	}

	it := &item{n: Notification{
		ID:        uuid.NewString(),
		Kind:      in.Kind,
		Title:     in.Title,
		Message:   in.Message,
		Duration:  in.Duration,
		CreatedAt: q.clock.Now(),
	}}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return it.n.ID, nil
	}
	q.items = append(q.items, it)
	q.byID[it.n.ID] = it
	it.timer = q.clock.AfterFunc(in.Duration, func() { q.expire(it) })
	return it.n.ID, nil
}

// Dismiss removes the notification with id and reports whether it was
// still active. Unknown or expired ids are ignored.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	it, ok := q.byID[id]
	if !ok {
		return false
	}
	if it.timer != nil {
		it.timer.Stop()
	}
	q.removeLocked(it)
	return true
}

// List returns a snapshot of the active notifications, oldest first.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, len(q.items))
	for i, it := range q.items {
		out[i] = it.n
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops every pending timer and drops all notifications. Show on a
// closed queue is accepted and discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.timer != nil {
			it.timer.Stop()
		}
	}
	q.items = nil
	q.byID = make(map[string]*item)
	q.closed = true
}

// expire runs from the TTL timer. It only removes the exact item it was
// armed for.
func (q *Queue) expire(it *item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if cur, ok := q.byID[it.n.ID]; ok && cur == it {
		q.removeLocked(it)
	}
}

func (q *Queue) removeLocked(it *item) {
	delete(q.byID, it.n.ID)
	for i, cur := range q.items {
		if cur == it {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}
