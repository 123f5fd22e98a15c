package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies a notification for presentation.
type Type string

const (
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
)

// Notification is an ephemeral user-facing message reporting the outcome of
// a domain action.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Observer counts pushed notifications by type.
type Observer interface {
	ObserveNotification(kind string)
}

// Queue holds the pending notifications, newest first. Each entry carries
// its own expiry timer; dismissing an entry cancels its timer so no callback
// ever fires against removed state.
type Queue struct {
	mu       sync.Mutex
	ttl      time.Duration
	items    []Notification
	timers   map[string]*time.Timer
	observer Observer
}

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 5 * time.Second

// NewQueue creates a queue whose entries auto-expire after ttl. A
// non-positive ttl falls back to DefaultTTL.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// SetObserver attaches an optional metrics observer.
func (q *Queue) SetObserver(obs Observer) {
	q.mu.Lock()
	q.observer = obs
	q.mu.Unlock()
}

// Push adds a notification and schedules its expiry. Returns the new id.
func (q *Queue) Push(typ Type, message string) string {
	n := Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	q.mu.Lock()
	q.items = append([]Notification{n}, q.items...)
	q.timers[n.ID] = time.AfterFunc(q.ttl, func() {
		q.Dismiss(n.ID)
	})
	obs := q.observer
	q.mu.Unlock()

	if obs != nil {
		obs.ObserveNotification(string(typ))
	}
	return n.ID
}

// Success pushes a success notification.
func (q *Queue) Success(message string) string { return q.Push(TypeSuccess, message) }

// Warning pushes a warning notification.
func (q *Queue) Warning(message string) string { return q.Push(TypeWarning, message) }

// Error pushes an error notification.
func (q *Queue) Error(message string) string { return q.Push(TypeError, message) }

// Info pushes an info notification.
func (q *Queue) Info(message string) string { return q.Push(TypeInfo, message) }

// Dismiss removes a notification and cancels its expiry timer. Unknown ids
// are ignored; expiry and manual dismissal may race benignly.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// MarkRead flags a notification as read without removing it; the expiry
// timer keeps running regardless.
func (q *Queue) MarkRead(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Read = true
			return
		}
	}
}

// List returns a snapshot of the pending notifications, newest first.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Reset drops all notifications and cancels every timer.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}
