// Package notify holds the transient toast notifications shown to the user.
//
// A Manager is owned by the application and handed to whoever needs to
// raise or render notifications. Notifications with a positive duration
// remove themselves once it elapses.
package notify

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/psichat/internal/metrics"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

const (
	// DefaultDuration is the lifetime of a notification unless overridden.
	DefaultDuration = 5 * time.Second
	// DefaultErrorDuration is the lifetime of error notifications.
	DefaultErrorDuration = 8 * time.Second
)

var defaultTitles = map[Kind]string{
	KindSuccess: "Success",
	KindError:   "Error",
	KindWarning: "Warning",
	KindInfo:    "Information",
}

// DefaultTitle returns the title used when none is given.
func DefaultTitle(kind Kind) string {
	return defaultTitles[kind]
}

// Notification is one visible toast.
type Notification struct {
	ID        uint64
	Kind      Kind
	Title     string
	Message   string
	CreatedAt time.Time
	// Duration of zero means the notification stays until removed.
	Duration time.Duration
}

// EventType says what happened to the list.
type EventType int

const (
	EventCreated EventType = iota
	EventRemoved
	EventCleared
)

// Event is delivered to subscribers after every change.
type Event struct {
	Type         EventType
	Notification Notification
}

// Timer is the handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Manager.
type Option func(*Manager)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithDefaults sets the default lifetimes for regular and error notifications.
func WithDefaults(regular, errorKind time.Duration) Option {
	return func(m *Manager) {
		m.defaultDuration = regular
		m.errorDuration = errorKind
	}
}

// WithMetrics counts created notifications.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithClock replaces time.Now for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager holds the ordered list of live notifications.
type Manager struct {
	mu        sync.Mutex
	nextID    uint64
	items     []Notification
	timers    map[uint64]Timer
	listeners map[uint64]func(Event)
	nextSub   uint64

	scheduler       Scheduler
	defaultDuration time.Duration
	errorDuration   time.Duration
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		timers:          make(map[uint64]Timer),
		listeners:       make(map[uint64]func(Event)),
		scheduler:       realScheduler{},
		defaultDuration: DefaultDuration,
		errorDuration:   DefaultErrorDuration,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateOption customizes a single notification.
type CreateOption func(*Notification)

// WithTitle overrides the default title.
func WithTitle(title string) CreateOption {
	return func(n *Notification) { n.Title = title }
}

// WithDuration overrides the default lifetime. Zero keeps the notification
// until it is removed.
func WithDuration(d time.Duration) CreateOption {
	return func(n *Notification) { n.Duration = d }
}

// Create appends a notification and returns its id.
func (m *Manager) Create(kind Kind, message string, opts ...CreateOption) uint64 {
	n := Notification{
		Kind:     kind,
		Title:    DefaultTitle(kind),
		Message:  message,
		Duration: m.defaultDuration,
	}
	if kind == KindError {
		n.Duration = m.errorDuration
	}
	for _, opt := range opts {
		opt(&n)
	}

	m.mu.Lock()
	m.nextID++
	n.ID = m.nextID
	n.CreatedAt = m.now()
	m.items = append(m.items, n)
	if n.Duration > 0 {
		id := n.ID
		m.timers[id] = m.scheduler.AfterFunc(n.Duration, func() { m.Remove(id) })
	}
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	m.metrics.RecordNotification(string(kind))
	notifyAll(listeners, Event{Type: EventCreated, Notification: n})
	return n.ID
}

// Success creates a success notification with the default title.
func (m *Manager) Success(message string, opts ...CreateOption) uint64 {
	return m.Create(KindSuccess, message, opts...)
}

// Error creates an error notification with the default title.
func (m *Manager) Error(message string, opts ...CreateOption) uint64 {
	return m.Create(KindError, message, opts...)
}

// Warning creates a warning notification with the default title.
func (m *Manager) Warning(message string, opts ...CreateOption) uint64 {
	return m.Create(KindWarning, message, opts...)
}

// Info creates an informational notification with the default title.
func (m *Manager) Info(message string, opts ...CreateOption) uint64 {
	return m.Create(KindInfo, message, opts...)
}

// Remove deletes a notification. Unknown ids are ignored.
func (m *Manager) Remove(id uint64) {
	m.mu.Lock()
	idx := -1
	for i, n := range m.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return
	}

	removed := m.items[idx]
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	notifyAll(listeners, Event{Type: EventRemoved, Notification: removed})
}

// Clear removes every notification and cancels pending expiries.
func (m *Manager) Clear() {
	m.mu.Lock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	m.items = nil
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	notifyAll(listeners, Event{Type: EventCleared})
}

// List returns the live notifications in creation order.
func (m *Manager) List() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Notification, len(m.items))
	copy(out, m.items)
	return out
}

// Subscribe registers fn for every change and returns a function that
// unregisters it. fn is called outside the manager's lock.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) snapshotListeners() []func(Event) {
	out := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		out = append(out, fn)
	}
	return out
}

func notifyAll(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
