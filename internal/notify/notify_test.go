package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/psichat/internal/metrics"
)

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every pending timer whose duration is at most elapsed.
func (s *fakeScheduler) fire(elapsed time.Duration) {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && t.d <= elapsed {
			t.stopped = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func ids(list []Notification) []uint64 {
	out := make([]uint64, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestCreateDefaults(t *testing.T) {
	m := NewManager(WithScheduler(&fakeScheduler{}))

	tests := []struct {
		kind     Kind
		title    string
		duration time.Duration
	}{
		{KindSuccess, "Success", 5 * time.Second},
		{KindError, "Error", 8 * time.Second},
		{KindWarning, "Warning", 5 * time.Second},
		{KindInfo, "Information", 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			id := m.Create(tt.kind, "hello")
			var got Notification
			for _, n := range m.List() {
				if n.ID == id {
					got = n
				}
			}
			assert.Equal(t, tt.title, got.Title)
			assert.Equal(t, tt.duration, got.Duration)
			assert.Equal(t, "hello", got.Message)
			assert.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestIDsAreMonotonic(t *testing.T) {
	m := NewManager(WithScheduler(&fakeScheduler{}))

	a := m.Info("a")
	b := m.Success("b")
	m.Remove(b)
	c := m.Warning("c")

	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestCreateOptions(t *testing.T) {
	m := NewManager(WithScheduler(&fakeScheduler{}))

	m.Error("x", WithTitle("Custom"), WithDuration(0))

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Custom", list[0].Title)
	assert.Equal(t, time.Duration(0), list[0].Duration)
}

func TestExpiry(t *testing.T) {
	sched := &fakeScheduler{}
	m := NewManager(WithScheduler(sched))

	n1 := m.Success("saved")
	n2 := m.Error("failed")
	n3 := m.Info("sticky", WithDuration(0))

	assert.Equal(t, []uint64{n1, n2, n3}, ids(m.List()))

	sched.fire(5 * time.Second)
	assert.Equal(t, []uint64{n2, n3}, ids(m.List()))

	sched.fire(8 * time.Second)
	assert.Equal(t, []uint64{n3}, ids(m.List()))

	sched.fire(time.Hour)
	assert.Equal(t, []uint64{n3}, ids(m.List()), "zero duration never expires")
}

func TestExpiryWithRealTimer(t *testing.T) {
	m := NewManager()

	m.Info("short", WithDuration(20*time.Millisecond))
	m.Info("sticky", WithDuration(0))

	assert.Eventually(t, func() bool { return len(m.List()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "sticky", m.List()[0].Message)
}

func TestRemoveIsIdempotent(t *testing.T) {
	sched := &fakeScheduler{}
	m := NewManager(WithScheduler(sched))

	id := m.Success("x")
	m.Remove(id)
	m.Remove(id)
	m.Remove(9999)

	assert.Empty(t, m.List())
	require.Len(t, sched.timers, 1)
	assert.True(t, sched.timers[0].stopped, "early removal cancels the expiry")

	// A late expiry for an already removed id is harmless.
	sched.timers[0].fn()
	assert.Empty(t, m.List())
}

func TestClear(t *testing.T) {
	sched := &fakeScheduler{}
	m := NewManager(WithScheduler(sched))

	m.Success("a")
	m.Error("b")
	m.Clear()

	assert.Empty(t, m.List())
	for _, timer := range sched.timers {
		assert.True(t, timer.stopped)
	}

	id := m.Info("after clear")
	assert.Equal(t, uint64(3), id)
}

func TestSubscribe(t *testing.T) {
	m := NewManager(WithScheduler(&fakeScheduler{}))

	var events []Event
	unsubscribe := m.Subscribe(func(ev Event) { events = append(events, ev) })

	id := m.Warning("careful")
	m.Remove(id)
	m.Clear()

	require.Len(t, events, 3)
	assert.Equal(t, EventCreated, events[0].Type)
	assert.Equal(t, "careful", events[0].Notification.Message)
	assert.Equal(t, EventRemoved, events[1].Type)
	assert.Equal(t, id, events[1].Notification.ID)
	assert.Equal(t, EventCleared, events[2].Type)

	unsubscribe()
	m.Info("unseen")
	assert.Len(t, events, 3)
}

func TestSubscriberMayCallBack(t *testing.T) {
	m := NewManager(WithScheduler(&fakeScheduler{}))

	m.Subscribe(func(ev Event) {
		if ev.Type == EventCreated && ev.Notification.Kind == KindError {
			m.Remove(ev.Notification.ID)
		}
	})

	m.Error("dismissed immediately")
	assert.Empty(t, m.List())
}

func TestWithDefaultsAndMetrics(t *testing.T) {
	_, mt := metrics.NewRegistry()
	m := NewManager(
		WithScheduler(&fakeScheduler{}),
		WithDefaults(time.Second, 2*time.Second),
		WithMetrics(mt),
	)

	m.Info("a")
	m.Error("b")

	list := m.List()
	assert.Equal(t, time.Second, list[0].Duration)
	assert.Equal(t, 2*time.Second, list[1].Duration)
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.NotificationsCreated.WithLabelValues("error")))
}

func TestConcurrentCreate(t *testing.T) {
	m := NewManager(WithScheduler(&fakeScheduler{}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Info("x")
		}()
	}
	wg.Wait()

	list := m.List()
	require.Len(t, list, 50)
	seen := map[uint64]bool{}
	for i, n := range list {
		assert.False(t, seen[n.ID])
		seen[n.ID] = true
		if i > 0 {
			assert.Less(t, list[i-1].ID, n.ID)
		}
	}
}
