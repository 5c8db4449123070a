package app_test

import (
	"sync"
	"testing"
	"time"

	"ecoquest-service/internal/app"
	"ecoquest-service/internal/domain"
	"ecoquest-service/internal/infra/bank"
	"ecoquest-service/internal/infra/memory"
)

// manualScheduler delivers ticks only when the test calls Tick.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	fn      func()
	stopped bool
}

func (m *manualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{fn: fn}
	m.tasks = append(m.tasks, task)
	return func() {
		m.mu.Lock()
		task.stopped = true
		m.mu.Unlock()
	}
}

// Tick fires every running task once.
func (m *manualScheduler) Tick() {
	for _, task := range m.snapshot(false) {
		task.fn()
	}
}

func (m *manualScheduler) TickN(n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

// FireStopped simulates ticks that were already scheduled when their task was cancelled.
func (m *manualScheduler) FireStopped() {
	for _, task := range m.snapshot(true) {
		task.fn()
	}
}

func (m *manualScheduler) Running() int {
	return len(m.snapshot(false))
}

func (m *manualScheduler) snapshot(stopped bool) []*manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*manualTask
	for _, task := range m.tasks {
		if task.stopped == stopped {
			out = append(out, task)
		}
	}
	return out
}

func climateQuiz(t *testing.T) domain.Quiz {
	t.Helper()
	b, err := bank.Default()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	for _, q := range b.Quizzes() {
		if q.ID == "climate-basics" {
			return q
		}
	}
	t.Fatalf("climate-basics missing from bank")
	return domain.Quiz{}
}

func newTestHost(t *testing.T, sched app.Scheduler, opts ...app.HostOption) (*app.SessionHost, *memory.SessionStore) {
	t.Helper()
	b, err := bank.Default()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	store := memory.NewSessionStore()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(b.Quizzes()), 5*time.Minute)
	opts = append([]app.HostOption{app.WithScheduler(sched)}, opts...)
	return app.NewSessionHost(quizzes, store, opts...), store
}

func mustDispatch(t *testing.T, h *app.SessionHandle, ev domain.Event) domain.SessionState {
	t.Helper()
	state, err := h.Dispatch(ev)
	if err != nil {
		t.Fatalf("dispatch %s: %v", ev.Type, err)
	}
	return state
}

func selectOption(i int) domain.Event { return domain.Event{Type: domain.EventSelect, Option: i} }

var (
	submit  = domain.Event{Type: domain.EventSubmit}
	advance = domain.Event{Type: domain.EventAdvance}
	exit    = domain.Event{Type: domain.EventExit}
)
