package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecoquest-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts where live session handles are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Put(handle *SessionHandle)
	Get(sessionID string) (*SessionHandle, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Recorder receives session lifecycle signals, typically for metrics.
type Recorder interface {
	SessionStarted(quizID string)
	AnswerSubmitted(quizID string, correct, auto bool)
	SessionCompleted(result domain.Result)
	SessionExited(quizID string)
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted(string) {}
func (nopRecorder) AnswerSubmitted(string, bool, bool) {}
func (nopRecorder) SessionCompleted(domain.Result) {}
func (nopRecorder) SessionExited(string) {}

// Callbacks are invoked on the dispatching goroutine after the session lock is released.
type Callbacks struct {
	OnComplete func(finalScore, coinsEarned int)
	OnExit     func()
}

// SessionHost starts quiz sessions and owns their countdown timers.
type SessionHost struct {
	quizzes      QuizRepository
	sessions     SessionRepository
	scheduler    Scheduler
	recorder     Recorder
	logger       *zap.Logger
	questionTime int
	tickInterval time.Duration
	newID        func() string
}

type HostOption func(*SessionHost)

func WithScheduler(s Scheduler) HostOption { return func(h *SessionHost) { h.scheduler = s } }

func WithRecorder(r Recorder) HostOption { return func(h *SessionHost) { h.recorder = r } }

func WithLogger(l *zap.Logger) HostOption { return func(h *SessionHost) { h.logger = l } }

// WithQuestionTime sets the countdown in seconds (ticks) per question.
func WithQuestionTime(seconds int) HostOption {
	return func(h *SessionHost) { h.questionTime = seconds }
}

func WithTickInterval(d time.Duration) HostOption {
	return func(h *SessionHost) { h.tickInterval = d }
}

// WithIDGenerator is test-only for deterministic session ids.
func WithIDGenerator(fn func() string) HostOption {
	return func(h *SessionHost) { h.newID = fn }
}

func NewSessionHost(quizzes QuizRepository, sessions SessionRepository, opts ...HostOption) *SessionHost {
	h := &SessionHost{
		quizzes:      quizzes,
		sessions:     sessions,
		scheduler:    TickerScheduler{},
		recorder:     nopRecorder{},
		logger:       zap.NewNop(),
		questionTime: DefaultQuestionTime,
		tickInterval: time.Second,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tickInterval <= 0 {
		h.tickInterval = time.Second
	}
	return h
}

// StartSession looks up the quiz and starts the first question's countdown.
func (h *SessionHost) StartSession(ctx context.Context, quizID string, cb Callbacks) (*SessionHandle, error) {
	quiz, err := h.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	machine, err := NewMachine(quiz, h.questionTime)
	if err != nil {
		return nil, fmt.Errorf("start session %s: %w", quizID, err)
	}

	handle := &SessionHandle{
		id:          h.newID(),
		host:        h,
		machine:     machine,
		callbacks:   cb,
		subscribers: make(map[chan domain.SessionState]struct{}),
	}
	h.sessions.Put(handle)

	handle.mu.Lock()
	handle.startTimerLocked()
	handle.mu.Unlock()

	h.recorder.SessionStarted(quizID)
	h.logger.Info("quiz session started",
		zap.String("session_id", handle.id),
		zap.String("quiz_id", quizID),
		zap.Int("questions", len(quiz.Questions)),
	)
	return handle, nil
}

// Session returns a live session by id.
func (h *SessionHost) Session(sessionID string) (*SessionHandle, error) {
	handle, ok := h.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return handle, nil
}

// Dispatch applies an event to a live session by id.
func (h *SessionHost) Dispatch(sessionID string, ev domain.Event) (domain.SessionState, error) {
	handle, err := h.Session(sessionID)
	if err != nil {
		return domain.SessionState{}, err
	}
	return handle.Dispatch(ev)
}

// SessionHandle is one running quiz attempt. All events, including timer
// ticks, are serialized by mu.
type SessionHandle struct {
	id        string
	host      *SessionHost
	callbacks Callbacks

	mu          sync.Mutex
	machine     *Machine
	stopTimer   func()
	generation  uint64
	finished    bool
	subscribers map[chan domain.SessionState]struct{}
}

func (s *SessionHandle) ID() string { return s.id }

// State returns the current snapshot.
func (s *SessionHandle) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Dispatch applies one event and returns the resulting state. Rejected events
// leave the session untouched and return the unchanged state with the error.
func (s *SessionHandle) Dispatch(ev domain.Event) (domain.SessionState, error) {
	s.mu.Lock()
	before := s.machine.Phase()
	if err := s.machine.Apply(ev); err != nil {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, err
	}
	auto := ev.Type == domain.EventTick && s.machine.Phase() == domain.PhaseSubmitted
	state, fire := s.settleLocked(before, auto)
	s.mu.Unlock()

	fire()
	return state, nil
}

// tick is the scheduled callback. Ticks from a superseded timer are dropped.
func (s *SessionHandle) tick(generation uint64) {
	s.mu.Lock()
	if generation != s.generation || s.machine.Phase() != domain.PhaseAnswering {
		s.mu.Unlock()
		return
	}
	before := s.machine.Phase()
	auto, err := s.machine.Tick()
	if err != nil {
		s.mu.Unlock()
		return
	}
	_, fire := s.settleLocked(before, auto)
	s.mu.Unlock()

	fire()
}

// settleLocked reconciles the timer, store, subscribers and callbacks with a
// phase change. The returned func must be called after unlocking.
func (s *SessionHandle) settleLocked(before domain.Phase, auto bool) (domain.SessionState, func()) {
	after := s.machine.Phase()
	quizID := s.machine.quiz.ID

	if before == domain.PhaseAnswering && after != domain.PhaseAnswering {
		s.stopTimerLocked()
	}
	if before == domain.PhaseSubmitted && after == domain.PhaseAnswering {
		s.startTimerLocked()
	}
	if before == domain.PhaseAnswering && after == domain.PhaseSubmitted {
		s.host.recorder.AnswerSubmitted(quizID, s.machine.lastCorrect, auto)
		if auto {
			s.host.logger.Debug("answer auto-submitted on timeout",
				zap.String("session_id", s.id),
				zap.Int("question", s.machine.index),
			)
		}
	}

	state := s.stateLocked()
	s.broadcastLocked(state)

	fire := func() {}
	if after.Terminal() && !s.finished {
		s.finished = true
		s.closeSubscribersLocked()
		s.host.sessions.Delete(s.id)
		fire = s.finishHook(after, quizID)
	}
	return state, fire
}

func (s *SessionHandle) finishHook(phase domain.Phase, quizID string) func() {
	host := s.host
	if phase == domain.PhaseExited {
		return func() {
			host.recorder.SessionExited(quizID)
			host.logger.Info("quiz session exited", zap.String("session_id", s.id), zap.String("quiz_id", quizID))
			if s.callbacks.OnExit != nil {
				s.callbacks.OnExit()
			}
		}
	}
	result := *s.machine.Result()
	return func() {
		host.recorder.SessionCompleted(result)
		host.logger.Info("quiz session completed",
			zap.String("session_id", s.id),
			zap.String("quiz_id", quizID),
			zap.Int("correct", result.Correct),
			zap.Int("total", result.Total),
			zap.Int("coins", result.CoinsEarned),
		)
		if s.callbacks.OnComplete != nil {
			s.callbacks.OnComplete(result.Correct, result.CoinsEarned)
		}
	}
}

func (s *SessionHandle) startTimerLocked() {
	s.stopTimerLocked()
	generation := s.generation
	s.stopTimer = s.host.scheduler.Every(s.host.tickInterval, func() { s.tick(generation) })
}

// stopTimerLocked cancels the running countdown and invalidates any tick already in flight.
func (s *SessionHandle) stopTimerLocked() {
	s.generation++
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}

func (s *SessionHandle) stateLocked() domain.SessionState {
	state := s.machine.State()
	state.SessionID = s.id
	return state
}

// Subscribe returns a channel that receives a snapshot after every tick and
// transition. It is closed when the session ends or cancel is called.
func (s *SessionHandle) Subscribe() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 8)

	s.mu.Lock()
	ch <- s.stateLocked()
	if s.finished {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *SessionHandle) broadcastLocked(state domain.SessionState) {
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// Slow reader: drop the oldest snapshot, the newest one supersedes it.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (s *SessionHandle) closeSubscribersLocked() {
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}
