package app

import (
	"fmt"

	"ecoquest-service/internal/domain"
)

// DefaultQuestionTime is the per-question countdown in seconds.
const DefaultQuestionTime = 30

const noSelection = -1

// Machine is the quiz session state machine. It is not safe for concurrent
// use; SessionHandle serializes access to it.
type Machine struct {
	quiz         domain.Quiz
	questionTime int

	phase     domain.Phase
	index     int
	selected  int
	correct   int
	remaining int
	// lastCorrect is the outcome of the submitted question, valid while revealed.
	lastCorrect bool
	result      *domain.Result
}

// NewMachine starts a session at the first question with a full timer.
func NewMachine(quiz domain.Quiz, questionTime int) (*Machine, error) {
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	if questionTime <= 0 {
		questionTime = DefaultQuestionTime
	}
	return &Machine{
		quiz:         quiz,
		questionTime: questionTime,
		phase:        domain.PhaseAnswering,
		selected:     noSelection,
		remaining:    questionTime,
	}, nil
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase { return m.phase }

// Result is non-nil once the session has completed.
func (m *Machine) Result() *domain.Result { return m.result }

// Apply dispatches an event to the matching transition.
func (m *Machine) Apply(ev domain.Event) error {
	switch ev.Type {
	case domain.EventSelect:
		return m.Select(ev.Option)
	case domain.EventTick:
		_, err := m.Tick()
		return err
	case domain.EventSubmit:
		return m.Submit()
	case domain.EventAdvance:
		return m.Advance()
	case domain.EventExit:
		return m.Exit()
	default:
		return fmt.Errorf("%w: unknown event %q", domain.ErrInvalidTransition, ev.Type)
	}
}

// Select records the chosen option; later selections replace earlier ones.
func (m *Machine) Select(option int) error {
	if m.phase != domain.PhaseAnswering {
		return m.reject(domain.EventSelect)
	}
	options := m.current().Options
	if option < 0 || option >= len(options) {
		return fmt.Errorf("%w: option %d out of range [0,%d)", domain.ErrInvalidTransition, option, len(options))
	}
	m.selected = option
	return nil
}

// Tick consumes one second. When the countdown reaches zero the current
// answer is submitted as is; the returned flag reports that auto-submit.
func (m *Machine) Tick() (bool, error) {
	if m.phase != domain.PhaseAnswering {
		return false, m.reject(domain.EventTick)
	}
	if m.remaining > 0 {
		m.remaining--
	}
	if m.remaining > 0 {
		return false, nil
	}
	m.submit()
	return true, nil
}

// Submit scores the current selection. An empty selection counts as incorrect.
func (m *Machine) Submit() error {
	if m.phase != domain.PhaseAnswering {
		return m.reject(domain.EventSubmit)
	}
	m.submit()
	return nil
}

func (m *Machine) submit() {
	m.lastCorrect = m.selected == m.current().CorrectIndex
	if m.lastCorrect {
		m.correct++
	}
	m.phase = domain.PhaseSubmitted
}

// Advance moves to the next question, or completes the session after the last one.
func (m *Machine) Advance() error {
	if m.phase != domain.PhaseSubmitted {
		return m.reject(domain.EventAdvance)
	}
	if m.index+1 < len(m.quiz.Questions) {
		m.index++
		m.selected = noSelection
		m.lastCorrect = false
		m.remaining = m.questionTime
		m.phase = domain.PhaseAnswering
		return nil
	}
	result := Score(m.quiz, m.correct)
	m.result = &result
	m.phase = domain.PhaseCompleted
	return nil
}

// Exit aborts the session without a result.
func (m *Machine) Exit() error {
	if m.phase.Terminal() {
		return m.reject(domain.EventExit)
	}
	m.phase = domain.PhaseExited
	return nil
}

// State builds the observable snapshot. Reveal data is only included after submission.
func (m *Machine) State() domain.SessionState {
	q := m.current()
	state := domain.SessionState{
		QuizID:        m.quiz.ID,
		Title:         m.quiz.Title,
		Phase:         m.phase,
		QuestionIndex: m.index,
		QuestionCount: len(m.quiz.Questions),
		Question: domain.QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
		},
		TimeRemaining: m.remaining,
		CorrectCount:  m.correct,
	}
	if m.selected != noSelection {
		selected := m.selected
		state.Selected = &selected
	}
	if m.phase == domain.PhaseSubmitted || m.phase == domain.PhaseCompleted {
		state.Reveal = &domain.Reveal{
			Correct:      m.lastCorrect,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
		}
	}
	if m.result != nil {
		result := *m.result
		state.Result = &result
	}
	return state
}

func (m *Machine) current() domain.Question {
	return m.quiz.Questions[m.index]
}

func (m *Machine) reject(ev domain.EventType) error {
	return fmt.Errorf("%w: %s not allowed while %s", domain.ErrInvalidTransition, ev, m.phase)
}
