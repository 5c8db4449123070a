package app

import (
	"fmt"
	"strings"

	"ecoquest-service/internal/domain"
)

// AppState is the application shell: which screen is shown and the coin
// balance. Transitions are pure functions that return a new value; a
// rejected transition returns the input unchanged with an error.
type AppState struct {
	View   domain.View `json:"view"`
	QuizID string      `json:"quizId,omitempty"`
	Coins  int         `json:"coins"`
	User   domain.User `json:"user"`
}

// NewAppState returns the logged-out shell for a player.
func NewAppState(name string, coins int) AppState {
	return AppState{
		View:  domain.ViewLogin,
		Coins: max(coins, 0),
		User:  domain.User{Name: name, Role: domain.RoleStudent},
	}
}

// Login accepts any non-empty email.
func Login(s AppState, email string, role domain.Role) (AppState, error) {
	if s.View != domain.ViewLogin {
		return s, invalid("login", s.View)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return s, domain.ErrMissingEmail
	}
	switch role {
	case "":
		role = domain.RoleStudent
	case domain.RoleStudent, domain.RoleTeacher:
	default:
		return s, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}
	s.User.Email = email
	s.User.Role = role
	s.View = domain.ViewDashboard
	return s, nil
}

func StartQuiz(s AppState, quizID string) (AppState, error) {
	if s.View != domain.ViewDashboard {
		return s, invalid("start quiz", s.View)
	}
	if quizID == "" {
		return s, domain.ErrQuizNotFound
	}
	s.QuizID = quizID
	s.View = domain.ViewQuiz
	return s, nil
}

// CompleteQuiz folds a finished session's payout into the balance.
func CompleteQuiz(s AppState, finalScore, coinsEarned int) (AppState, error) {
	if s.View != domain.ViewQuiz {
		return s, invalid("complete quiz", s.View)
	}
	if finalScore < 0 || coinsEarned < 0 {
		return s, fmt.Errorf("%w: negative score %d or coins %d", domain.ErrInvalidTransition, finalScore, coinsEarned)
	}
	s.Coins += coinsEarned
	s.QuizID = ""
	s.View = domain.ViewDashboard
	return s, nil
}

// ExitQuiz leaves an aborted quiz without touching the balance.
func ExitQuiz(s AppState) (AppState, error) {
	if s.View != domain.ViewQuiz {
		return s, invalid("exit quiz", s.View)
	}
	s.QuizID = ""
	s.View = domain.ViewDashboard
	return s, nil
}

func ViewLeaderboard(s AppState) (AppState, error) {
	return navigate(s, domain.ViewLeaderboard)
}

// ViewMissions opens the missions placeholder.
func ViewMissions(s AppState) (AppState, error) {
	return navigate(s, domain.ViewMissions)
}

func BackToDashboard(s AppState) (AppState, error) {
	return navigate(s, domain.ViewDashboard)
}

// navigate covers the side screens; a quiz in progress must be left via
// CompleteQuiz or ExitQuiz so the session outcome is not lost.
func navigate(s AppState, to domain.View) (AppState, error) {
	switch s.View {
	case domain.ViewDashboard, domain.ViewLeaderboard, domain.ViewMissions:
		s.View = to
		return s, nil
	default:
		return s, invalid("open "+string(to), s.View)
	}
}

func invalid(action string, from domain.View) error {
	return fmt.Errorf("%w: cannot %s from %s", domain.ErrInvalidTransition, action, from)
}
