package app

import (
	"context"
	"sync"

	"ecoquest-service/internal/domain"
)

// QuizService contains the player-facing use cases: the shell transitions
// wired to the session host.
type QuizService struct {
	host       *SessionHost
	catalog    []domain.QuizSummary
	roster     []domain.LeaderboardEntry
	playerName string
	coins      int
}

func NewQuizService(host *SessionHost, catalog []domain.QuizSummary, roster []domain.LeaderboardEntry, playerName string, startingCoins int) *QuizService {
	return &QuizService{
		host:       host,
		catalog:    catalog,
		roster:     roster,
		playerName: playerName,
		coins:      startingCoins,
	}
}

// Catalog lists the quizzes shown on the dashboard.
func (s *QuizService) Catalog() []domain.QuizSummary {
	return append([]domain.QuizSummary(nil), s.catalog...)
}

// NewPlayer returns a logged-out shell for one client.
func (s *QuizService) NewPlayer() *Player {
	return &Player{svc: s, state: NewAppState(s.playerName, s.coins)}
}

// Dashboard is what the dashboard screen shows.
type Dashboard struct {
	State   AppState             `json:"state"`
	Quizzes []domain.QuizSummary `json:"quizzes"`
	Tree    domain.TreeStage     `json:"tree"`
}

// Player is one client's shell plus its active quiz session, if any.
type Player struct {
	svc *QuizService

	mu      sync.Mutex
	state   AppState
	session *SessionHandle
}

func (p *Player) State() AppState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Dashboard() Dashboard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dashboardLocked()
}

func (p *Player) dashboardLocked() Dashboard {
	return Dashboard{
		State:   p.state,
		Quizzes: p.svc.Catalog(),
		Tree:    Tree(p.state.Coins),
	}
}

func (p *Player) Login(email string, role domain.Role) (Dashboard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := Login(p.state, email, role)
	if err != nil {
		return p.dashboardLocked(), err
	}
	p.state = next
	return p.dashboardLocked(), nil
}

// StartQuiz opens the quiz view and starts a session. The shell only moves
// to the quiz view when the session could be started.
func (p *Player) StartQuiz(ctx context.Context, quizID string) (*SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, err := StartQuiz(p.state, quizID)
	if err != nil {
		return nil, err
	}
	handle, err := p.svc.host.StartSession(ctx, quizID, Callbacks{
		// Terminal transitions only happen inside Dispatch, which holds p.mu.
		OnComplete: func(finalScore, coinsEarned int) {
			if done, err := CompleteQuiz(p.state, finalScore, coinsEarned); err == nil {
				p.state = done
			}
			p.session = nil
		},
		OnExit: func() {
			if left, err := ExitQuiz(p.state); err == nil {
				p.state = left
			}
			p.session = nil
		},
	})
	if err != nil {
		return nil, err
	}
	p.state = next
	p.session = handle
	return handle, nil
}

// Dispatch forwards an event to the active session.
func (p *Player) Dispatch(ev domain.Event) (domain.SessionState, AppState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return domain.SessionState{}, p.state, domain.ErrSessionNotFound
	}
	state, err := p.session.Dispatch(ev)
	return state, p.state, err
}

// Leaderboard switches to the leaderboard view and ranks the player in the roster.
func (p *Player) Leaderboard() (domain.Leaderboard, AppState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := ViewLeaderboard(p.state)
	if err != nil {
		return domain.Leaderboard{}, p.state, err
	}
	p.state = next
	return p.leaderboardLocked(), p.state, nil
}

func (p *Player) leaderboardLocked() domain.Leaderboard {
	return RankLeaderboard(p.svc.roster, domain.LeaderboardEntry{
		Name:  p.state.User.Name,
		Coins: p.state.Coins,
	})
}

func (p *Player) Missions() (AppState, error) {
	return p.navigate(ViewMissions)
}

func (p *Player) BackToDashboard() (AppState, error) {
	return p.navigate(BackToDashboard)
}

func (p *Player) navigate(fn func(AppState) (AppState, error)) (AppState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := fn(p.state)
	if err != nil {
		return p.state, err
	}
	p.state = next
	return p.state, nil
}

// Close aborts any session still running, e.g. when the client disconnects.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		_, _ = p.session.Dispatch(domain.Event{Type: domain.EventExit})
	}
}

// DefaultRoster is the demo leaderboard used when none is configured.
func DefaultRoster() []domain.LeaderboardEntry {
	return []domain.LeaderboardEntry{
		{Name: "Emma Chen", Coins: 1250, School: "Green Valley High"},
		{Name: "Alex Rodriguez", Coins: 1180, School: "Eco Academy"},
		{Name: "Sophia Kim", Coins: 950, School: "Nature's Way School"},
		{Name: "Marcus Johnson", Coins: 875, School: "Green Valley High"},
		{Name: "Isabella Garcia", Coins: 750, School: "Eco Academy"},
		{Name: "Ethan Brown", Coins: 680, School: "Nature's Way School"},
		{Name: "Ava Wilson", Coins: 620, School: "Green Valley High"},
	}
}
