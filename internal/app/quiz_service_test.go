package app_test

import (
	"context"
	"errors"
	"testing"

	"ecoquest-service/internal/app"
	"ecoquest-service/internal/domain"
)

func newTestService(t *testing.T, sched app.Scheduler) *app.QuizService {
	t.Helper()
	host, _ := newTestHost(t, sched)
	return app.NewQuizService(host, app.Catalog([]domain.Quiz{climateQuiz(t)}, 30), app.DefaultRoster(), "Alex Student", 120)
}

func TestPlayerCompletesQuizAndEarnsCoins(t *testing.T) {
	ctx := context.Background()
	player := newTestService(t, &manualScheduler{}).NewPlayer()

	if _, err := player.Login("alex@school.org", domain.RoleStudent); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := player.StartQuiz(ctx, "climate-basics"); err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if player.State().View != domain.ViewQuiz {
		t.Fatalf("expected quiz view, got %s", player.State().View)
	}

	for _, option := range []int{1, 0, 3} {
		if _, _, err := player.Dispatch(selectOption(option)); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, _, err := player.Dispatch(submit); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, _, err := player.Dispatch(advance); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	state := player.State()
	if state.Coins != 137 || state.View != domain.ViewDashboard {
		t.Fatalf("expected 120+17 coins on dashboard, got %+v", state)
	}
	if _, _, err := player.Dispatch(advance); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected no active session, got %v", err)
	}
	if dash := player.Dashboard(); dash.Tree.Stage != "Sapling" || len(dash.Quizzes) != 1 {
		t.Fatalf("unexpected dashboard %+v", dash)
	}
}

func TestPlayerExitKeepsBalance(t *testing.T) {
	ctx := context.Background()
	player := newTestService(t, &manualScheduler{}).NewPlayer()
	_, _ = player.Login("alex@school.org", domain.RoleStudent)
	if _, err := player.StartQuiz(ctx, "climate-basics"); err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	_, _, _ = player.Dispatch(selectOption(1))
	_, _, _ = player.Dispatch(submit)
	_, _, _ = player.Dispatch(advance)

	session, shell, err := player.Dispatch(exit)
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if session.Phase != domain.PhaseExited || shell.View != domain.ViewDashboard || shell.Coins != 120 {
		t.Fatalf("unexpected exit outcome session=%+v shell=%+v", session, shell)
	}
}

func TestPlayerStartUnknownQuizStaysOnDashboard(t *testing.T) {
	player := newTestService(t, &manualScheduler{}).NewPlayer()
	_, _ = player.Login("alex@school.org", domain.RoleStudent)
	if _, err := player.StartQuiz(context.Background(), "ocean-plastics"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if player.State().View != domain.ViewDashboard {
		t.Fatalf("expected dashboard, got %s", player.State().View)
	}
}

func TestPlayerLeaderboardIncludesBalance(t *testing.T) {
	player := newTestService(t, &manualScheduler{}).NewPlayer()
	if _, _, err := player.Leaderboard(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected leaderboard before login rejected, got %v", err)
	}
	_, _ = player.Login("alex@school.org", domain.RoleStudent)
	board, state, err := player.Leaderboard()
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if state.View != domain.ViewLeaderboard {
		t.Fatalf("expected leaderboard view, got %s", state.View)
	}
	last := board.Entries[len(board.Entries)-1]
	if !last.IsCurrentUser || last.Coins != 120 {
		t.Fatalf("expected current user last with 120 coins, got %+v", last)
	}
	if _, err := player.BackToDashboard(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if _, err := player.Missions(); err != nil {
		t.Fatalf("missions: %v", err)
	}
}

func TestPlayerCloseAbortsSession(t *testing.T) {
	sched := &manualScheduler{}
	player := newTestService(t, sched).NewPlayer()
	_, _ = player.Login("alex@school.org", domain.RoleStudent)
	handle, err := player.StartQuiz(context.Background(), "climate-basics")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	player.Close()
	if handle.State().Phase != domain.PhaseExited || sched.Running() != 0 {
		t.Fatalf("expected session aborted and timer stopped")
	}
	if player.State().Coins != 120 {
		t.Fatalf("abort must not pay out")
	}
}
