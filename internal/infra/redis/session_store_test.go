package redis

import (
	"context"
	"testing"
	"time"

	"ecoquest-service/internal/app"
	"ecoquest-service/internal/domain"
	"ecoquest-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute, nil)
	host := app.NewSessionHost(
		memory.NewQuizRepository(memory.NewStaticQuizLoader([]domain.Quiz{sampleQuiz()}), time.Minute),
		store,
		app.WithScheduler(idleScheduler{}),
		app.WithIDGenerator(func() string { return "s1" }),
	)

	handle, err := host.StartSession(context.Background(), "quiz-1", app.Callbacks{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s1"); got != "quiz-1" {
		t.Fatalf("expected marker to hold quiz id, got %q", got)
	}
	if live, err := store.Live(context.Background()); err != nil || live != 1 {
		t.Fatalf("expected 1 live session, got %d (%v)", live, err)
	}

	if _, err := handle.Dispatch(domain.Event{Type: domain.EventExit}); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected handle removed")
	}
}
