package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecoquest-service/internal/app"
	"ecoquest-service/internal/domain"
	"ecoquest-service/internal/infra/bank"
	"ecoquest-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestWebSocketQuizFlow(t *testing.T) {
	quizzes := loadBank(t)
	server := newTestServer(t, quizzes, []app.HostOption{app.WithScheduler(idleScheduler{})})
	conn := dial(t, server)

	var dash app.Dashboard
	decode(t, readType(t, conn, "app"), &dash)
	if dash.State.View != domain.ViewLogin || dash.State.Coins != 120 {
		t.Fatalf("unexpected initial shell %+v", dash.State)
	}

	send(t, conn, "login", map[string]any{"email": "alex@school.org"})
	decode(t, readType(t, conn, "app"), &dash)
	if dash.State.View != domain.ViewDashboard || len(dash.Quizzes) != len(quizzes) {
		t.Fatalf("expected dashboard with catalog, got %+v", dash)
	}

	send(t, conn, "startQuiz", map[string]any{"quizId": "climate-basics"})
	var state domain.SessionState
	decode(t, readType(t, conn, "session"), &state)
	if state.Phase != domain.PhaseAnswering || state.QuestionIndex != 0 || state.TimeRemaining != 30 {
		t.Fatalf("unexpected first snapshot %+v", state)
	}

	climate := findQuiz(t, quizzes, "climate-basics")
	for _, q := range climate.Questions {
		send(t, conn, "select", map[string]any{"option": q.CorrectIndex})
		send(t, conn, "submit", nil)
		decode(t, readSession(t, conn, domain.PhaseSubmitted), &state)
		if state.Reveal == nil || !state.Reveal.Correct {
			t.Fatalf("expected correct reveal, got %+v", state)
		}
		send(t, conn, "advance", nil)
	}

	var result domain.Result
	decode(t, readType(t, conn, "completed"), &result)
	if result.Correct != 3 || result.CoinsEarned != 25 || result.Percentage != 100 {
		t.Fatalf("unexpected result %+v", result)
	}
	decode(t, readType(t, conn, "app"), &dash)
	if dash.State.View != domain.ViewDashboard || dash.State.Coins != 145 {
		t.Fatalf("expected 145 coins on dashboard, got %+v", dash.State)
	}

	send(t, conn, "leaderboard", nil)
	var board domain.Leaderboard
	decode(t, readType(t, conn, "leaderboard"), &board)
	found := false
	for _, e := range board.Entries {
		if e.IsCurrentUser {
			found = e.Coins == 145
		}
	}
	if !found {
		t.Fatalf("expected current user with 145 coins, got %+v", board.Entries)
	}
}

func TestWebSocketTimeoutAutoSubmits(t *testing.T) {
	quizzes := loadBank(t)
	server := newTestServer(t, quizzes, []app.HostOption{
		app.WithQuestionTime(2),
		app.WithTickInterval(5 * time.Millisecond),
	})
	conn := dial(t, server)
	readType(t, conn, "app")

	send(t, conn, "login", map[string]any{"email": "alex@school.org"})
	readType(t, conn, "app")
	send(t, conn, "startQuiz", map[string]any{"quizId": "climate-basics"})

	var state domain.SessionState
	decode(t, readSession(t, conn, domain.PhaseSubmitted), &state)
	if state.TimeRemaining != 0 || state.Selected != nil || state.Reveal == nil || state.Reveal.Correct {
		t.Fatalf("expected timed-out incorrect reveal, got %+v", state)
	}

	send(t, conn, "exit", nil)
	var dash app.Dashboard
	decode(t, readType(t, conn, "app"), &dash)
	if dash.State.View != domain.ViewDashboard || dash.State.Coins != 120 {
		t.Fatalf("exit must not change coins, got %+v", dash.State)
	}
}

func TestWebSocketRejectsInvalidMessages(t *testing.T) {
	server := newTestServer(t, loadBank(t), []app.HostOption{app.WithScheduler(idleScheduler{})})
	conn := dial(t, server)
	readType(t, conn, "app")

	send(t, conn, "startQuiz", map[string]any{"quizId": "climate-basics"})
	readType(t, conn, "error")

	send(t, conn, "login", map[string]any{"email": "  "})
	readType(t, conn, "error")

	send(t, conn, "dance", nil)
	readType(t, conn, "error")

	// The connection stays usable after errors.
	send(t, conn, "login", map[string]any{"email": "alex@school.org", "role": "teacher"})
	var dash app.Dashboard
	decode(t, readType(t, conn, "app"), &dash)
	if dash.State.User.Role != domain.RoleTeacher {
		t.Fatalf("expected teacher role, got %+v", dash.State.User)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	server := newTestServer(t, loadBank(t), []app.HostOption{app.WithScheduler(idleScheduler{})},
		WithRateLimit(rate.Limit(0.001), 1))
	conn := dial(t, server)
	readType(t, conn, "app")

	send(t, conn, "login", map[string]any{"email": "alex@school.org"})
	readType(t, conn, "app")

	send(t, conn, "missions", nil)
	var payload errorPayload
	decode(t, readType(t, conn, "error"), &payload)
	if payload.Message != "rate limit exceeded" {
		t.Fatalf("expected rate limit error, got %q", payload.Message)
	}
}

func TestQuizzesHandler(t *testing.T) {
	quizzes := loadBank(t)
	server := newTestServer(t, quizzes, []app.HostOption{app.WithScheduler(idleScheduler{})})

	resp, err := http.Get(server.URL + "/quizzes")
	if err != nil {
		t.Fatalf("get quizzes: %v", err)
	}
	defer resp.Body.Close()

	var catalog []domain.QuizSummary
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(catalog) != len(quizzes) || catalog[0].ID != "climate-basics" || catalog[0].CoinReward != 25 {
		t.Fatalf("unexpected catalog %+v", catalog)
	}
}

func newTestServer(t *testing.T, quizzes []domain.Quiz, hostOpts []app.HostOption, wsOpts ...WSOption) *httptest.Server {
	t.Helper()
	repo := memory.NewQuizRepository(memory.NewStaticQuizLoader(quizzes), time.Minute)
	host := app.NewSessionHost(repo, memory.NewSessionStore(), hostOpts...)
	service := app.NewQuizService(host, app.Catalog(quizzes, app.DefaultQuestionTime), app.DefaultRoster(), "Alex Student", 120)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service, wsOpts...).ServeWS)
	mux.HandleFunc("/quizzes", NewQuizzesHandler(service))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readType skips messages until one of the given type arrives. Session
// snapshots interleave with replies, so tests wait for what they need.
func readType(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	for i := 0; i < 200; i++ {
		msg := readNext(t, conn)
		if msg.Type == typ {
			return msg.Payload
		}
		if msg.Type == "error" && typ != "error" {
			t.Fatalf("unexpected error while waiting for %s: %s", typ, msg.Payload)
		}
	}
	t.Fatalf("no %s message received", typ)
	return nil
}

func readSession(t *testing.T, conn *websocket.Conn, phase domain.Phase) json.RawMessage {
	t.Helper()
	for i := 0; i < 200; i++ {
		raw := readType(t, conn, "session")
		var state domain.SessionState
		decode(t, raw, &state)
		if state.Phase == phase {
			return raw
		}
	}
	t.Fatalf("no session snapshot in phase %s", phase)
	return nil
}

func readNext(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	var msg message
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func loadBank(t *testing.T) []domain.Quiz {
	t.Helper()
	b, err := bank.Default()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	return b.Quizzes()
}

func findQuiz(t *testing.T, quizzes []domain.Quiz, id string) domain.Quiz {
	t.Helper()
	for _, q := range quizzes {
		if q.ID == id {
			return q
		}
	}
	t.Fatalf("quiz %s not in bank", id)
	return domain.Quiz{}
}
