package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"ecoquest-service/internal/app"
	"ecoquest-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Default inbound budget per connection.
const (
	defaultRateLimit = rate.Limit(30)
	defaultRateBurst = 50
)

type WSHandler struct {
	service   *app.QuizService
	upgrader  websocket.Upgrader
	logger    *zap.Logger
	rateLimit rate.Limit
	rateBurst int
}

type WSOption func(*WSHandler)

func WithLogger(l *zap.Logger) WSOption { return func(h *WSHandler) { h.logger = l } }

// WithRateLimit caps inbound messages per connection.
func WithRateLimit(limit rate.Limit, burst int) WSOption {
	return func(h *WSHandler) {
		h.rateLimit = limit
		h.rateBurst = burst
	}
}

func NewWSHandler(service *app.QuizService, opts ...WSOption) *WSHandler {
	h := &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:    zap.NewNop(),
		rateLimit: defaultRateLimit,
		rateBurst: defaultRateBurst,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loginPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type startQuizPayload struct {
	QuizID string `json:"quizId"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// connection is the per-socket state: one player shell and its outbound queue.
type connection struct {
	player     *app.Player
	send       chan outboundMessage[any]
	writerDone chan struct{}
	closing    chan struct{}
	forwarders sync.WaitGroup
	logger     *zap.Logger
}

// ServeWS upgrades HTTP requests to websockets and drives one player per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &connection{
		player:     h.service.NewPlayer(),
		send:       make(chan outboundMessage[any], 32),
		writerDone: make(chan struct{}),
		closing:    make(chan struct{}),
		logger:     h.logger.With(zap.String("remote", r.RemoteAddr)),
	}

	// Only this goroutine writes to conn.
	go func() {
		defer close(c.writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				c.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	c.push("app", c.player.Dashboard())

	limiter := rate.NewLimiter(h.rateLimit, h.rateBurst)
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !limiter.Allow() {
			c.fail("rate limit exceeded")
			continue
		}
		c.handle(r.Context(), inbound)
	}

	// Exit any running session so its subscription closes, then drain.
	c.player.Close()
	close(c.closing)
	c.forwarders.Wait()
	close(c.send)
	<-c.writerDone
}

func (c *connection) handle(ctx context.Context, inbound inboundMessage) {
	switch inbound.Type {
	case "login":
		var payload loginPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.fail("invalid login payload")
			return
		}
		dash, err := c.player.Login(payload.Email, payload.Role)
		if err != nil {
			c.fail(err.Error())
			return
		}
		c.push("app", dash)
	case "startQuiz":
		var payload startQuizPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.fail("invalid startQuiz payload")
			return
		}
		handle, err := c.player.StartQuiz(ctx, payload.QuizID)
		if err != nil {
			c.fail(err.Error())
			return
		}
		c.push("app", c.player.Dashboard())
		c.forward(handle)
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
			c.fail("invalid select payload")
			return
		}
		c.dispatch(domain.Event{Type: domain.EventSelect, Option: *payload.Option})
	case "submit":
		c.dispatch(domain.Event{Type: domain.EventSubmit})
	case "advance":
		c.dispatch(domain.Event{Type: domain.EventAdvance})
	case "exit":
		c.dispatch(domain.Event{Type: domain.EventExit})
	case "leaderboard":
		board, _, err := c.player.Leaderboard()
		if err != nil {
			c.fail(err.Error())
			return
		}
		c.push("leaderboard", board)
		c.push("app", c.player.Dashboard())
	case "missions":
		c.navigate(c.player.Missions)
	case "dashboard":
		c.navigate(c.player.BackToDashboard)
	default:
		c.fail("unsupported message type")
	}
}

// dispatch sends an event to the running session. Session snapshots reach the
// client through the subscription; only the outcome is reported here.
func (c *connection) dispatch(ev domain.Event) {
	state, _, err := c.player.Dispatch(ev)
	if err != nil {
		c.fail(err.Error())
		return
	}
	switch state.Phase {
	case domain.PhaseCompleted:
		c.push("completed", state.Result)
		c.push("app", c.player.Dashboard())
	case domain.PhaseExited:
		c.push("app", c.player.Dashboard())
	}
}

func (c *connection) navigate(fn func() (app.AppState, error)) {
	if _, err := fn(); err != nil {
		c.fail(err.Error())
		return
	}
	c.push("app", c.player.Dashboard())
}

// forward relays session snapshots (including timer ticks) until the session ends.
func (c *connection) forward(handle *app.SessionHandle) {
	updates, cancel := handle.Subscribe()
	c.forwarders.Add(1)
	go func() {
		defer c.forwarders.Done()
		defer cancel()
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				select {
				case c.send <- outboundMessage[any]{Type: "session", Payload: state}:
				case <-c.closing:
					return
				case <-c.writerDone:
					return
				}
			case <-c.closing:
				return
			}
		}
	}()
}

func (c *connection) push(typ string, payload any) {
	select {
	case c.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-c.writerDone:
	}
}

func (c *connection) fail(message string) {
	c.push("error", errorPayload{Message: message})
}
