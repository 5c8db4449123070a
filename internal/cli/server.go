package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ecoquest-service/internal/app"
	"ecoquest-service/internal/config"
	"ecoquest-service/internal/domain"
	"ecoquest-service/internal/infra/bank"
	"ecoquest-service/internal/infra/memory"
	pgloader "ecoquest-service/internal/infra/postgres"
	redisinfra "ecoquest-service/internal/infra/redis"
	"ecoquest-service/internal/logger"
	"ecoquest-service/internal/metrics"
	transport "ecoquest-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	questions, err := bank.Load(cfg.Quiz.BankPath)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(questions.Quizzes())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewQuizLoader(pool)
	}

	var (
		quizRepo app.QuizRepository
		store    app.SessionRepository
		live     *redisinfra.SessionStore
	)
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, cfg.Quiz.TTL, log)
		live = redisinfra.NewSessionStore(redisClient, cfg.Redis.TTL, log)
		store = live
	} else {
		quizRepo = memory.NewQuizRepository(loader, cfg.Quiz.TTL)
		store = memory.NewSessionStore()
	}

	recorder := metrics.New()
	host := app.NewSessionHost(quizRepo, store,
		app.WithRecorder(recorder),
		app.WithLogger(log),
		app.WithQuestionTime(cfg.Quiz.QuestionTime),
		app.WithTickInterval(cfg.Quiz.TickInterval),
	)
	service := app.NewQuizService(host,
		app.Catalog(questions.Quizzes(), cfg.Quiz.QuestionTime),
		roster(cfg.Leaderboard),
		cfg.Player.Name,
		cfg.Player.Coins,
	)
	wsHandler := transport.NewWSHandler(service, transport.WithLogger(log))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler(live))
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/quizzes", transport.NewQuizzesHandler(service))
	mux.Handle("/metrics", recorder.Handler())

	// No WriteTimeout: WebSocket connections outlive any fixed deadline.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting ecoquest service", zap.String("port", finalPort), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-serveErr:
		log.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func healthHandler(live *redisinfra.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		status := http.StatusOK
		if live != nil {
			n, err := live.Live(r.Context())
			if err != nil {
				body["status"] = "redis unavailable"
				status = http.StatusServiceUnavailable
			} else {
				body["liveSessions"] = n
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// roster falls back to the demo leaderboard when none is configured.
func roster(cfg config.Leaderboard) []domain.LeaderboardEntry {
	if len(cfg.Roster) == 0 {
		return app.DefaultRoster()
	}
	out := make([]domain.LeaderboardEntry, 0, len(cfg.Roster))
	for _, e := range cfg.Roster {
		out = append(out, domain.LeaderboardEntry{Name: e.Name, Coins: e.Coins, School: e.School})
	}
	return out
}
