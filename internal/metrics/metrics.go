package metrics

import (
	"net/http"
	"strconv"

	"ecoquest-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the quiz session collectors. It implements app.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted   *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	SessionsExited    *prometheus.CounterVec
	Answers           *prometheus.CounterVec
	CoinsAwarded      *prometheus.CounterVec
	ScorePercentage   *prometheus.HistogramVec
}

// New registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoquest_sessions_started_total",
				Help: "Quiz sessions started",
			},
			[]string{"quiz"},
		),
		SessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoquest_sessions_completed_total",
				Help: "Quiz sessions that reached the final result",
			},
			[]string{"quiz"},
		),
		SessionsExited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoquest_sessions_exited_total",
				Help: "Quiz sessions aborted before completion",
			},
			[]string{"quiz"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoquest_answers_total",
				Help: "Submitted answers by correctness and whether the timer submitted them",
			},
			[]string{"quiz", "correct", "auto"},
		),
		CoinsAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecoquest_coins_awarded_total",
				Help: "Coins paid out on completed sessions",
			},
			[]string{"quiz"},
		),
		ScorePercentage: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecoquest_score_percentage",
				Help:    "Final score percentage of completed sessions",
				Buckets: []float64{0, 25, 50, 75, 100},
			},
			[]string{"quiz"},
		),
	}
	m.registry.MustRegister(
		m.SessionsStarted,
		m.SessionsCompleted,
		m.SessionsExited,
		m.Answers,
		m.CoinsAwarded,
		m.ScorePercentage,
	)
	return m
}

func (m *Metrics) SessionStarted(quizID string) {
	m.SessionsStarted.WithLabelValues(quizID).Inc()
}

func (m *Metrics) AnswerSubmitted(quizID string, correct, auto bool) {
	m.Answers.WithLabelValues(quizID, strconv.FormatBool(correct), strconv.FormatBool(auto)).Inc()
}

func (m *Metrics) SessionCompleted(result domain.Result) {
	m.SessionsCompleted.WithLabelValues(result.QuizID).Inc()
	m.CoinsAwarded.WithLabelValues(result.QuizID).Add(float64(result.CoinsEarned))
	m.ScorePercentage.WithLabelValues(result.QuizID).Observe(result.Percentage)
}

func (m *Metrics) SessionExited(quizID string) {
	m.SessionsExited.WithLabelValues(quizID).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
