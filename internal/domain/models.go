package domain

// Question is a single multiple-choice question. Options are addressed by index.
type Question struct {
	ID           string   `json:"id" yaml:"id"`
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correct" yaml:"correct"`
	Explanation  string   `json:"explanation" yaml:"explanation"`
}

// Quiz is an ordered set of questions with a coin reward paid out at 100% correctness.
type Quiz struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	CoinReward  int        `json:"coinReward" yaml:"reward"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Phase is the lifecycle stage of a quiz session.
type Phase string

const (
	PhaseAnswering Phase = "answering"
	PhaseSubmitted Phase = "submitted"
	PhaseCompleted Phase = "completed"
	PhaseExited    Phase = "exited"
)

// Terminal reports whether no further events are accepted.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseExited
}

// EventType names an intent dispatched into a session.
type EventType string

const (
	EventSelect  EventType = "select"
	EventTick    EventType = "tick"
	EventSubmit  EventType = "submit"
	EventAdvance EventType = "advance"
	EventExit    EventType = "exit"
)

// Event is a single intent. Option is only read for EventSelect.
type Event struct {
	Type   EventType
	Option int
}

// QuestionView is the client-facing part of a question; it never carries the answer.
type QuestionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Reveal is shown once an answer has been submitted.
type Reveal struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation"`
}

// Result summarizes a completed session.
type Result struct {
	QuizID      string  `json:"quizId"`
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	Percentage  float64 `json:"percentage"`
	CoinsEarned int     `json:"coinsEarned"`
}

// SessionState is an observable snapshot of a quiz session.
type SessionState struct {
	SessionID     string       `json:"sessionId"`
	QuizID        string       `json:"quizId"`
	Title         string       `json:"title"`
	Phase         Phase        `json:"phase"`
	QuestionIndex int          `json:"questionIndex"`
	QuestionCount int          `json:"questionCount"`
	Question      QuestionView `json:"question"`
	Selected      *int         `json:"selected,omitempty"`
	TimeRemaining int          `json:"timeRemaining"`
	CorrectCount  int          `json:"correctCount"`
	Reveal        *Reveal      `json:"reveal,omitempty"`
	Result        *Result      `json:"result,omitempty"`
}

// Role distinguishes students from teachers at login.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// View selects the top-level screen of the application shell.
type View string

const (
	ViewLogin       View = "login"
	ViewDashboard   View = "dashboard"
	ViewQuiz        View = "quiz"
	ViewLeaderboard View = "leaderboard"
	ViewMissions    View = "missions"
)

// User is the logged-in player.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// QuizSummary is a dashboard card for a quiz.
type QuizSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Minutes     int        `json:"minutes"`
	CoinReward  int        `json:"coinReward"`
	Difficulty  Difficulty `json:"difficulty"`
	Questions   int        `json:"questions"`
}

// TreeStage is the growth stage shown for a coin balance.
type TreeStage struct {
	Stage       string  `json:"stage"`
	Description string  `json:"description"`
	Progress    float64 `json:"progress"`
}

// LeaderboardEntry is a ranked player.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	Name          string `json:"name"`
	Coins         int    `json:"coins"`
	School        string `json:"school,omitempty"`
	IsCurrentUser bool   `json:"isCurrentUser,omitempty"`
}

// Leaderboard captures the ordered coin ranking.
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}
