package app

import (
	"sort"

	"ecoquest-service/internal/domain"
)

const treeFullGrowth = 200

// Catalog builds dashboard cards in the given order. Minutes are rounded up
// from the total countdown of all questions.
func Catalog(quizzes []domain.Quiz, questionTime int) []domain.QuizSummary {
	if questionTime <= 0 {
		questionTime = DefaultQuestionTime
	}
	out := make([]domain.QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		seconds := len(q.Questions) * questionTime
		out = append(out, domain.QuizSummary{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Minutes:     (seconds + 59) / 60,
			CoinReward:  q.CoinReward,
			Difficulty:  q.Difficulty,
			Questions:   len(q.Questions),
		})
	}
	return out
}

// Tree maps a coin balance to its growth stage.
func Tree(coins int) domain.TreeStage {
	progress := float64(coins) * 100 / treeFullGrowth
	progress = min(max(progress, 0), 100)
	switch {
	case coins < 50:
		return domain.TreeStage{Stage: "Seed", Description: "Your journey begins!", Progress: progress}
	case coins < 150:
		return domain.TreeStage{Stage: "Sapling", Description: "Growing strong!", Progress: progress}
	default:
		return domain.TreeStage{Stage: "Mighty Tree", Description: "Fully grown!", Progress: progress}
	}
}

// RankLeaderboard ranks the roster together with the current user by coins
// (desc), then name. The roster is not modified.
func RankLeaderboard(roster []domain.LeaderboardEntry, current domain.LeaderboardEntry) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(roster)+1)
	for _, e := range roster {
		e.IsCurrentUser = false
		entries = append(entries, e)
	}
	current.IsCurrentUser = true
	entries = append(entries, current)

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Coins != entries[j].Coins {
			return entries[i].Coins > entries[j].Coins
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return domain.Leaderboard{Entries: entries}
}
