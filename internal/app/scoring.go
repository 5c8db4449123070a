package app

import "ecoquest-service/internal/domain"

// Score computes the final result for a quiz given the number of correct answers.
// Coins are round-half-up of correct/total*reward, evaluated in integers so that
// halves never drift through float error.
func Score(quiz domain.Quiz, correct int) domain.Result {
	total := len(quiz.Questions)
	result := domain.Result{QuizID: quiz.ID, Correct: correct, Total: total}
	if total == 0 {
		return result
	}
	correct = min(max(correct, 0), total)
	result.Correct = correct
	result.Percentage = float64(correct) / float64(total) * 100
	result.CoinsEarned = CoinsEarned(correct, total, quiz.CoinReward)
	return result
}

// CoinsEarned returns round(correct/total*reward) with halves rounded up.
func CoinsEarned(correct, total, reward int) int {
	if total <= 0 || reward <= 0 || correct <= 0 {
		return 0
	}
	return (2*correct*reward + total) / (2 * total)
}
