package domain

import "fmt"

// Validate checks the quiz invariants: non-empty questions, a non-negative
// reward, and a correct index inside every question's options.
func (q Quiz) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuiz)
	}
	if q.CoinReward < 0 {
		return fmt.Errorf("%w: %s: negative reward %d", ErrInvalidQuiz, q.ID, q.CoinReward)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: %s: no questions", ErrInvalidQuiz, q.ID)
	}
	for i, question := range q.Questions {
		if len(question.Options) == 0 {
			return fmt.Errorf("%w: %s: question %d has no options", ErrInvalidQuiz, q.ID, i)
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return fmt.Errorf("%w: %s: question %d correct index %d out of range", ErrInvalidQuiz, q.ID, i, question.CorrectIndex)
		}
	}
	return nil
}
