package service

import (
	"fmt"

	"viktorai/internal/models"
)

// MalformedSubmissionError reports an invalid answers payload. Question is
// 1-based and 0 when the whole submission is the wrong shape.
type MalformedSubmissionError struct {
	Question int
	Reason   string
}

func (e *MalformedSubmissionError) Error() string {
	if e.Question > 0 {
		return fmt.Sprintf("invalid submission for question %d: %s", e.Question, e.Reason)
	}
	return "invalid submission: " + e.Reason
}

type ScoredAttempt struct {
	Answers      []models.AttemptAnswer
	CorrectCount int
	Score        float64
}

// ScoreAttempt grades a full submission against the quiz's questions.
// submittedIndices must have one entry per question, each within the
// question's option range. Correctness is exact text equality between the
// chosen option and the stored correct answer. The score is unrounded,
// on a 0-100 scale.
func ScoreAttempt(questions []models.Question, submittedIndices []int) (*ScoredAttempt, error) {
	total := len(questions)
	if len(submittedIndices) != total {
		return nil, &MalformedSubmissionError{
			Reason: fmt.Sprintf("expected %d answers, got %d", total, len(submittedIndices)),
		}
	}
	if total == 0 {
		return nil, &MalformedSubmissionError{Reason: "quiz has no questions"}
	}

	answers := make([]models.AttemptAnswer, 0, total)
	correct := 0
	for i, question := range questions {
		idx := submittedIndices[i]
		if idx < 0 || idx >= len(question.Options) {
			return nil, &MalformedSubmissionError{
				Question: i + 1,
				Reason:   fmt.Sprintf("answer index %d out of range", idx),
			}
		}

		userAnswer := question.Options[idx]
		isCorrect := userAnswer == question.CorrectAnswer
		if isCorrect {
			correct++
		}
		answers = append(answers, models.AttemptAnswer{
			QuestionID: question.ID,
			UserAnswer: userAnswer,
			IsCorrect:  isCorrect,
		})
	}

	return &ScoredAttempt{
		Answers:      answers,
		CorrectCount: correct,
		Score:        float64(correct) / float64(total) * 100,
	}, nil
}
