package service

import (
	"errors"
	"math"
	"testing"

	"viktorai/internal/models"
)

func threeQuestionQuiz() []models.Question {
	return []models.Question{
		{ID: "q1", Question: "First?", Options: []string{"A", "B"}, CorrectAnswer: "A"},
		{ID: "q2", Question: "Second?", Options: []string{"C", "D"}, CorrectAnswer: "D"},
		{ID: "q3", Question: "Third?", Options: []string{"E", "F"}, CorrectAnswer: "F"},
	}
}

func TestScoreAttempt(t *testing.T) {
	questions := threeQuestionQuiz()

	scored, err := ScoreAttempt(questions, []int{0, 1, 0})
	if err != nil {
		t.Fatalf("ScoreAttempt returned error: %v", err)
	}

	wantCorrect := []bool{true, true, false}
	for i, answer := range scored.Answers {
		if answer.IsCorrect != wantCorrect[i] {
			t.Errorf("answer %d: got isCorrect=%v, want %v", i, answer.IsCorrect, wantCorrect[i])
		}
	}
	if scored.CorrectCount != 2 {
		t.Errorf("got %d correct, want 2", scored.CorrectCount)
	}
	if math.Abs(scored.Score-200.0/3.0) > 1e-9 {
		t.Errorf("got score %v, want %v", scored.Score, 200.0/3.0)
	}
}

func TestScoreAttemptRecordsOptionText(t *testing.T) {
	questions := threeQuestionQuiz()
	scored, err := ScoreAttempt(questions, []int{1, 0, 1})
	if err != nil {
		t.Fatalf("ScoreAttempt returned error: %v", err)
	}
	want := []string{"B", "C", "F"}
	for i, answer := range scored.Answers {
		if answer.UserAnswer != want[i] {
			t.Errorf("answer %d: got %q, want %q", i, answer.UserAnswer, want[i])
		}
	}
}

func TestScoreAttemptMalformed(t *testing.T) {
	questions := threeQuestionQuiz()

	tests := []struct {
		name      string
		questions []models.Question
		indices   []int
	}{
		{"too few answers", questions, []int{0, 1}},
		{"too many answers", questions, []int{0, 1, 0, 1}},
		{"negative index", questions, []int{-1, 0, 0}},
		{"index past options", questions, []int{0, 2, 0}},
		{"empty quiz", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreAttempt(tt.questions, tt.indices)
			var malformed *MalformedSubmissionError
			if !errors.As(err, &malformed) {
				t.Fatalf("got %v, want MalformedSubmissionError", err)
			}
		})
	}
}

func TestScoreAttemptOutOfRangeNamesQuestion(t *testing.T) {
	_, err := ScoreAttempt(threeQuestionQuiz(), []int{0, 5, 0})
	var malformed *MalformedSubmissionError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedSubmissionError", err)
	}
	if malformed.Question != 2 {
		t.Errorf("got question %d, want 2", malformed.Question)
	}
}

func TestScoreAttemptAllCorrect(t *testing.T) {
	scored, err := ScoreAttempt(threeQuestionQuiz(), []int{0, 1, 1})
	if err != nil {
		t.Fatalf("ScoreAttempt returned error: %v", err)
	}
	if scored.Score != 100 {
		t.Errorf("got score %v, want 100", scored.Score)
	}
}
