package models

import "time"

type AttemptAnswer struct {
	QuestionID string `bson:"questionId" json:"questionId"`
	UserAnswer string `bson:"userAnswer" json:"userAnswer"`
	IsCorrect  bool   `bson:"isCorrect" json:"isCorrect"`
}

// QuizAttempt is one user's run through a quiz. Answers, Score, EndTime and
// the feedback fields are written exactly once when the attempt completes;
// a completed attempt is never mutated again.
type QuizAttempt struct {
	ID                   string          `bson:"_id,omitempty" json:"id"`
	UserID               string          `bson:"userId" json:"userId"`
	QuizID               string          `bson:"quizId" json:"quizId"`
	Answers              []AttemptAnswer `bson:"answers" json:"answers"`
	Score                float64         `bson:"score" json:"score"`
	Completed            bool            `bson:"completed" json:"completed"`
	StartTime            time.Time       `bson:"startTime" json:"startTime"`
	EndTime              time.Time       `bson:"endTime,omitempty" json:"endTime,omitempty"`
	FeedbackStrengths    string          `bson:"feedbackStrengths,omitempty" json:"feedbackStrengths,omitempty"`
	FeedbackImprovements string          `bson:"feedbackImprovements,omitempty" json:"feedbackImprovements,omitempty"`
}
