package models

import "time"

type Question struct {
	ID            string   `bson:"_id,omitempty" json:"id"`
	Question      string   `bson:"question" json:"question"`
	Options       []string `bson:"options" json:"options"`
	CorrectAnswer string   `bson:"correctAnswer" json:"correctAnswer"`
	Explanation   string   `bson:"explanation,omitempty" json:"explanation,omitempty"`
}

type Quiz struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Subject     string    `bson:"subject" json:"subject"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	IsPublic    bool      `bson:"isPublic" json:"isPublic"`
	CreatedBy   string    `bson:"createdBy" json:"createdBy"`
	QuestionIDs []string  `bson:"questions" json:"-"`
	CourseID    string    `bson:"courseId,omitempty" json:"courseId,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// QuizWithQuestions is a quiz with its question documents resolved, the
// shape handlers return to clients.
type QuizWithQuestions struct {
	Quiz
	Questions []Question `json:"questions"`
}

// QuizSummary is the list-endpoint projection.
type QuizSummary struct {
	Quiz
	QuestionsCount int `json:"questionsCount"`
}
