package service

import (
	"context"

	"viktorai/internal/models"
)

// Persistence surfaces shared by the quiz, attempt, and generation services.
// The repository package provides the Mongo-backed implementations.

type QuizStore interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	FindByID(ctx context.Context, id string) (*models.Quiz, error)
	FindByCreator(ctx context.Context, userID string) ([]models.Quiz, error)
}

type QuestionStore interface {
	Create(ctx context.Context, q *models.Question) error
	FindByIDs(ctx context.Context, ids []string) ([]models.Question, error)
}

type AttemptStore interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	FindByID(ctx context.Context, id string) (*models.QuizAttempt, error)
	FindCompletedByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error)
	Complete(ctx context.Context, attempt *models.QuizAttempt) (bool, error)
}
