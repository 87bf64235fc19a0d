package repository

import (
	"context"
	"errors"

	"viktorai/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AttemptRepository struct {
	Col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{Col: db.Collection("attempts")}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	_, err := r.Col.InsertOne(ctx, attempt)
	return err
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&attempt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) FindCompletedByUser(ctx context.Context, userID string) ([]models.QuizAttempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "endTime", Value: -1}})
	cur, err := r.Col.Find(ctx, bson.M{"userId": userID, "completed": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var attempts []models.QuizAttempt
	for cur.Next(ctx) {
		var a models.QuizAttempt
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, cur.Err()
}

// Complete writes the attempt's terminal state. The completed:false filter
// makes the write idempotent-protected: a second completion matches nothing
// and leaves the stored answers and score untouched.
func (r *AttemptRepository) Complete(ctx context.Context, attempt *models.QuizAttempt) (bool, error) {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": attempt.ID, "completed": false},
		bson.M{"$set": bson.M{
			"answers":              attempt.Answers,
			"score":                attempt.Score,
			"completed":            true,
			"endTime":              attempt.EndTime,
			"feedbackStrengths":    attempt.FeedbackStrengths,
			"feedbackImprovements": attempt.FeedbackImprovements,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
