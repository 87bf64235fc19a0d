package service

import (
	"context"
	"fmt"
	"time"

	"viktorai/internal/models"

	"github.com/google/uuid"
)

type QuizService struct {
	quizRepo     QuizStore
	questionRepo QuestionStore
}

func NewQuizService(quizRepo QuizStore, questionRepo QuestionStore) *QuizService {
	return &QuizService{quizRepo: quizRepo, questionRepo: questionRepo}
}

type QuestionInput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type CreateQuizInput struct {
	Title       string          `json:"title"`
	Subject     string          `json:"subject"`
	Description string          `json:"description"`
	IsPublic    *bool           `json:"isPublic"`
	Questions   []QuestionInput `json:"questions"`
}

// InvalidQuizError reports a manually submitted quiz that fails validation.
type InvalidQuizError struct {
	Reason string
}

func (e *InvalidQuizError) Error() string { return "invalid quiz: " + e.Reason }

func validateQuestion(idx int, q QuestionInput) error {
	if q.Question == "" || len(q.Options) != 4 || q.CorrectAnswer == "" {
		return &InvalidQuizError{Reason: fmt.Sprintf("invalid question format at index %d", idx)}
	}
	found := false
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			found = true
			break
		}
	}
	if !found {
		return &InvalidQuizError{
			Reason: fmt.Sprintf("correct answer must be one of the options for question %d", idx+1),
		}
	}
	return nil
}

// CreateQuiz validates and persists a manually authored quiz. Question
// documents are inserted first, then the quiz referencing them; quizzes are
// immutable after creation.
func (s *QuizService) CreateQuiz(ctx context.Context, creatorID string, input CreateQuizInput) (string, error) {
	if input.Title == "" || input.Subject == "" || len(input.Questions) == 0 {
		return "", &InvalidQuizError{Reason: "title, subject and at least one question are required"}
	}
	for idx, q := range input.Questions {
		if err := validateQuestion(idx, q); err != nil {
			return "", err
		}
	}

	questionIDs := make([]string, 0, len(input.Questions))
	for _, q := range input.Questions {
		doc := &models.Question{
			ID:            uuid.NewString(),
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if err := s.questionRepo.Create(ctx, doc); err != nil {
			return "", err
		}
		questionIDs = append(questionIDs, doc.ID)
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}
	quiz := &models.Quiz{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Subject:     input.Subject,
		Description: input.Description,
		IsPublic:    isPublic,
		CreatedBy:   creatorID,
		QuestionIDs: questionIDs,
		CreatedAt:   time.Now(),
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return "", err
	}
	return quiz.ID, nil
}

func (s *QuizService) ListQuizzesForUser(ctx context.Context, userID string) ([]models.QuizSummary, error) {
	quizzes, err := s.quizRepo.FindByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		summaries = append(summaries, models.QuizSummary{Quiz: q, QuestionsCount: len(q.QuestionIDs)})
	}
	return summaries, nil
}

func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (*models.QuizWithQuestions, error) {
	quiz, err := s.quizRepo.FindByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrNotFound
	}
	questions, err := s.questionRepo.FindByIDs(ctx, quiz.QuestionIDs)
	if err != nil {
		return nil, err
	}
	return &models.QuizWithQuestions{Quiz: *quiz, Questions: questions}, nil
}
