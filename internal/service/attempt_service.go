package service

import (
	"context"
	"time"

	"viktorai/internal/gateway"
	"viktorai/internal/models"

	"github.com/google/uuid"
)

type AttemptService struct {
	attemptRepo  AttemptStore
	quizRepo     QuizStore
	questionRepo QuestionStore
	llm          *gateway.LLMClient
}

func NewAttemptService(attemptRepo AttemptStore, quizRepo QuizStore, questionRepo QuestionStore, llm *gateway.LLMClient) *AttemptService {
	return &AttemptService{
		attemptRepo:  attemptRepo,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		llm:          llm,
	}
}

// Start creates an empty attempt for the resolved identity.
func (s *AttemptService) Start(ctx context.Context, userID, quizID string) (string, error) {
	quiz, err := s.quizRepo.FindByID(ctx, quizID)
	if err != nil {
		return "", err
	}
	if quiz == nil {
		return "", ErrNotFound
	}

	attempt := &models.QuizAttempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuizID:    quizID,
		Answers:   []models.AttemptAnswer{},
		StartTime: time.Now(),
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return "", err
	}
	return attempt.ID, nil
}

// Complete scores the submission and writes the attempt's terminal state.
// Ownership is checked against the resolved identity; completing an already
// completed attempt fails without mutating the stored score or answers.
// Feedback generation failures never block completion.
func (s *AttemptService) Complete(ctx context.Context, userID, attemptID string, submittedIndices []int) error {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return err
	}
	if attempt == nil {
		return ErrNotFound
	}
	if attempt.UserID != userID {
		return ErrForbidden
	}
	if attempt.Completed {
		return ErrAttemptCompleted
	}

	quiz, err := s.quizRepo.FindByID(ctx, attempt.QuizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		return ErrNotFound
	}
	questions, err := s.questionRepo.FindByIDs(ctx, quiz.QuestionIDs)
	if err != nil {
		return err
	}

	scored, err := ScoreAttempt(questions, submittedIndices)
	if err != nil {
		return err
	}

	feedback := s.llm.GenerateFeedback(ctx, questions, scored.Answers)

	attempt.Answers = scored.Answers
	attempt.Score = scored.Score
	attempt.EndTime = time.Now()
	attempt.FeedbackStrengths = feedback.Strengths
	attempt.FeedbackImprovements = feedback.Improvements

	updated, err := s.attemptRepo.Complete(ctx, attempt)
	if err != nil {
		return err
	}
	if !updated {
		// Lost the race with a concurrent completion.
		return ErrAttemptCompleted
	}
	return nil
}

type AttemptResults struct {
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	Correct        int     `json:"correct"`
	Strengths      string  `json:"strengths"`
	Improvements   string  `json:"improvements"`
}

type AttemptResultsResponse struct {
	Results     AttemptResults            `json:"results"`
	UserAnswers []int                     `json:"userAnswers"`
	Quiz        *models.QuizWithQuestions `json:"quiz"`
}

// Results returns a completed attempt's score, feedback and the submitted
// option indices alongside the resolved quiz.
func (s *AttemptService) Results(ctx context.Context, userID, attemptID string) (*AttemptResultsResponse, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrNotFound
	}
	if attempt.UserID != userID {
		return nil, ErrForbidden
	}
	if !attempt.Completed {
		return nil, &MalformedSubmissionError{Reason: "attempt not completed yet"}
	}

	quiz, err := s.quizRepo.FindByID(ctx, attempt.QuizID)
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

	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	userAnswers := make([]int, 0, len(attempt.Answers))
	correct := 0
	for _, a := range attempt.Answers {
		if a.IsCorrect {
			correct++
		}
		idx := -1
		if q, ok := byID[a.QuestionID]; ok {
			for i, opt := range q.Options {
				if opt == a.UserAnswer {
					idx = i
					break
				}
			}
		}
		userAnswers = append(userAnswers, idx)
	}

	return &AttemptResultsResponse{
		Results: AttemptResults{
			Score:          attempt.Score,
			TotalQuestions: len(questions),
			Correct:        correct,
			Strengths:      attempt.FeedbackStrengths,
			Improvements:   attempt.FeedbackImprovements,
		},
		UserAnswers: userAnswers,
		Quiz:        &models.QuizWithQuestions{Quiz: *quiz, Questions: questions},
	}, nil
}

type AttemptListEntry struct {
	ID             string      `json:"id"`
	Score          float64     `json:"score"`
	TotalQuestions int         `json:"totalQuestions"`
	CorrectAnswers int         `json:"correctAnswers"`
	EndTime        time.Time   `json:"endTime"`
	Quiz           models.Quiz `json:"quiz"`
}

// ListForUser returns the user's completed attempts, most recent first.
// Attempts whose quiz has since been deleted are silently filtered out.
func (s *AttemptService) ListForUser(ctx context.Context, userID string) ([]AttemptListEntry, error) {
	attempts, err := s.attemptRepo.FindCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]AttemptListEntry, 0, len(attempts))
	for _, a := range attempts {
		quiz, err := s.quizRepo.FindByID(ctx, a.QuizID)
		if err != nil {
			return nil, err
		}
		if quiz == nil {
			// Orphaned reference: the quiz was deleted out from under the attempt.
			continue
		}
		correct := 0
		for _, ans := range a.Answers {
			if ans.IsCorrect {
				correct++
			}
		}
		entries = append(entries, AttemptListEntry{
			ID:             a.ID,
			Score:          a.Score,
			TotalQuestions: len(a.Answers),
			CorrectAnswers: correct,
			EndTime:        a.EndTime,
			Quiz:           *quiz,
		})
	}
	return entries, nil
}
