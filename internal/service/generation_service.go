package service

import (
	"context"
	"log"
	"time"

	"viktorai/internal/gateway"
	"viktorai/internal/models"

	"github.com/google/uuid"
)

// GenerationService drives the AI quiz pipeline: retrieve course content
// through a transient chisel collection, generate a quiz with the LLM,
// validate it, and persist it.
type GenerationService struct {
	quizRepo     QuizStore
	questionRepo QuestionStore
	llm          *gateway.LLMClient
	chisel       *gateway.ChiselClient
	catalog      *CourseCatalog
}

func NewGenerationService(quizRepo QuizStore, questionRepo QuestionStore, llm *gateway.LLMClient, chisel *gateway.ChiselClient, catalog *CourseCatalog) *GenerationService {
	return &GenerationService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		llm:          llm,
		chisel:       chisel,
		catalog:      catalog,
	}
}

func (s *GenerationService) Catalog() *CourseCatalog {
	return s.catalog
}

type CourseInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type GeneratedQuizResult struct {
	QuizID         string `json:"quizId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	QuestionsCount int    `json:"questionsCount"`
}

// CreateAIQuiz runs the full generation pipeline for the given course on
// behalf of creatorID. The transient retrieval collection is torn down on
// every exit path. Question documents persisted before a later failing step
// are not rolled back.
func (s *GenerationService) CreateAIQuiz(ctx context.Context, creatorID string, course CourseInput) (*GeneratedQuizResult, error) {
	details := s.catalog.FindCourse(course.Name)
	document := buildDocumentContent(course.Name, details, course.Description)

	var generated *gateway.GeneratedQuiz
	err := s.chisel.WithCollection(ctx, func(collection string) error {
		if err := s.chisel.UploadDocument(ctx, collection, document); err != nil {
			return err
		}
		passages, err := s.chisel.Lookup(ctx, course.Name, collection)
		if err != nil {
			return err
		}

		log.Printf("Generating quiz questions for course %q", course.Name)
		generated, err = s.llm.GenerateQuiz(ctx, passages, course.Name)
		return err
	})
	if err != nil {
		return nil, err
	}

	questionIDs := make([]string, 0, len(generated.Questions))
	for _, q := range generated.Questions {
		doc := &models.Question{
			ID:            uuid.NewString(),
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if err := s.questionRepo.Create(ctx, doc); err != nil {
			return nil, err
		}
		questionIDs = append(questionIDs, doc.ID)
	}

	quiz := &models.Quiz{
		ID:          uuid.NewString(),
		Title:       generated.Title,
		Subject:     course.Name,
		Description: generated.Description,
		IsPublic:    true,
		CreatedBy:   creatorID,
		QuestionIDs: questionIDs,
		CourseID:    course.ID,
		CreatedAt:   time.Now(),
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, err
	}

	log.Printf("AI quiz created with %d questions", len(generated.Questions))
	return &GeneratedQuizResult{
		QuizID:         quiz.ID,
		Title:          generated.Title,
		Description:    generated.Description,
		QuestionsCount: len(generated.Questions),
	}, nil
}
