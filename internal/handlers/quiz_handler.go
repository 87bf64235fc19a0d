package handlers

import (
	"errors"
	"net/http"
	"strings"

	"viktorai/internal/gateway"
	"viktorai/internal/models"
	"viktorai/internal/service"
	"viktorai/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quizzesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_created_total",
			Help: "Total number of quizzes created",
		},
		[]string{"source"},
	)

	attemptsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_attempts_completed_total",
			Help: "Total number of completed quiz attempts",
		},
	)
)

type QuizHandler struct {
	quizzes    *service.QuizService
	attempts   *service.AttemptService
	generation *service.GenerationService
}

func NewQuizHandler(quizzes *service.QuizService, attempts *service.AttemptService, generation *service.GenerationService) *QuizHandler {
	return &QuizHandler{
		quizzes:    quizzes,
		attempts:   attempts,
		generation: generation,
	}
}

// errorStatus maps service errors onto HTTP status codes. Unrecognized
// errors fall through to 500.
func errorStatus(err error) int {
	var malformed *service.MalformedSubmissionError
	var invalidQuiz *service.InvalidQuizError
	var contract *gateway.GenerationContractError
	switch {
	case errors.Is(err, service.ErrDuplicateIdentity),
		errors.Is(err, service.ErrAttemptCompleted),
		errors.As(err, &malformed),
		errors.As(err, &invalidQuiz):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrUpstream), errors.As(err, &contract):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	utils.ErrorResponse(c, status, message)
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Missing user identity")
		return
	}

	var input service.CreateQuizInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	quizID, err := h.quizzes.CreateQuiz(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	quizzesCreated.WithLabelValues("manual").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Quiz created successfully",
		"quizId":  quizID,
	})
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Missing user identity")
		return
	}

	quizzes, err := h.quizzes.ListQuizzesForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "quizzes": quizzes})
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.quizzes.GetQuiz(c.Request.Context(), c.Param("quizId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "quiz": quiz})
}

func (h *QuizHandler) StartAttempt(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Missing user identity")
		return
	}

	attemptID, err := h.attempts.Start(c.Request.Context(), userID, c.Param("quizId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "attemptId": attemptID})
}

func (h *QuizHandler) CompleteAttempt(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Missing user identity")
		return
	}

	var req struct {
		Answers []int `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if err := h.attempts.Complete(c.Request.Context(), userID, c.Param("attemptId"), req.Answers); err != nil {
		respondError(c, err)
		return
	}

	attemptsCompleted.Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Attempt completed"})
}

func (h *QuizHandler) AttemptResults(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Missing user identity")
		return
	}

	results, err := h.attempts.Results(c.Request.Context(), userID, c.Param("attemptId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"results":     results.Results,
		"userAnswers": results.UserAnswers,
		"quiz":        results.Quiz,
	})
}

func (h *QuizHandler) ListAttempts(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Missing user identity")
		return
	}

	attempts, err := h.attempts.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attempts": attempts})
}

func (h *QuizHandler) CreateAIQuiz(c *gin.Context) {
	var req struct {
		Course service.CourseInput `json:"course"`
		UserID string              `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if req.Course.Name == "" {
		utils.BadRequestResponse(c, "Course name is required")
		return
	}

	// Session routes carry the identity; the service-token route names the
	// user in the body instead.
	userID, ok := resolveUserID(c)
	if !ok {
		userID = req.UserID
	}
	if userID == "" {
		utils.UnauthorizedResponse(c, "Missing user identity")
		return
	}

	result, err := h.generation.CreateAIQuiz(c.Request.Context(), userID, req.Course)
	if err != nil {
		respondError(c, err)
		return
	}

	quizzesCreated.WithLabelValues("ai").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "AI quiz generated successfully",
		"quiz":    result,
	})
}

// CourseCategories lists the category names and course names from the
// loaded catalog, for populating course pickers.
func (h *QuizHandler) CourseCategories(c *gin.Context) {
	catalog := h.generation.Catalog()
	if catalog == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "categories": []gin.H{}})
		return
	}

	categories := make([]gin.H, 0, len(catalog.Categories))
	for _, category := range catalog.Categories {
		names := make([]string, 0, len(category.Courses))
		for _, course := range category.Courses {
			names = append(names, course.Name)
		}
		categories = append(categories, gin.H{"name": category.Name, "courses": names})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
}

type quizRecommendation struct {
	models.QuizSummary
	Completed bool    `json:"completed"`
	BestScore float64 `json:"bestScore"`
}

// QuizRecommendations returns the user's quizzes for a course together with
// their completion state, so a frontend can suggest what to take next.
func (h *QuizHandler) QuizRecommendations(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		var ok bool
		userID, ok = resolveUserID(c)
		if !ok {
			utils.UnauthorizedResponse(c, "Missing user identity")
			return
		}
	}
	courseID := c.Param("courseId")

	quizzes, err := h.quizzes.ListQuizzesForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	attempts, err := h.attempts.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	bestScores := make(map[string]float64)
	for _, a := range attempts {
		if a.Quiz.CourseID != courseID {
			continue
		}
		if best, ok := bestScores[a.Quiz.ID]; !ok || a.Score > best {
			bestScores[a.Quiz.ID] = a.Score
		}
	}

	recommendations := make([]quizRecommendation, 0)
	for _, q := range quizzes {
		if !strings.EqualFold(q.CourseID, courseID) {
			continue
		}
		best, completed := bestScores[q.ID]
		recommendations = append(recommendations, quizRecommendation{
			QuizSummary: q,
			Completed:   completed,
			BestScore:   best,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "courseId": courseID, "quizzes": recommendations})
}
