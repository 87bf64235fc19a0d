package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"viktorai/internal/models"
)

// ErrUpstream marks a permanent failure of an external AI service after the
// single transient retry has been spent.
var ErrUpstream = errors.New("upstream service error")

// GenerationContractError reports a generated quiz that violates the schema
// the model was asked for. Callers must not persist such a quiz.
type GenerationContractError struct {
	Reason string
}

func (e *GenerationContractError) Error() string {
	return "generated quiz violates contract: " + e.Reason
}

const (
	minGeneratedQuestions = 10
	maxGeneratedQuestions = 30
	optionsPerQuestion    = 4
)

type LLMClient struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Model   string
}

func NewLLMClient(baseURL, apiKey, model string) *LLMClient {
	return &LLMClient{
		Client:  &http.Client{Timeout: 120 * time.Second},
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
	}
}

// Configured reports whether a generation credential is present. Feedback
// generation falls back to a templated summary when it is not.
func (l *LLMClient) Configured() bool {
	return l.APIKey != ""
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature *float64                `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

func (l *LLMClient) sendChatRequest(ctx context.Context, request chatCompletionRequest) (*chatCompletionResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if l.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+l.APIKey)
		}

		resp, err := l.Client.Do(req)
		if err != nil {
			// Timeouts and connection errors are retried once.
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("LLM API error (status %d): %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: LLM API status %d: %s", ErrUpstream, resp.StatusCode, string(body))
		}

		var response chatCompletionResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, fmt.Errorf("%w: unparseable LLM response: %v", ErrUpstream, err)
		}
		if len(response.Choices) == 0 {
			return nil, fmt.Errorf("%w: LLM response contained no choices", ErrUpstream)
		}
		return &response, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

// extractJSON strips markdown fences the model sometimes wraps around its
// JSON payload.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

type Feedback struct {
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
}

// GenerateFeedback summarizes a completed attempt into strengths and
// improvements text. Any failure falls back to a deterministic templated
// summary; feedback generation never blocks attempt completion.
func (l *LLMClient) GenerateFeedback(ctx context.Context, questions []models.Question, answers []models.AttemptAnswer) Feedback {
	if !l.Configured() {
		return fallbackFeedback(answers)
	}

	prompt := buildFeedbackPrompt(questions, answers)
	response, err := l.sendChatRequest(ctx, chatCompletionRequest{
		Model: l.Model,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: feedbackSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		log.Printf("Feedback generation failed, using fallback: %v", err)
		return fallbackFeedback(answers)
	}

	var feedback Feedback
	if err := json.Unmarshal([]byte(extractJSON(response.Choices[0].Message.Content)), &feedback); err != nil {
		log.Printf("Feedback response did not parse as JSON, using fallback: %v", err)
		return fallbackFeedback(answers)
	}
	if feedback.Strengths == "" && feedback.Improvements == "" {
		return fallbackFeedback(answers)
	}
	return feedback
}

func fallbackFeedback(answers []models.AttemptAnswer) Feedback {
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	incorrect := len(answers) - correct
	return Feedback{
		Strengths:    fmt.Sprintf("You answered %d of %d questions correctly.", correct, len(answers)),
		Improvements: fmt.Sprintf("Review the %d question(s) you missed and retake the quiz to reinforce the material.", incorrect),
	}
}

const feedbackSystemPrompt = `You are a tutoring assistant. Given a student's quiz answers, respond with ONLY a JSON object of the form {"strengths": "...", "improvements": "..."} describing what the student did well and what to work on. No other text.`

func buildFeedbackPrompt(questions []models.Question, answers []models.AttemptAnswer) string {
	var b strings.Builder
	b.WriteString("Quiz results:\n")
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for i, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n   Student answered: %s (correct: %t, expected: %s)\n",
			i+1, q.Question, a.UserAnswer, a.IsCorrect, q.CorrectAnswer)
	}
	return b.String()
}

type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type GeneratedQuiz struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Questions   []GeneratedQuestion `json:"questions"`
}

const quizSystemPrompt = `You are a quiz author. From the provided course content, produce ONLY a JSON object:
{"title": "...", "description": "...", "questions": [{"question": "...", "options": ["...","...","...","..."], "correctAnswer": "...", "explanation": "..."}]}
Rules: between 10 and 30 questions, exactly 4 distinct options per question, correctAnswer must be the exact text of one of the options. No other text.`

// GenerateQuiz synthesizes a full quiz from retrieved course passages and
// validates the output against the schema contract before returning it.
func (l *LLMClient) GenerateQuiz(ctx context.Context, retrievedContent, subjectName string) (*GeneratedQuiz, error) {
	prompt := fmt.Sprintf("Subject: %s\n\nCourse content:\n%s\n\nGenerate the quiz now.", subjectName, retrievedContent)
	response, err := l.sendChatRequest(ctx, chatCompletionRequest{
		Model: l.Model,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: quizSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	var quiz GeneratedQuiz
	if err := json.Unmarshal([]byte(extractJSON(response.Choices[0].Message.Content)), &quiz); err != nil {
		return nil, &GenerationContractError{Reason: fmt.Sprintf("response is not valid JSON: %v", err)}
	}
	if err := ValidateGeneratedQuiz(&quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// ValidateGeneratedQuiz enforces the post-generation contract: question
// count bounds, exactly four distinct options per question, and a correct
// answer that appears verbatim in its own options.
func ValidateGeneratedQuiz(quiz *GeneratedQuiz) error {
	if quiz.Title == "" {
		return &GenerationContractError{Reason: "missing title"}
	}
	if len(quiz.Questions) < minGeneratedQuestions {
		return &GenerationContractError{
			Reason: fmt.Sprintf("only %d questions generated, need at least %d", len(quiz.Questions), minGeneratedQuestions),
		}
	}
	if len(quiz.Questions) > maxGeneratedQuestions {
		return &GenerationContractError{
			Reason: fmt.Sprintf("%d questions generated, at most %d allowed", len(quiz.Questions), maxGeneratedQuestions),
		}
	}
	for i, q := range quiz.Questions {
		if q.Question == "" {
			return &GenerationContractError{Reason: fmt.Sprintf("question %d has no text", i+1)}
		}
		if len(q.Options) != optionsPerQuestion {
			return &GenerationContractError{
				Reason: fmt.Sprintf("question %d has %d options, expected %d", i+1, len(q.Options), optionsPerQuestion),
			}
		}
		seen := make(map[string]bool, optionsPerQuestion)
		for _, opt := range q.Options {
			if seen[opt] {
				return &GenerationContractError{Reason: fmt.Sprintf("question %d has duplicate option %q", i+1, opt)}
			}
			seen[opt] = true
		}
		if !seen[q.CorrectAnswer] {
			return &GenerationContractError{
				Reason: fmt.Sprintf("question %d correct answer %q is not one of its options", i+1, q.CorrectAnswer),
			}
		}
	}
	return nil
}
