package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"viktorai/internal/models"
)

func validQuiz(questionCount int) *GeneratedQuiz {
	quiz := &GeneratedQuiz{Title: "Test Quiz", Description: "A quiz"}
	for i := 0; i < questionCount; i++ {
		quiz.Questions = append(quiz.Questions, GeneratedQuestion{
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswer: "beta",
			Explanation:   "because",
		})
	}
	return quiz
}

func TestValidateGeneratedQuiz(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *GeneratedQuiz)
		wantErr bool
	}{
		{"valid minimum", func(q *GeneratedQuiz) {}, false},
		{"missing title", func(q *GeneratedQuiz) { q.Title = "" }, true},
		{"too few questions", func(q *GeneratedQuiz) { q.Questions = q.Questions[:9] }, true},
		{"empty question text", func(q *GeneratedQuiz) { q.Questions[0].Question = "" }, true},
		{"three options", func(q *GeneratedQuiz) { q.Questions[3].Options = []string{"a", "b", "c"} }, true},
		{"five options", func(q *GeneratedQuiz) {
			q.Questions[3].Options = []string{"a", "b", "c", "d", "e"}
			q.Questions[3].CorrectAnswer = "a"
		}, true},
		{"duplicate options", func(q *GeneratedQuiz) {
			q.Questions[5].Options = []string{"same", "same", "other", "more"}
			q.Questions[5].CorrectAnswer = "other"
		}, true},
		{"correct answer not an option", func(q *GeneratedQuiz) { q.Questions[2].CorrectAnswer = "epsilon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := validQuiz(10)
			tt.mutate(quiz)
			err := ValidateGeneratedQuiz(quiz)
			if tt.wantErr {
				var contract *GenerationContractError
				if !errors.As(err, &contract) {
					t.Fatalf("got %v, want GenerationContractError", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateGeneratedQuizTooMany(t *testing.T) {
	err := ValidateGeneratedQuiz(validQuiz(31))
	var contract *GenerationContractError
	if !errors.As(err, &contract) {
		t.Fatalf("got %v, want GenerationContractError", err)
	}
	if ValidateGeneratedQuiz(validQuiz(30)) != nil {
		t.Error("30 questions should be accepted")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateFeedbackFallbackWhenUnconfigured(t *testing.T) {
	client := NewLLMClient("http://unused", "", "model")

	answers := []models.AttemptAnswer{
		{QuestionID: "q1", UserAnswer: "A", IsCorrect: true},
		{QuestionID: "q2", UserAnswer: "C", IsCorrect: false},
		{QuestionID: "q3", UserAnswer: "F", IsCorrect: true},
	}
	feedback := client.GenerateFeedback(context.Background(), nil, answers)

	if !strings.Contains(feedback.Strengths, "2 of 3") {
		t.Errorf("strengths %q should mention the 2 of 3 correct answers", feedback.Strengths)
	}
	if !strings.Contains(feedback.Improvements, "1 question") {
		t.Errorf("improvements %q should mention the 1 missed question", feedback.Improvements)
	}
}

func TestGenerateFeedbackFallbackOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "key", "model")
	answers := []models.AttemptAnswer{{QuestionID: "q1", IsCorrect: true}}

	feedback := client.GenerateFeedback(context.Background(), nil, answers)
	if feedback.Strengths == "" || feedback.Improvements == "" {
		t.Error("fallback feedback must not be empty")
	}
}

func chatResponseWith(t *testing.T, content string) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	if err != nil {
		t.Fatalf("marshal chat response: %v", err)
	}
	return string(body)
}

func TestGenerateQuizParsesFencedJSON(t *testing.T) {
	quizJSON, err := json.Marshal(validQuiz(10))
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("got Authorization %q", got)
		}
		fmt.Fprint(w, chatResponseWith(t, "```json\n"+string(quizJSON)+"\n```"))
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "key", "model")
	quiz, err := client.GenerateQuiz(context.Background(), "course content", "Python Fundamentals")
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if quiz.Title != "Test Quiz" || len(quiz.Questions) != 10 {
		t.Errorf("got title %q with %d questions", quiz.Title, len(quiz.Questions))
	}
}

func TestGenerateQuizRetriesOnceOn5xx(t *testing.T) {
	quizJSON, _ := json.Marshal(validQuiz(10))
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chatResponseWith(t, string(quizJSON)))
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "key", "model")
	if _, err := client.GenerateQuiz(context.Background(), "content", "subject"); err != nil {
		t.Fatalf("GenerateQuiz after retry: %v", err)
	}
	if requests != 2 {
		t.Errorf("got %d requests, want 2", requests)
	}
}

func TestGenerateQuizPermanentUpstreamFailure(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "key", "model")
	_, err := client.GenerateQuiz(context.Background(), "content", "subject")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
	if requests != 2 {
		t.Errorf("got %d requests, want exactly one retry", requests)
	}
}

func TestGenerateQuizClientErrorDoesNotRetry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "key", "model")
	_, err := client.GenerateQuiz(context.Background(), "content", "subject")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
	if requests != 1 {
		t.Errorf("got %d requests, want 1", requests)
	}
}

func TestGenerateQuizRejectsContractViolation(t *testing.T) {
	quizJSON, _ := json.Marshal(validQuiz(5))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponseWith(t, string(quizJSON)))
	}))
	defer srv.Close()

	client := NewLLMClient(srv.URL, "key", "model")
	_, err := client.GenerateQuiz(context.Background(), "content", "subject")
	var contract *GenerationContractError
	if !errors.As(err, &contract) {
		t.Fatalf("got %v, want GenerationContractError", err)
	}
}
