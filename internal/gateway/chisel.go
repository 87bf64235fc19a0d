package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ChiselClient talks to the external document-indexing service. Quiz
// generation drives its create-collection / chunk / lookup /
// delete-collection protocol around a transient, uniquely named collection.
type ChiselClient struct {
	Client  *http.Client
	BaseURL string
}

func NewChiselClient(baseURL string) *ChiselClient {
	return &ChiselClient{
		Client:  &http.Client{Timeout: 30 * time.Second},
		BaseURL: baseURL,
	}
}

func (c *ChiselClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.Client.Do(req)
		if err != nil {
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
			lastErr = fmt.Errorf("chisel API error (status %d): %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%w: chisel API status %d: %s", ErrUpstream, resp.StatusCode, string(body))
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

func (c *ChiselClient) CreateCollection(ctx context.Context, name string) error {
	_, err := c.post(ctx, "/create-collection", map[string]string{"name": name})
	return err
}

func (c *ChiselClient) UploadDocument(ctx context.Context, collection, text string) error {
	_, err := c.post(ctx, "/chunk", map[string]string{
		"text":       text,
		"origin":     "AiTutorQuiz",
		"collection": collection,
	})
	return err
}

// Lookup runs a semantic query against the collection and returns the raw
// passages payload, which is fed to the quiz generator as-is.
func (c *ChiselClient) Lookup(ctx context.Context, query, collection string) (string, error) {
	body, err := c.post(ctx, "/lookup", map[string]string{
		"query":      query,
		"collection": collection,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *ChiselClient) DeleteCollection(ctx context.Context, name string) error {
	_, err := c.post(ctx, "/delete-collection", map[string]string{"name": name})
	return err
}

// WithCollection creates a uniquely named transient collection, runs fn
// against it, and deletes the collection on every exit path. Teardown runs
// even when fn fails; a teardown failure is logged, not surfaced, so it
// never masks fn's error.
func (c *ChiselClient) WithCollection(ctx context.Context, fn func(collection string) error) error {
	name := uuid.NewString()
	if err := c.CreateCollection(ctx, name); err != nil {
		return err
	}
	defer func() {
		// Teardown with a fresh timeout so a cancelled request context
		// cannot leak the collection.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.DeleteCollection(cleanupCtx, name); err != nil {
			log.Printf("Warning: failed to delete chisel collection %s: %v", name, err)
		}
	}()

	return fn(name)
}
