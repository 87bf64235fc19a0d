package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// chiselRecorder is a fake chisel server that records the collection
// lifecycle calls it receives.
type chiselRecorder struct {
	mu       sync.Mutex
	created  []string
	deleted  []string
	chunks   []map[string]string
	failPath string
}

func (rec *chiselRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.URL.Path == rec.failPath {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		switch r.URL.Path {
		case "/create-collection":
			rec.created = append(rec.created, payload["name"])
		case "/delete-collection":
			rec.deleted = append(rec.deleted, payload["name"])
		case "/chunk":
			rec.chunks = append(rec.chunks, payload)
		case "/lookup":
			w.Write([]byte(`{"passages": ["some course content"]}`))
			return
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status": "ok"}`))
	}
}

func TestWithCollectionSuccess(t *testing.T) {
	rec := &chiselRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := NewChiselClient(srv.URL)
	var seen string
	err := client.WithCollection(context.Background(), func(collection string) error {
		seen = collection
		return nil
	})
	if err != nil {
		t.Fatalf("WithCollection: %v", err)
	}

	if len(rec.created) != 1 || rec.created[0] != seen {
		t.Errorf("created %v, fn saw %q", rec.created, seen)
	}
	if len(rec.deleted) != 1 || rec.deleted[0] != seen {
		t.Errorf("deleted %v, want teardown of %q", rec.deleted, seen)
	}
}

func TestWithCollectionTearsDownOnFailure(t *testing.T) {
	rec := &chiselRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := NewChiselClient(srv.URL)
	boom := errors.New("generation failed")
	err := client.WithCollection(context.Background(), func(collection string) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want the fn error", err)
	}
	if len(rec.deleted) != 1 {
		t.Errorf("got %d delete calls, want 1: the collection must not leak", len(rec.deleted))
	}
}

func TestWithCollectionTearsDownOnCancelledContext(t *testing.T) {
	rec := &chiselRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewChiselClient(srv.URL)
	err := client.WithCollection(ctx, func(collection string) error {
		// Simulate the request being cancelled mid-pipeline. Teardown uses
		// its own context and must still run.
		cancel()
		return ctx.Err()
	})
	if err == nil {
		t.Fatal("expected an error from the cancelled pipeline")
	}
	if len(rec.deleted) != 1 {
		t.Errorf("got %d delete calls, want 1", len(rec.deleted))
	}
}

func TestWithCollectionCreateFailureSkipsFn(t *testing.T) {
	rec := &chiselRecorder{failPath: "/create-collection"}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := NewChiselClient(srv.URL)
	ran := false
	err := client.WithCollection(context.Background(), func(collection string) error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
	if ran {
		t.Error("fn must not run when collection creation fails")
	}
	if len(rec.deleted) != 0 {
		t.Errorf("got %d delete calls, want 0 for a collection that was never created", len(rec.deleted))
	}
}

func TestUploadDocumentPayload(t *testing.T) {
	rec := &chiselRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := NewChiselClient(srv.URL)
	if err := client.UploadDocument(context.Background(), "col-1", "course text"); err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	if len(rec.chunks) != 1 {
		t.Fatalf("got %d chunk calls, want 1", len(rec.chunks))
	}
	chunk := rec.chunks[0]
	if chunk["collection"] != "col-1" || chunk["text"] != "course text" || chunk["origin"] != "AiTutorQuiz" {
		t.Errorf("unexpected chunk payload: %v", chunk)
	}
}

func TestLookupReturnsRawBody(t *testing.T) {
	rec := &chiselRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	client := NewChiselClient(srv.URL)
	body, err := client.Lookup(context.Background(), "Python", "col-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if body != `{"passages": ["some course content"]}` {
		t.Errorf("got body %q", body)
	}
}

func TestPostRetriesOnceOn5xx(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	client := NewChiselClient(srv.URL)
	if err := client.CreateCollection(context.Background(), "col"); err != nil {
		t.Fatalf("CreateCollection after retry: %v", err)
	}
	if requests != 2 {
		t.Errorf("got %d requests, want 2", requests)
	}
}

func TestPostGivesUpAfterRetry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewChiselClient(srv.URL)
	err := client.CreateCollection(context.Background(), "col")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
	if requests != 2 {
		t.Errorf("got %d requests, want exactly one retry", requests)
	}
}
