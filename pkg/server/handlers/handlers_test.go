package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// fakeScorer returns a fixed score per pair and counts engine invocations.
type fakeScorer struct {
	calls int
	score float64
	err   error
	ready bool
}

func (f *fakeScorer) Score(ctx context.Context, queries, texts []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	scores := make([]float64, len(queries))
	for i := range scores {
		scores[i] = f.score
	}
	return scores, nil
}

func (f *fakeScorer) ModelID() string { return "test-model" }
func (f *fakeScorer) Device() string  { return "cpu" }
func (f *fakeScorer) Ready() bool     { return f.ready }

func newTestRouter(s *fakeScorer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	healthHandler := NewHealthHandler(s)
	scoreHandler := NewScoreHandler(s)
	router.GET("/health", healthHandler.HealthCheck)
	router.POST("/score", scoreHandler.Score)
	router.POST("/batch_score", scoreHandler.BatchScore)
	return router
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(&fakeScorer{ready: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["ok"] != true {
		t.Errorf("expected ok true, got %v", response["ok"])
	}
	if response["model"] != "test-model" {
		t.Errorf("expected model test-model, got %v", response["model"])
	}
	if response["device"] != "cpu" {
		t.Errorf("expected device cpu, got %v", response["device"])
	}
}

func TestHealthBeforeLoad(t *testing.T) {
	router := newTestRouter(&fakeScorer{ready: false})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestScore(t *testing.T) {
	scorer := &fakeScorer{ready: true, score: 0.812}
	router := newTestRouter(scorer)

	body := `{"query": "Chess", "text": "Chess Online"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var response map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["score"] != 0.812 {
		t.Errorf("expected score 0.812, got %v", response["score"])
	}
	if scorer.calls != 1 {
		t.Errorf("expected 1 engine call, got %d", scorer.calls)
	}
}

func TestScoreRejectsMalformedBody(t *testing.T) {
	scorer := &fakeScorer{ready: true}
	router := newTestRouter(scorer)

	for _, body := range []string{`{`, `{}`, `{"query": "q"}`, `{"query": "", "text": "t"}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status %d, got %d", body, http.StatusBadRequest, w.Code)
		}
	}
	if scorer.calls != 0 {
		t.Errorf("engine must not be invoked for rejected requests, got %d calls", scorer.calls)
	}
}

func TestBatchScore(t *testing.T) {
	scorer := &fakeScorer{ready: true, score: 0.5}
	router := newTestRouter(scorer)

	body := `{"pairs": [
		{"query": "q1", "text": "t1", "id": "a"},
		{"query": "q2", "text": "t2"}
	]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batch_score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var response struct {
		Scores []struct {
			ID    *string `json:"id"`
			Score float64 `json:"score"`
		} `json:"scores"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(response.Scores))
	}
	if response.Scores[0].ID == nil || *response.Scores[0].ID != "a" {
		t.Errorf("expected first id to round-trip as \"a\", got %v", response.Scores[0].ID)
	}
	if response.Scores[1].ID != nil {
		t.Errorf("expected second id to be null, got %v", *response.Scores[1].ID)
	}
	if scorer.calls != 1 {
		t.Errorf("expected a single engine call for the batch, got %d", scorer.calls)
	}
}

func TestBatchScoreEmptyPairs(t *testing.T) {
	scorer := &fakeScorer{ready: true}
	router := newTestRouter(scorer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batch_score", strings.NewReader(`{"pairs": []}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"scores":[]}` {
		t.Errorf("expected empty scores payload, got %s", got)
	}
	if scorer.calls != 0 {
		t.Errorf("engine must not be invoked for an empty batch, got %d calls", scorer.calls)
	}
}

func TestScoreSurfacesEngineError(t *testing.T) {
	scorer := &fakeScorer{ready: true, err: fmt.Errorf("session exploded")}
	router := newTestRouter(scorer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/score",
		strings.NewReader(`{"query": "q", "text": "t"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
