package dto

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyQuery   = errors.New("query cannot be empty")
	ErrEmptyText    = errors.New("text cannot be empty")
	ErrQueryTooLong = errors.New("query exceeds maximum length (64KB)")
	ErrTextTooLong  = errors.New("text exceeds maximum length (1MB)")
	ErrTooManyPairs = errors.New("pairs count exceeds maximum (1024)")
)

// MaxFieldLengths defines maximum lengths for fields to prevent abuse
const (
	MaxQueryLength = 64 * 1024
	MaxTextLength  = 1024 * 1024
	MaxPairsCount  = 1024
)

// ScoreRequest represents a single-pair scoring request
type ScoreRequest struct {
	Query string `json:"query" binding:"required"`
	Text  string `json:"text" binding:"required"`
}

// Validate performs validation on ScoreRequest
func (r *ScoreRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if len(r.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// ScoreResponse carries the score for a single pair
type ScoreResponse struct {
	Score float64 `json:"score"`
}

// Pair is one (query, text) pair in a batch request. ID is opaque and is
// echoed back unchanged for correlation; it never influences scoring.
type Pair struct {
	Query string  `json:"query" binding:"required"`
	Text  string  `json:"text" binding:"required"`
	ID    *string `json:"id,omitempty"`
}

// Validate performs validation on Pair
func (p *Pair) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return ErrEmptyQuery
	}
	if strings.TrimSpace(p.Text) == "" {
		return ErrEmptyText
	}
	if len(p.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if len(p.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	return nil
}

// BatchScoreRequest represents a batch scoring request. Pairs may be empty;
// an empty batch is answered without touching the engine.
type BatchScoreRequest struct {
	Pairs []Pair `json:"pairs"`
}

// Validate performs validation on BatchScoreRequest
func (r *BatchScoreRequest) Validate() error {
	if len(r.Pairs) > MaxPairsCount {
		return ErrTooManyPairs
	}
	for i, pair := range r.Pairs {
		if err := pair.Validate(); err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
	}
	return nil
}

// PairScore correlates one score with its request pair's ID.
type PairScore struct {
	ID    *string `json:"id"`
	Score float64 `json:"score"`
}

// BatchScoreResponse carries scores in request order.
type BatchScoreResponse struct {
	Scores []PairScore `json:"scores"`
}

// HealthResponse reports readiness and the loaded engine's identity.
type HealthResponse struct {
	OK     bool   `json:"ok"`
	Model  string `json:"model"`
	Device string `json:"device"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
