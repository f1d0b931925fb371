package dto

import (
	"errors"
	"strings"
	"testing"
)

func TestScoreRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  ScoreRequest
		want error
	}{
		{"valid", ScoreRequest{Query: "q", Text: "t"}, nil},
		{"empty query", ScoreRequest{Query: "", Text: "t"}, ErrEmptyQuery},
		{"whitespace query", ScoreRequest{Query: "   ", Text: "t"}, ErrEmptyQuery},
		{"empty text", ScoreRequest{Query: "q", Text: " "}, ErrEmptyText},
		{"query too long", ScoreRequest{Query: strings.Repeat("a", MaxQueryLength+1), Text: "t"}, ErrQueryTooLong},
		{"text too long", ScoreRequest{Query: "q", Text: strings.Repeat("a", MaxTextLength+1)}, ErrTextTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Validate(); !errors.Is(got, tt.want) {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchScoreRequestValidate(t *testing.T) {
	pairs := make([]Pair, MaxPairsCount+1)
	for i := range pairs {
		pairs[i] = Pair{Query: "q", Text: "t"}
	}
	req := BatchScoreRequest{Pairs: pairs}
	if got := req.Validate(); !errors.Is(got, ErrTooManyPairs) {
		t.Errorf("Validate() = %v, want %v", got, ErrTooManyPairs)
	}
}

func TestBatchScoreRequestValidateNamesBadPair(t *testing.T) {
	req := BatchScoreRequest{Pairs: []Pair{
		{Query: "q", Text: "t"},
		{Query: "", Text: "t"},
	}}
	err := req.Validate()
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("Validate() = %v, want %v", err, ErrEmptyQuery)
	}
	if !strings.Contains(err.Error(), "pair 1") {
		t.Errorf("error should name the offending pair, got %q", err.Error())
	}
}

func TestBatchScoreRequestValidateEmptyPairs(t *testing.T) {
	req := BatchScoreRequest{}
	if err := req.Validate(); err != nil {
		t.Errorf("empty pairs must be valid, got %v", err)
	}
}
