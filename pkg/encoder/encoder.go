// Package encoder maps (query, text) pairs to padded token batches using a
// Hugging Face tokenizer fetched by model name.
package encoder

import (
	"fmt"

	"github.com/gomlx/go-huggingface/hub"
	"github.com/gomlx/go-huggingface/tokenizers"

	"github.com/soundprediction/rerankd/pkg/scorer"
)

// textTokenizer is the slice of the Hugging Face tokenizer the encoder needs.
type textTokenizer interface {
	Encode(text string) []int
}

// Config holds the special-token vocabulary and length limit for pair
// assembly.
type Config struct {
	// MaxLength is the hard cap on tokens per encoded pair, special tokens
	// included. Longer pairs are truncated.
	MaxLength int

	// Special token IDs. The defaults match the XLM-RoBERTa vocabulary used
	// by the BGE reranker family: <s>=0, <pad>=1, </s>=2.
	ClsID int64
	SepID int64
	PadID int64
}

// DefaultConfig returns the BGE-style defaults with the given length cap.
func DefaultConfig(maxLength int) Config {
	return Config{
		MaxLength: maxLength,
		ClsID:     0,
		PadID:     1,
		SepID:     2,
	}
}

// PairEncoder implements scorer.Encoder. Each pair becomes
//
//	[CLS] query tokens [SEP] text tokens [SEP]
//
// truncated to MaxLength and padded to the longest row in the batch.
type PairEncoder struct {
	tokenizer textTokenizer
	config    Config
}

// New wraps an already loaded tokenizer. Used directly in tests; production
// callers go through NewHuggingFace.
func New(tokenizer textTokenizer, config Config) *PairEncoder {
	if config.MaxLength < 4 {
		config.MaxLength = 4
	}
	return &PairEncoder{tokenizer: tokenizer, config: config}
}

// NewHuggingFace downloads the tokenizer for modelID from the Hugging Face
// hub (or reuses the local cache) and builds a pair encoder with BGE-style
// special tokens and the given length cap.
func NewHuggingFace(modelID string, maxLength int) (*PairEncoder, error) {
	repo := hub.New(modelID)
	tokenizer, err := tokenizers.New(repo)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer for %q: %w", modelID, err)
	}
	return New(tokenizer, DefaultConfig(maxLength)), nil
}

// EncodePairs jointly encodes each (query, text) pair as one row, padding to
// the longest row in the batch and truncating rows over MaxLength.
func (e *PairEncoder) EncodePairs(queries, texts []string) (*scorer.Batch, error) {
	if len(queries) != len(texts) {
		return nil, fmt.Errorf("encoder: %d queries but %d texts", len(queries), len(texts))
	}

	rows := make([][]int64, len(queries))
	longest := 0
	for i := range queries {
		row := e.encodePair(queries[i], texts[i])
		rows[i] = row
		if len(row) > longest {
			longest = len(row)
		}
	}

	batch := &scorer.Batch{
		InputIDs:      make([]int64, len(rows)*longest),
		AttentionMask: make([]int64, len(rows)*longest),
		Rows:          len(rows),
		Cols:          longest,
	}
	for i, row := range rows {
		base := i * longest
		for j := 0; j < longest; j++ {
			if j < len(row) {
				batch.InputIDs[base+j] = row[j]
				batch.AttentionMask[base+j] = 1
			} else {
				batch.InputIDs[base+j] = e.config.PadID
				// mask stays 0
			}
		}
	}
	return batch, nil
}

// encodePair assembles one truncated row for a single pair.
func (e *PairEncoder) encodePair(query, text string) []int64 {
	queryIDs := e.encodeSegment(query)
	textIDs := e.encodeSegment(text)

	row := make([]int64, 0, len(queryIDs)+len(textIDs)+3)
	row = append(row, e.config.ClsID)
	row = append(row, queryIDs...)
	row = append(row, e.config.SepID)
	row = append(row, textIDs...)
	row = append(row, e.config.SepID)

	// Truncation keeps the leading tokens and restores the closing separator.
	if len(row) > e.config.MaxLength {
		row = row[:e.config.MaxLength]
		row[len(row)-1] = e.config.SepID
	}
	return row
}

// encodeSegment tokenizes one segment, dropping any special tokens the
// tokenizer adds on its own so assembly stays under our control.
func (e *PairEncoder) encodeSegment(s string) []int64 {
	encoded := e.tokenizer.Encode(s)
	ids := make([]int64, 0, len(encoded))
	for _, id := range encoded {
		t := int64(id)
		if t == e.config.ClsID || t == e.config.SepID || t == e.config.PadID {
			continue
		}
		ids = append(ids, t)
	}
	return ids
}
