// Package scorer turns (query, text) pairs into calibrated relevance scores.
//
// The engine owns no model weights itself: it composes an Encoder, which maps
// pairs to padded token batches, and a Model, which runs one forward pass and
// returns raw logits. The engine's job is the part in between and after:
// batching discipline and normalizing whatever head shape the model has into
// one probability per row.
package scorer

import (
	"context"
	"fmt"
	"math"

	"github.com/soundprediction/rerankd/pkg/device"
)

// Batch is one encoded batch of pairs, row-major, padded to Cols tokens.
type Batch struct {
	// InputIDs holds Rows*Cols token IDs.
	InputIDs []int64
	// AttentionMask holds Rows*Cols values, 1 for real tokens, 0 for padding.
	AttentionMask []int64
	Rows          int
	Cols          int
}

// Logits is the raw model output for one batch, row-major over Shape.
// Shape[0] is always the batch dimension.
type Logits struct {
	Data  []float32
	Shape []int64
}

// Encoder jointly tokenizes (query, text) pairs into a single encoder input
// per pair, query first, with the model's separator convention.
type Encoder interface {
	EncodePairs(queries, texts []string) (*Batch, error)
}

// Model runs an inference-only forward pass over an encoded batch. The model
// is frozen; Infer is a pure function of the batch.
type Model interface {
	Infer(ctx context.Context, batch *Batch) (*Logits, error)
}

// Config identifies the loaded model for the health surface.
type Config struct {
	ModelID string
	Device  device.Device
}

// Engine implements rerankd.Scorer over an Encoder and a Model. It is safe
// for concurrent use to the extent its Model is; it holds no mutable state
// after construction.
type Engine struct {
	encoder Encoder
	model   Model
	config  Config
}

// New creates an engine around a loaded encoder and model.
func New(encoder Encoder, model Model, config Config) *Engine {
	return &Engine{
		encoder: encoder,
		model:   model,
		config:  config,
	}
}

// ModelID returns the identifier the model was loaded from.
func (e *Engine) ModelID() string { return e.config.ModelID }

// Device returns the effective device as a string.
func (e *Engine) Device() string { return string(e.config.Device) }

// Ready reports whether both the encoder and the model are in place.
func (e *Engine) Ready() bool {
	return e != nil && e.encoder != nil && e.model != nil
}

// Score returns one score in [0, 1] per pair, in input order. The batch is
// scored in a single forward pass; callers that want bounded memory must
// chunk before calling.
func (e *Engine) Score(ctx context.Context, queries, texts []string) ([]float64, error) {
	if len(queries) != len(texts) {
		return nil, fmt.Errorf("scorer: %d queries but %d texts", len(queries), len(texts))
	}
	if len(queries) == 0 {
		return []float64{}, nil
	}

	batch, err := e.encoder.EncodePairs(queries, texts)
	if err != nil {
		return nil, fmt.Errorf("encoding pairs: %w", err)
	}

	logits, err := e.model.Infer(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}

	scores, err := normalize(logits, len(queries))
	if err != nil {
		return nil, fmt.Errorf("normalizing logits: %w", err)
	}
	return scores, nil
}

// normalize collapses raw logits into one score per row based on the output
// shape:
//
//   - (rows, 1): single-logit head, sigmoid per row
//   - (rows, 2): binary classifier head, softmax, probability of class 1
//   - anything else: flatten each row and sigmoid its first element. This is
//     a best-effort path for head shapes nobody anticipated, not a contract.
func normalize(logits *Logits, rows int) ([]float64, error) {
	if logits == nil || len(logits.Shape) == 0 {
		return nil, fmt.Errorf("model returned no output shape")
	}
	if int(logits.Shape[0]) != rows {
		return nil, fmt.Errorf("model returned %d rows for %d inputs", logits.Shape[0], rows)
	}

	perRow := 1
	for _, d := range logits.Shape[1:] {
		if d <= 0 {
			return nil, fmt.Errorf("model returned invalid output shape %v", logits.Shape)
		}
		perRow *= int(d)
	}
	if len(logits.Data) < rows*perRow {
		return nil, fmt.Errorf("model returned %d values for shape %v", len(logits.Data), logits.Shape)
	}

	scores := make([]float64, rows)
	switch {
	case len(logits.Shape) == 2 && logits.Shape[1] == 1:
		for i := 0; i < rows; i++ {
			scores[i] = sigmoid(float64(logits.Data[i]))
		}
	case len(logits.Shape) == 2 && logits.Shape[1] == 2:
		for i := 0; i < rows; i++ {
			neg := float64(logits.Data[i*2])
			pos := float64(logits.Data[i*2+1])
			scores[i] = softmaxPositive(neg, pos)
		}
	default:
		for i := 0; i < rows; i++ {
			scores[i] = sigmoid(float64(logits.Data[i*perRow]))
		}
	}
	return scores, nil
}

// sigmoid converts a logit to a probability.
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// softmaxPositive returns the probability mass of the positive class for a
// two-logit row, computed against the row max for stability.
func softmaxPositive(neg, pos float64) float64 {
	m := math.Max(neg, pos)
	en := math.Exp(neg - m)
	ep := math.Exp(pos - m)
	return ep / (en + ep)
}
