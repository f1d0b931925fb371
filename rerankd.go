package rerankd

import "context"

// Scorer is the process-wide scoring capability shared by the HTTP handlers
// and the CSV enrichment job. Implementations hold one loaded model and one
// resolved device for their whole lifetime; Score is a blocking, synchronous
// call that is never retried.
type Scorer interface {
	// Score returns one relevance score in [0, 1] per (query, text) pair,
	// in input order. len(queries) must equal len(texts); a mismatch is a
	// caller bug and returns an error without invoking the model.
	Score(ctx context.Context, queries, texts []string) ([]float64, error)

	// ModelID returns the identifier the model was loaded from.
	ModelID() string

	// Device returns the effective device the model runs on (cpu, cuda, mps).
	Device() string

	// Ready reports whether the model and tokenizer finished loading.
	// The service must not report itself healthy while this is false.
	Ready() bool
}
