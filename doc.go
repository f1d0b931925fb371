// Package rerankd provides cross-encoder relevance scoring for (query, text)
// pairs, backed by a locally loaded sequence-classification model.
//
// The package exposes the scoring capability two ways: an HTTP service with
// single and batch scoring endpoints, and a streaming CSV enrichment job that
// appends a score clause to an annotation column.
//
// # Basic Usage
//
// Build an engine and score a batch of pairs:
//
//	dev := device.Resolve(device.PreferenceAuto, device.DefaultProbe())
//
//	enc, err := encoder.NewHuggingFace("BAAI/bge-reranker-base", 256)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	model, err := onnx.NewSession("BAAI/bge-reranker-base", dev)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer model.Close()
//
//	engine := scorer.New(enc, model, scorer.Config{
//		ModelID: "BAAI/bge-reranker-base",
//		Device:  dev,
//	})
//
//	scores, err := engine.Score(ctx,
//		[]string{"what is machine learning"},
//		[]string{"Machine learning is a subset of artificial intelligence."})
//
// Scores are probabilities in [0, 1], one per input pair, in input order.
//
// # Serving
//
// The rerankd binary starts the HTTP service with `rerankd server` and runs
// the CSV enrichment job with `rerankd enrich --input in.csv --output out.csv`.
package rerankd
