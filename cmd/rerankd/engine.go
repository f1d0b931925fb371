package rerankd

import (
	"fmt"
	"log/slog"

	"github.com/soundprediction/rerankd/pkg/config"
	"github.com/soundprediction/rerankd/pkg/device"
	"github.com/soundprediction/rerankd/pkg/encoder"
	"github.com/soundprediction/rerankd/pkg/onnx"
	"github.com/soundprediction/rerankd/pkg/scorer"
)

// initializeEngine loads the tokenizer and model named by cfg.Reranker and
// wires them into a score engine. The returned session must be closed by the
// caller once the engine is no longer needed.
func initializeEngine(cfg *config.Config, logger *slog.Logger) (*scorer.Engine, *onnx.Session, error) {
	pref := device.ParsePreference(cfg.Reranker.Device)
	dev := device.Resolve(pref, device.DefaultProbe())
	logger.Info("resolved device", "preference", cfg.Reranker.Device, "device", string(dev))

	enc, err := encoder.NewHuggingFace(cfg.Reranker.Model, cfg.Reranker.MaxLength)
	if err != nil {
		return nil, nil, fmt.Errorf("loading tokenizer for %s: %w", cfg.Reranker.Model, err)
	}

	session, err := onnx.NewSession(cfg.Reranker.Model, dev)
	if err != nil {
		return nil, nil, fmt.Errorf("loading model %s: %w", cfg.Reranker.Model, err)
	}

	engine := scorer.New(enc, session, scorer.Config{
		ModelID: cfg.Reranker.Model,
		Device:  session.EffectiveDevice(),
	})

	logger.Info("engine ready",
		"model", cfg.Reranker.Model,
		"model_file", session.ModelFile(),
		"device", string(session.EffectiveDevice()),
		"max_length", cfg.Reranker.MaxLength)

	return engine, session, nil
}
