// Package onnx runs the frozen cross-encoder model through ONNX Runtime,
// implementing scorer.Model.
package onnx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gomlx/go-huggingface/hub"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/soundprediction/rerankd/pkg/device"
	"github.com/soundprediction/rerankd/pkg/scorer"
)

// candidate ONNX file names inside a model directory or hub repo.
var modelFileNames = []string{
	"model.onnx",
	"onnx/model.onnx",
	"model_quantized.onnx",
}

var (
	initOnce sync.Once
	initErr  error
)

// initRuntime initializes the shared ONNX Runtime environment once per
// process. The environment intentionally stays alive for the process
// lifetime; sessions come and go, the runtime does not.
func initRuntime() error {
	initOnce.Do(func() {
		if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

// Session is an inference-only ONNX Runtime session for a sequence
// classification model with input_ids/attention_mask inputs and a logits
// output. It is created once at startup and read-only afterwards.
type Session struct {
	session   *ort.DynamicAdvancedSession
	modelFile string
	effective device.Device
}

// NewSession loads the model for modelID (a local directory holding an ONNX
// export, or a Hugging Face model name to download) and builds a session on
// the resolved device.
//
// The device argument is the already-resolved preference. If the runtime
// cannot actually attach the accelerator's execution provider, the session
// degrades to CPU rather than failing startup; EffectiveDevice reports what
// was attached.
func NewSession(modelID string, dev device.Device) (*Session, error) {
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %w", err)
	}

	modelFile, err := resolveModelFile(modelID)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer options.Destroy()

	effective := attachProvider(options, dev)

	session, err := ort.NewDynamicAdvancedSession(
		modelFile,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session for %q: %w", modelFile, err)
	}

	return &Session{
		session:   session,
		modelFile: modelFile,
		effective: effective,
	}, nil
}

// attachProvider appends the execution provider for dev, returning the
// device that actually got attached. Provider failures downgrade to CPU;
// accelerators are an optimization, never a requirement.
func attachProvider(options *ort.SessionOptions, dev device.Device) device.Device {
	switch dev {
	case device.CUDA:
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err == nil {
			err = options.AppendExecutionProviderCUDA(cudaOptions)
			cudaOptions.Destroy()
		}
		if err != nil {
			slog.Warn("CUDA execution provider unavailable, using cpu", "error", err)
			return device.CPU
		}
		return device.CUDA
	case device.MPS:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			slog.Warn("CoreML execution provider unavailable, using cpu", "error", err)
			return device.CPU
		}
		return device.MPS
	default:
		return device.CPU
	}
}

// resolveModelFile finds the ONNX file for modelID: a direct file path, a
// local directory, or a hub repo to download from.
func resolveModelFile(modelID string) (string, error) {
	if info, err := os.Stat(modelID); err == nil {
		if !info.IsDir() {
			return modelID, nil
		}
		for _, name := range modelFileNames {
			candidate := filepath.Join(modelID, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("no ONNX model file found in %s", modelID)
	}

	repo := hub.New(modelID)
	var lastErr error
	for _, name := range modelFileNames {
		path, err := repo.DownloadFile(name)
		if err == nil {
			return path, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("downloading ONNX model for %q: %w", modelID, lastErr)
}

// EffectiveDevice reports the device the session actually runs on.
func (s *Session) EffectiveDevice() device.Device { return s.effective }

// ModelFile reports the resolved ONNX file path.
func (s *Session) ModelFile() string { return s.modelFile }

// Infer runs one forward pass. The underlying session holds frozen weights;
// there is no gradient state, so the call is a pure function of the batch.
func (s *Session) Infer(ctx context.Context, batch *scorer.Batch) (*scorer.Logits, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if batch == nil || batch.Rows == 0 {
		return nil, fmt.Errorf("empty batch")
	}

	shape := ort.NewShape(int64(batch.Rows), int64(batch.Cols))

	inputIDs, err := ort.NewTensor(shape, batch.InputIDs)
	if err != nil {
		return nil, fmt.Errorf("creating input_ids tensor: %w", err)
	}
	defer inputIDs.Destroy()

	attentionMask, err := ort.NewTensor(shape, batch.AttentionMask)
	if err != nil {
		return nil, fmt.Errorf("creating attention_mask tensor: %w", err)
	}
	defer attentionMask.Destroy()

	// nil output lets the runtime allocate the logits tensor at its
	// model-defined shape.
	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{inputIDs, attentionMask}, outputs); err != nil {
		return nil, fmt.Errorf("running session: %w", err)
	}

	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
		return nil, fmt.Errorf("unexpected logits tensor type %T", outputs[0])
	}
	defer logitsTensor.Destroy()

	data := logitsTensor.GetData()
	out := &scorer.Logits{
		Data:  make([]float32, len(data)),
		Shape: append([]int64(nil), logitsTensor.GetShape()...),
	}
	copy(out.Data, data)
	return out, nil
}

// Close releases the session. The shared runtime environment stays up for
// the rest of the process.
func (s *Session) Close() error {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	return nil
}
