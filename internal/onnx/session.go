package onnx

import (
	"errors"
	"fmt"
	"os"

	"github.com/yalue/onnxruntime_go"
)

// EnvLibraryPath names the environment variable pointing at the ONNX Runtime
// shared library. When unset, the onnxruntime_go default lookup applies.
const EnvLibraryPath = "LABELSCAN_ONNX_LIBRARY"

// InitEnvironment prepares the process-wide ONNX Runtime environment. It is
// safe to call more than once.
func InitEnvironment() error {
	if path := os.Getenv(EnvLibraryPath); path != "" {
		onnxruntime_go.SetSharedLibraryPath(path)
	}
	if !onnxruntime_go.IsInitialized() {
		if err := onnxruntime_go.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	}
	return nil
}

// Session wraps a dynamic ONNX session together with its input/output names.
type Session struct {
	session    *onnxruntime_go.DynamicAdvancedSession
	inputInfo  onnxruntime_go.InputOutputInfo
	outputInfo onnxruntime_go.InputOutputInfo
}

// NewSession loads a model and creates a session for its first input and
// first output.
func NewSession(modelPath string, numThreads int) (*Session, error) {
	if modelPath == "" {
		return nil, errors.New("model path cannot be empty")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if err := InitEnvironment(); err != nil {
		return nil, err
	}

	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no usable inputs/outputs", modelPath)
	}

	opts, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying session options: %v\n", err)
		}
	}()
	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	sess, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &Session{session: sess, inputInfo: inputs[0], outputInfo: outputs[0]}, nil
}

// Run executes the session on an image tensor and returns the output data
// together with its shape.
func (s *Session) Run(t Tensor) ([]float32, []int64, error) {
	if err := VerifyImageTensor(t); err != nil {
		return nil, nil, fmt.Errorf("invalid tensor: %w", err)
	}
	if s == nil || s.session == nil {
		return nil, nil, errors.New("session is nil")
	}

	input, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := input.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying input tensor: %v\n", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := s.session.Run([]onnxruntime_go.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	out := outputs[0]
	defer func() {
		if err := out.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying output tensor: %v\n", err)
		}
	}()

	floatTensor, ok := out.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", out)
	}
	data := make([]float32, len(floatTensor.GetData()))
	copy(data, floatTensor.GetData())
	return data, out.GetShape(), nil
}

// Close releases the underlying session. Safe to call on a nil receiver.
func (s *Session) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
