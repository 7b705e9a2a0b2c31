package detector

import (
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/labelscan/internal/mempool"
	"github.com/MeKo-Tech/labelscan/internal/onnx"
	"github.com/MeKo-Tech/labelscan/internal/utils"
)

// Backend generates raw localization candidates for an image. Backends own
// their inference resources; failures surface as errors that the detector
// absorbs into empty candidate lists.
type Backend interface {
	Init() error
	Infer(img image.Image) ([]Candidate, error)
	Close() error
}

// classLabels maps backend class IDs to human-readable labels. Class 0 is
// the printed-label class the pipeline cares about.
var classLabels = map[int]string{
	0: "label",
	1: "text",
}

// ClassLabel returns the label for a backend class ID.
func ClassLabel(id int) string {
	if l, ok := classLabels[id]; ok {
		return l
	}
	return fmt.Sprintf("class_%d", id)
}

// onnxBackend runs a localization model through ONNX Runtime. The model
// output is expected as [1, N, 6] rows of (x, y, w, h, score, class) in
// model-input coordinates.
type onnxBackend struct {
	modelPath   string
	numThreads  int
	constraints utils.ImageConstraints
	session     *onnx.Session
}

// NewONNXBackend creates a localization backend for the given model file.
func NewONNXBackend(modelPath string, numThreads int) Backend {
	return &onnxBackend{
		modelPath:   modelPath,
		numThreads:  numThreads,
		constraints: utils.DefaultImageConstraints(),
	}
}

func (b *onnxBackend) Init() error {
	if b.session != nil {
		return nil
	}
	sess, err := onnx.NewSession(b.modelPath, b.numThreads)
	if err != nil {
		return fmt.Errorf("localization backend init: %w", err)
	}
	b.session = sess
	return nil
}

func (b *onnxBackend) Infer(img image.Image) ([]Candidate, error) {
	if b.session == nil {
		return nil, errors.New("localization backend not initialized")
	}
	if img == nil {
		return nil, errors.New("input image is nil")
	}

	resized, err := utils.ResizeForInference(img, b.constraints)
	if err != nil {
		return nil, fmt.Errorf("resize failed: %w", err)
	}
	data, width, height, err := utils.NormalizeImage(resized)
	if err != nil {
		return nil, fmt.Errorf("normalize failed: %w", err)
	}
	defer mempool.PutFloat32(data)

	tensor, err := onnx.NewImageTensor(data, 3, height, width)
	if err != nil {
		return nil, fmt.Errorf("tensor build failed: %w", err)
	}
	out, shape, err := b.session.Run(tensor)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	sx := float64(bounds.Dx()) / float64(width)
	sy := float64(bounds.Dy()) / float64(height)
	return decodeCandidates(out, shape, sx, sy), nil
}

func (b *onnxBackend) Close() error {
	if b.session == nil {
		return nil
	}
	err := b.session.Close()
	b.session = nil
	return err
}

// decodeCandidates parses [1, N, 6] detection rows, scaling rects back into
// source-image coordinates. Malformed rows are skipped.
func decodeCandidates(data []float32, shape []int64, sx, sy float64) []Candidate {
	const rowLen = 6
	if len(shape) != 3 || shape[2] != rowLen {
		return nil
	}
	n := int(shape[1])
	if n*rowLen > len(data) {
		n = len(data) / rowLen
	}

	candidates := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		row := data[i*rowLen : (i+1)*rowLen]
		w := float64(row[2]) * sx
		h := float64(row[3]) * sy
		if w <= 0 || h <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Rect: utils.NewRect(
				int(float64(row[0])*sx),
				int(float64(row[1])*sy),
				int(w),
				int(h),
			),
			Score:   float64(row[4]),
			ClassID: int(row[5]),
		})
	}
	return candidates
}
