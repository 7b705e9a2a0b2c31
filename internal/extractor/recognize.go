package extractor

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/MeKo-Tech/labelscan/internal/mempool"
	"github.com/MeKo-Tech/labelscan/internal/onnx"
	"github.com/MeKo-Tech/labelscan/internal/utils"
	"github.com/disintegration/imaging"
)

// Recognizer decodes a cropped text line into a string with a confidence.
type Recognizer interface {
	Init() error
	Recognize(crop image.Image) (string, float64, error)
	Close() error
}

// recognizeHeight is the input height recognition crops are scaled to.
const recognizeHeight = 48

// asciiCharset is the decode alphabet: index 0 is the CTC blank, printable
// ASCII follows. Printed credential labels stay within this range.
const asciiCharset = " !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// onnxRecognizer decodes crops with an ONNX recognition model producing
// [1, T, C] per-timestep class scores, greedily CTC-collapsed.
type onnxRecognizer struct {
	modelPath  string
	numThreads int
	session    *onnx.Session
}

// NewONNXRecognizer creates a recognition backend for the given model file.
func NewONNXRecognizer(modelPath string, numThreads int) Recognizer {
	return &onnxRecognizer{modelPath: modelPath, numThreads: numThreads}
}

func (r *onnxRecognizer) Init() error {
	if r.session != nil {
		return nil
	}
	sess, err := onnx.NewSession(r.modelPath, r.numThreads)
	if err != nil {
		return fmt.Errorf("recognition backend init: %w", err)
	}
	r.session = sess
	return nil
}

func (r *onnxRecognizer) Recognize(crop image.Image) (string, float64, error) {
	if r.session == nil {
		return "", 0, errors.New("recognition backend not initialized")
	}
	if crop == nil {
		return "", 0, errors.New("crop is nil")
	}

	prepared := prepareCrop(crop)
	data, width, height, err := utils.NormalizeImage(prepared)
	if err != nil {
		return "", 0, fmt.Errorf("normalize failed: %w", err)
	}
	defer mempool.PutFloat32(data)

	tensor, err := onnx.NewImageTensor(data, 3, height, width)
	if err != nil {
		return "", 0, fmt.Errorf("tensor build failed: %w", err)
	}
	out, shape, err := r.session.Run(tensor)
	if err != nil {
		return "", 0, err
	}
	text, confidence := decodeGreedyCTC(out, shape)
	return text, confidence, nil
}

func (r *onnxRecognizer) Close() error {
	if r.session == nil {
		return nil
	}
	err := r.session.Close()
	r.session = nil
	return err
}

// prepareCrop scales a crop to the recognition input height, preserving
// aspect ratio, and snaps the width to a multiple of 8.
func prepareCrop(crop image.Image) image.Image {
	b := crop.Bounds()
	w, h := b.Dx(), b.Dy()
	if h <= 0 || w <= 0 {
		return imaging.New(8, recognizeHeight, nil)
	}
	newW := w * recognizeHeight / h
	newW = ((newW + 7) / 8) * 8
	if newW < 8 {
		newW = 8
	}
	return imaging.Resize(crop, newW, recognizeHeight, imaging.Lanczos)
}

// decodeGreedyCTC collapses [1, T, C] per-timestep scores: argmax per step,
// merge repeats, drop blanks (class 0). Confidence is the mean probability
// of the emitted characters.
func decodeGreedyCTC(data []float32, shape []int64) (string, float64) {
	if len(shape) != 3 || shape[1] <= 0 || shape[2] <= 1 {
		return "", 0
	}
	steps, classes := int(shape[1]), int(shape[2])
	if steps*classes > len(data) {
		return "", 0
	}

	var sb strings.Builder
	var probSum float64
	var emitted int
	prev := -1
	for t := 0; t < steps; t++ {
		row := data[t*classes : (t+1)*classes]
		idx, score := argmax(row)
		if idx != prev && idx != 0 {
			if ch, ok := charForIndex(idx); ok {
				sb.WriteByte(ch)
				probSum += softmaxProb(row, idx, score)
				emitted++
			}
		}
		prev = idx
	}
	if emitted == 0 {
		return "", 0
	}
	return sb.String(), probSum / float64(emitted)
}

func charForIndex(idx int) (byte, bool) {
	// Index 0 is the blank; charset starts at 1.
	pos := idx - 1
	if pos < 0 || pos >= len(asciiCharset) {
		return 0, false
	}
	return asciiCharset[pos], true
}

func argmax(v []float32) (int, float32) {
	if len(v) == 0 {
		return -1, 0
	}
	idx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			idx = i
		}
	}
	return idx, maxVal
}

// softmaxProb computes the probability of v[idx]. Outputs that already look
// like probabilities are used directly.
func softmaxProb(v []float32, idx int, val float32) float64 {
	var sum float64
	inRange := true
	for _, x := range v {
		sum += float64(x)
		if x < 0 || x > 1 {
			inRange = false
		}
	}
	if inRange && sum > 0.99 && sum < 1.01 {
		return float64(val)
	}
	m := v[0]
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - m))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(val-m)) / denom
}
