package extractor

import (
	"image"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/labelscan/internal/utils"
	"github.com/disintegration/imaging"
)

// Heuristic is the extractor variant whose detect phase needs no model: it
// proposes text lines from the ink profile of the patch (runs of rows with
// enough dark pixels). The recognize phase still goes through a Recognizer
// backend; with no recognizer the extractor initializes inert.
type Heuristic struct {
	config     Config
	recognizer Recognizer

	mu          sync.Mutex
	initialized bool
	initTried   bool
}

// Row coverage ratio above which a row counts as part of a text line.
const inkRowThreshold = 0.05

// NewHeuristic creates a heuristic extractor with the given recognize
// backend.
func NewHeuristic(config Config, recognizer Recognizer) *Heuristic {
	return &Heuristic{config: config, recognizer: recognizer}
}

// Initialize prepares the recognize backend; false leaves the extractor
// inert. Never panics.
func (h *Heuristic) Initialize() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initTried {
		return h.initialized
	}
	h.initTried = true
	if h.recognizer == nil {
		slog.Warn("heuristic extractor has no recognize backend")
		return false
	}
	if err := h.recognizer.Init(); err != nil {
		slog.Warn("text recognition backend unavailable", "error", err)
		return false
	}
	h.initialized = true
	return true
}

// Extract proposes text lines via ink profiling and recognizes each crop.
func (h *Heuristic) Extract(img image.Image, region *utils.Rect) []TextFragment {
	h.mu.Lock()
	ready := h.initialized
	h.mu.Unlock()
	if !ready || img == nil {
		return nil
	}

	patch, origin := cropRegion(img, region)
	lines := ProposeTextLines(patch)
	if len(lines) == 0 {
		return nil
	}

	fragments := make([]TextFragment, 0, len(lines))
	for _, line := range lines {
		crop := utils.CropImageRect(patch, line)
		text, confidence, err := h.recognizer.Recognize(crop)
		if err != nil {
			slog.Warn("text recognition failed for line", "error", err)
			continue
		}
		if text == "" {
			continue
		}
		fragments = append(fragments, TextFragment{
			Rect:       utils.NewRect(origin.X+line.X, origin.Y+line.Y, line.Width, line.Height),
			Text:       text,
			Confidence: confidence,
		})
	}
	return filterFragments(fragments, h.config.MinConfidence)
}

// Release frees the recognize backend.
func (h *Heuristic) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return
	}
	h.initialized = false
	if err := h.recognizer.Close(); err != nil {
		slog.Warn("failed to close text recognition backend", "error", err)
	}
}

// ProposeTextLines segments an image into horizontal text line rectangles
// based on the density of dark pixels per row. Lines are trimmed to their
// ink extent horizontally.
func ProposeTextLines(img image.Image) []utils.Rect {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, hgt := b.Dx(), b.Dy()
	if w <= 0 || hgt <= 0 {
		return nil
	}

	// Binarize against the mean luminance.
	var sum int64
	for y := 0; y < hgt; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < w; x++ {
			sum += int64(row[x*4])
		}
	}
	mean := byte(sum / int64(w*hgt))
	dark := func(x, y int) bool { return gray.Pix[y*gray.Stride+x*4] < mean }

	rowInk := make([]int, hgt)
	for y := 0; y < hgt; y++ {
		for x := 0; x < w; x++ {
			if dark(x, y) {
				rowInk[y]++
			}
		}
	}

	minInk := int(float64(w) * inkRowThreshold)
	if minInk < 1 {
		minInk = 1
	}
	var rects []utils.Rect
	start := -1
	for y := 0; y <= hgt; y++ {
		inLine := y < hgt && rowInk[y] >= minInk
		switch {
		case inLine && start < 0:
			start = y
		case !inLine && start >= 0:
			if r, ok := trimLine(dark, w, start, y); ok {
				rects = append(rects, r)
			}
			start = -1
		}
	}
	return rects
}

// trimLine shrinks a row band [top, bottom) to the horizontal ink extent.
func trimLine(dark func(x, y int) bool, w, top, bottom int) (utils.Rect, bool) {
	left, right := w, -1
	for y := top; y < bottom; y++ {
		for x := 0; x < w; x++ {
			if dark(x, y) {
				if x < left {
					left = x
				}
				if x > right {
					right = x
				}
			}
		}
	}
	if right < left || bottom-top < 2 {
		return utils.Rect{}, false
	}
	return utils.NewRect(left, top, right-left+1, bottom-top), true
}
