package detector

import "github.com/MeKo-Tech/labelscan/internal/utils"

// Region is a candidate area of interest produced by detection. Regions are
// immutable once created.
type Region struct {
	Rect  utils.Rect `json:"rect"`
	Score float64    `json:"score"`
	Label string     `json:"label"`
}

// Candidate is a raw localization output prior to confidence filtering and
// non-max suppression.
type Candidate struct {
	Rect    utils.Rect
	Score   float64
	ClassID int
}
