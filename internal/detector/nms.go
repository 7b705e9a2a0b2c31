package detector

import (
	"sort"

	"github.com/MeKo-Tech/labelscan/internal/utils"
)

// NonMaxSuppression performs greedy non-max suppression. Candidates are
// visited in order of descending score (ties keep input order); a candidate
// is kept only if its IoU with every already-kept candidate does not exceed
// iouThreshold. Kept regions retain their original scores.
func NonMaxSuppression(regions []Region, iouThreshold float64) []Region {
	if len(regions) <= 1 {
		return regions
	}

	indices := make([]int, len(regions))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return regions[indices[a]].Score > regions[indices[b]].Score
	})

	kept := make([]Region, 0, len(regions))
	for _, i := range indices {
		overlaps := false
		for _, k := range kept {
			if utils.IoU(regions[i].Rect, k.Rect) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, regions[i])
		}
	}
	return kept
}
