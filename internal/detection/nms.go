package detection

import (
	"image"
	"sort"
)

// IoU returns the intersection-over-union of two boxes, 0 for disjoint boxes.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	i := float64(inter.Dx() * inter.Dy())
	u := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - i
	if u <= 0 {
		return 0
	}
	return i / u
}

// SuppressOverlaps performs greedy non-maximum suppression: detections are
// visited in descending confidence, and any box overlapping an already kept
// box of the same category by more than threshold IoU is dropped.
func SuppressOverlaps(dets []Detection, threshold float64) []Detection {
	if len(dets) < 2 {
		return append([]Detection(nil), dets...)
	}

	sorted := append([]Detection(nil), dets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Detection, 0, len(sorted))
	for _, d := range sorted {
		overlaps := false
		for _, k := range kept {
			if k.Category == d.Category && IoU(k.Box, d.Box) > threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, d)
		}
	}
	return kept
}
