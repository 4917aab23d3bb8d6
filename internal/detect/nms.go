package detect

import "sort"

// Suppress applies non-maximum suppression: when a smaller box overlaps a
// larger one by more than maxOverlap — measured as intersection area over
// the smaller box's area — the smaller box is discarded. Candidates are
// considered largest-first, with area ties broken by first-seen order so
// identical detector output always prunes identically.
//
// Detectors return a handful of boxes per image, so the pairwise O(n²)
// sweep is fine without a spatial index.
func Suppress(boxes []Box, maxOverlap float64) []Box {
	if len(boxes) == 0 {
		return nil
	}

	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return boxes[order[i]].Area() > boxes[order[j]].Area()
	})

	discarded := make([]bool, len(boxes))
	var keep []Box
	for i, oi := range order {
		if discarded[oi] {
			continue
		}
		larger := boxes[oi]
		keep = append(keep, larger)

		for _, oj := range order[i+1:] {
			if discarded[oj] {
				continue
			}
			smaller := boxes[oj]
			area := smaller.Area()
			if area <= 0 {
				discarded[oj] = true
				continue
			}
			if intersectionArea(larger, smaller)/area > maxOverlap {
				discarded[oj] = true
			}
		}
	}
	return keep
}
