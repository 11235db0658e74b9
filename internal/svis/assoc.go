package svis

import (
	"log"
	"math"
)

// DefaultResyncThreshold is the mean per-strobe time-difference below
// which a resync pairing is accepted, kept as the spec's literal
// frame-period value rather than derived from camera_rate, per
// spec.md §9 — see DESIGN.md Open Question #2. Exposed as a named
// default (not inlined) so EngineConfig.ResyncThreshold can override it
// without touching this file.
const DefaultResyncThreshold = 1.0 / 30.0

// Match is a strobe successfully paired with the image it exposed,
// ready to be republished under the strobe's host-epoch timestamp.
type Match struct {
	Image ImageRecord
	THost float64
}

// Associate runs one association pass over the strobe and image
// buffers, per spec.md §4.6. It mutates both buffers in place (removing
// matched and stale entries) and returns every match found this pass.
// staleAge is the age, in seconds, after which an unmatched strobe or
// image is dropped.
func Associate(strobes *ring[StrobeEvent], images *ring[ImageRecord], assoc *AssocState, now, staleAge float64) []Match {
	var matches []Match
	failCount := 0

	i := 0
	for i < strobes.Len() {
		s := strobes.At(i)
		matched := false

		j := 0
		for j < images.Len() {
			img := images.At(j)
			if s.CountTotal+assoc.CountOffset == img.FrameCounter {
				matches = append(matches, Match{Image: img, THost: s.THost})
				images.RemoveAt(j)
				matched = true
				break
			} else if now-img.THostArrival > staleAge {
				images.RemoveAt(j)
			} else {
				j++
			}
		}

		if matched {
			strobes.RemoveAt(i)
			continue
		}

		failCount++
		if now-s.THostRx > staleAge {
			strobes.RemoveAt(i)
		} else {
			i++
		}
	}

	// Age out stale images the strobe loop never visited, including every
	// image when the strobe buffer is empty.
	for j := 0; j < images.Len(); {
		if now-images.At(j).THostArrival > staleAge {
			images.RemoveAt(j)
		} else {
			j++
		}
	}

	if failCount == strobes.Cap() {
		log.Printf("(svis) failure to match, resyncing...")
		assoc.NeedResync = true
	}

	return matches
}

// Resync implements the nearest-time-difference heuristic of spec.md
// §4.6: for every strobe, find the image minimizing the absolute
// host-epoch time difference; accept the globally-best pair as the new
// count_offset iff the *mean* of every strobe's best difference is below
// threshold. Tie-break favors the oldest strobe and, within it, the
// oldest image (both buffers are walked oldest-first already).
func Resync(strobes *ring[StrobeEvent], images *ring[ImageRecord], assoc *AssocState, threshold float64) {
	n := strobes.Len()
	if n == 0 || images.Len() == 0 {
		return
	}

	bestImageIdx := make([]int, n)
	bestDiff := make([]float64, n)

	for i := 0; i < n; i++ {
		s := strobes.At(i)
		best := math.Inf(1)
		bestIdx := -1
		for j := 0; j < images.Len(); j++ {
			d := math.Abs(s.THost - images.At(j).THostArrival)
			if d < best {
				best = d
				bestIdx = j
			}
		}
		bestDiff[i] = best
		bestImageIdx[i] = bestIdx
	}

	globalBest := math.Inf(1)
	globalIdx := 0
	var sum float64
	for i := 0; i < n; i++ {
		sum += bestDiff[i]
		if bestDiff[i] < globalBest {
			globalBest = bestDiff[i]
			globalIdx = i
		}
	}
	mean := sum / float64(n)

	if mean >= threshold {
		return
	}

	bestStrobe := strobes.At(globalIdx)
	bestImage := images.At(bestImageIdx[globalIdx])
	assoc.CountOffset = bestImage.FrameCounter - bestStrobe.CountTotal
	assoc.HaveOffset = true
	assoc.NeedResync = false
	log.Printf("(svis) resync accepted, count_offset: %d", assoc.CountOffset)
}
