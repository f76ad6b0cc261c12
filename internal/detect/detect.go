// Package detect holds the three traffic detectors and the vote they feed
// into. Each detector implements the same capability set so the worker can
// hold a plain slice of them instead of three hard-coded fields — the vote
// threshold then scales with the slice length rather than being pinned at 2
// of 3 (see DESIGN.md, "Polymorphism over detectors").
package detect

import (
	"math"

	"github.com/skywalker-88/stormgate-ddos/internal/features"
)

// Detector observes one worker's Features and reports whether it fires.
// Implementations that need state across calls (Cusum) own that state
// internally; nothing here is process-global.
type Detector interface {
	Name() string
	Observe(f features.Features) bool
}

// Vote is the outcome of running every detector over a single Features
// value. The local attack vote fires on a simple majority of the detector
// count (spec.md §4.7: "at least 2 of 3" is the majority of 3).
type Vote struct {
	Fired     []bool
	Votes     int
	Threshold int
	Attack    bool
}

// Run evaluates detectors against f in order and computes the majority vote.
func Run(detectors []Detector, f features.Features) Vote {
	fired := make([]bool, len(detectors))
	votes := 0
	for i, d := range detectors {
		if d.Observe(f) {
			fired[i] = true
			votes++
		}
	}
	threshold := int(math.Ceil(float64(len(detectors)) / 2))
	return Vote{
		Fired:     fired,
		Votes:     votes,
		Threshold: threshold,
		Attack:    votes >= threshold,
	}
}
