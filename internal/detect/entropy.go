package detect

import "github.com/skywalker-88/stormgate-ddos/internal/features"

// EntropyDetector fires when the source-IP distribution has collapsed to
// (near) a single source (spec.md §4.4).
type EntropyDetector struct {
	Threshold float64
}

func NewEntropyDetector(threshold float64) *EntropyDetector {
	return &EntropyDetector{Threshold: threshold}
}

func (d *EntropyDetector) Name() string { return "entropy" }

func (d *EntropyDetector) Observe(f features.Features) bool {
	return f.UniqueIPs <= 1 || f.Entropy < d.Threshold
}
