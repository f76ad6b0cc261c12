package detect

import (
	"math"

	"github.com/skywalker-88/stormgate-ddos/internal/features"
)

// MLDetector is a fixed-weight logistic scorer (spec.md §4.6). It is not a
// trained model: the weight vector and threshold are reproducibility
// constants, never updated, and there is no training path (Non-goals: model
// training).
type MLDetector struct {
	Weights   []float64
	Threshold float64
}

func NewMLDetector(weights []float64, threshold float64) *MLDetector {
	w := make([]float64, len(weights))
	copy(w, weights)
	return &MLDetector{Weights: w, Threshold: threshold}
}

func (d *MLDetector) Name() string { return "ml" }

// Observe builds the fixed-order 10-feature normalized vector, takes the
// dot product with Weights, applies the logistic sigmoid, and fires above
// Threshold (spec.md §4.6).
func (d *MLDetector) Observe(f features.Features) bool {
	return Sigmoid(Score(f, d.Weights)) > d.Threshold
}

// Score computes the raw dot product of the normalized feature vector with
// weights, exported so callers needing the pre-sigmoid value (e.g. logging)
// don't have to reimplement the feature order.
func Score(f features.Features, weights []float64) float64 {
	vec := [...]float64{
		f.Entropy,
		f.AvgRate / 10000,
		f.SpikeScore / 10,
		f.PacketSizeMean / 1500,
		f.SynRatio,
		f.UDPRatio,
		1 / float64(f.UniqueIPs+1),
		f.FlowDurationMean / 1000,
		f.PacketSizeStd / 500,
		float64(f.TotalPackets) / 10000,
	}
	var s float64
	for i := 0; i < len(vec) && i < len(weights); i++ {
		s += vec[i] * weights[i]
	}
	return s
}

// Sigmoid is the standard logistic function.
func Sigmoid(s float64) float64 {
	return 1 / (1 + math.Exp(-s))
}
