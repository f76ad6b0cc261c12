package detect

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/skywalker-88/stormgate-ddos/internal/features"
)

// CusumDetector is a sliding-window cumulative-sum change-point test over
// avg_rate (spec.md §4.5). It is stateful across calls: a worker that
// scores multiple rounds must reuse the same instance, never recreate one
// per call (spec.md §9, "Global mutable state across detector
// invocations").
type CusumDetector struct {
	window    int
	slack     float64
	threshold float64

	history    []float64
	mean, std  float64
	cumsumPos  float64
	cumsumNeg  float64
}

// NewCusumDetector seeds the rolling statistics with the warm-start baseline
// (spec.md §3: mean=1000.0, std=200.0) so a single-sample run still produces
// a meaningful z-score.
func NewCusumDetector(window int, slack, threshold, warmMean, warmStd float64) *CusumDetector {
	return &CusumDetector{
		window:    window,
		slack:     slack,
		threshold: threshold,
		mean:      warmMean,
		std:       warmStd,
	}
}

func (d *CusumDetector) Name() string { return "cusum" }

// Observe scores avg_rate against the detector's current rolling mean/std
// (the warm-start baseline on the very first call), then folds the new
// sample into the rolling history for subsequent calls. Scoring against the
// pre-update state, rather than history that now merely echoes the new
// sample back at itself, is what lets a single-sample run "warm up using
// the embedded baseline ... and fire only on substantial deviation on that
// first sample" (spec.md §4.5, §9).
func (d *CusumDetector) Observe(f features.Features) bool {
	x := f.AvgRate

	std := d.std
	if std < 1 {
		std = 1
	}
	z := (x - d.mean) / std

	d.cumsumPos = math.Max(0, d.cumsumPos+z-d.slack)
	d.cumsumNeg = math.Max(0, d.cumsumNeg-z-d.slack)

	if d.window > 0 && len(d.history) >= d.window {
		d.history = d.history[1:]
	}
	d.history = append(d.history, x)

	if len(d.history) >= 2 {
		d.mean = stat.Mean(d.history, nil)
		d.std = stat.StdDev(d.history, nil)
	} else {
		d.mean = x
	}
	if d.std < 1 {
		d.std = 1
	}

	return d.cumsumPos > d.threshold || d.cumsumNeg > d.threshold
}

// Reset clears the rolling history and cumulative sums back to the
// warm-start baseline.
func (d *CusumDetector) Reset(warmMean, warmStd float64) {
	d.history = nil
	d.mean = warmMean
	d.std = warmStd
	d.cumsumPos = 0
	d.cumsumNeg = 0
}

// CumsumPos and CumsumNeg expose the running sums for tests.
func (d *CusumDetector) CumsumPos() float64 { return d.cumsumPos }
func (d *CusumDetector) CumsumNeg() float64 { return d.cumsumNeg }
