package detect

import (
	"math"
	"testing"

	"github.com/skywalker-88/stormgate-ddos/internal/features"
)

func TestEntropyDetectorFiresBelowThreshold(t *testing.T) {
	d := NewEntropyDetector(2.0)
	if !d.Observe(features.Features{Entropy: 1.5, UniqueIPs: 10}) {
		t.Error("expected fire for entropy below threshold")
	}
	if d.Observe(features.Features{Entropy: 5.0, UniqueIPs: 10}) {
		t.Error("expected no fire for entropy above threshold")
	}
	if !d.Observe(features.Features{Entropy: 0, UniqueIPs: 1}) {
		t.Error("expected fire for a single source IP regardless of threshold")
	}
}

func TestCusumResetsAfterWSamplesAtTheMean(t *testing.T) {
	const warmMean, warmStd = 1000.0, 200.0
	d := NewCusumDetector(100, 0.5, 5.0, warmMean, warmStd)

	for i := 0; i < 100; i++ {
		d.Observe(features.Features{AvgRate: warmMean})
	}
	if d.CumsumPos() != 0 || d.CumsumNeg() != 0 {
		t.Errorf("cumsum_pos=%v cumsum_neg=%v, want both 0 after W samples at the mean",
			d.CumsumPos(), d.CumsumNeg())
	}
}

func TestCusumFiresOnRateBurstAgainstWarmBaseline(t *testing.T) {
	// spec.md §8 scenario 4: avg_rate=50000 against the warm-start baseline
	// (mean=1000, std=200) gives z ~= 245, far past the h=5.0 alarm
	// threshold, on the very first observation.
	d := NewCusumDetector(100, 0.5, 5.0, 1000.0, 200.0)
	if !d.Observe(features.Features{AvgRate: 50000}) {
		t.Error("expected CUSUM to fire immediately against the warm-start baseline on a rate burst")
	}
}

func TestCusumDoesNotFireOnASingleModestSample(t *testing.T) {
	// spec.md §8 scenario 3: avg_rate=100 is a modest deviation from the
	// warm-start baseline; a single sample should not cross the threshold.
	d := NewCusumDetector(100, 0.5, 5.0, 1000.0, 200.0)
	if d.Observe(features.Features{AvgRate: 100}) {
		t.Error("expected CUSUM not to fire on a single modest-deviation sample")
	}
}

func TestMLDeterminismZeroVectorGivesHalf(t *testing.T) {
	weights := []float64{-0.5, 0.001, 0.3, -0.2, 0.1, 0.2, 0.15, 0.1, 0.05, 0.1}
	s := Sigmoid(0)
	if math.Abs(s-0.5) > 1e-12 {
		t.Fatalf("sigmoid(0) = %v, want 0.5", s)
	}

	// An all-zero weight vector makes the dot product 0 regardless of the
	// feature values, reproducing sigma(0)=0.5 without needing a
	// feature vector that is itself all zero (unique_ips's 1/(n+1) term
	// can never be exactly 0 for any finite unique_ips).
	zeroWeights := make([]float64, len(weights))
	f := features.Features{Entropy: 3, AvgRate: 500, UniqueIPs: 10}
	if Score(f, zeroWeights) != 0 {
		t.Fatalf("expected a zero weight vector to score 0, got %v", Score(f, zeroWeights))
	}
	d := NewMLDetector(zeroWeights, 0.6)
	if d.Observe(f) {
		t.Error("sigmoid(0)=0.5 is below the 0.6 threshold; detector should not fire")
	}
}

func TestRunMajorityVoteScalesWithDetectorCount(t *testing.T) {
	allFire := []Detector{fakeDetector{true}, fakeDetector{true}, fakeDetector{false}}
	v := Run(allFire, features.Features{})
	if v.Threshold != 2 || !v.Attack {
		t.Errorf("3 detectors, 2 fired: want threshold=2 attack=true, got threshold=%d attack=%v",
			v.Threshold, v.Attack)
	}

	fewer := []Detector{fakeDetector{true}, fakeDetector{false}}
	v2 := Run(fewer, features.Features{})
	if v2.Threshold != 1 || !v2.Attack {
		t.Errorf("2 detectors, 1 fired: want threshold=1 attack=true, got threshold=%d attack=%v",
			v2.Threshold, v2.Attack)
	}
}

func TestVotingMonotonicityAddingAVoteNeverFlipsAttackOff(t *testing.T) {
	base := []Detector{fakeDetector{true}, fakeDetector{false}, fakeDetector{false}}
	before := Run(base, features.Features{})

	withOneMore := []Detector{fakeDetector{true}, fakeDetector{true}, fakeDetector{false}}
	after := Run(withOneMore, features.Features{})

	if before.Attack && !after.Attack {
		t.Error("adding a detector vote flipped attack_flag from 1 to 0")
	}
}

type fakeDetector struct{ fire bool }

func (f fakeDetector) Name() string                        { return "fake" }
func (f fakeDetector) Observe(features.Features) bool       { return f.fire }
