// Package worker sequences one rank's entire detection pipeline: load
// shard, aggregate by source IP, extract features, run the detector
// ensemble, attribute a hot IP, and build the single Alert the rank sends
// (spec.md §4, grounded on cmd/protector/main.go's startup sequencing and
// internal/anom/detector.go's pipeline-stage shape). Strictly sequential —
// no goroutines inside a rank (spec.md §5).
package worker

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skywalker-88/stormgate-ddos/internal/attribute"
	"github.com/skywalker-88/stormgate-ddos/internal/detect"
	"github.com/skywalker-88/stormgate-ddos/internal/features"
	"github.com/skywalker-88/stormgate-ddos/internal/flowshard"
	"github.com/skywalker-88/stormgate-ddos/internal/ipagg"
	"github.com/skywalker-88/stormgate-ddos/internal/transport"
	"github.com/skywalker-88/stormgate-ddos/internal/wire"
	"github.com/skywalker-88/stormgate-ddos/pkg/config"
	"github.com/skywalker-88/stormgate-ddos/pkg/metrics"
)

// Detectors builds the fixed trio in the order the Alert's
// EntropyDetected/CusumDetected/MLDetected fields assume: entropy, cusum,
// ml. The slice type is what makes the vote threshold scale with detector
// count rather than being pinned to 2 of 3 (internal/detect, spec.md §9).
func Detectors(cfg *config.Config) []detect.Detector {
	return []detect.Detector{
		detect.NewEntropyDetector(cfg.Entropy.Threshold),
		detect.NewCusumDetector(cfg.Cusum.WindowSize, cfg.Cusum.Slack, cfg.Cusum.Threshold, cfg.Cusum.WarmMean, cfg.Cusum.WarmStd),
		detect.NewMLDetector(cfg.ML.Weights, cfg.ML.Threshold),
	}
}

// Run executes the pipeline for rank against datasetRoot and returns the
// Alert to send. trueLabel carries the external ground-truth hint
// (spec.md §3) through unchanged; this package never computes it.
func Run(rank int, datasetRoot string, cfg *config.Config, detectors []detect.Detector, trueLabel int) wire.Alert {
	start := time.Now()

	records, err := flowshard.Load(datasetRoot, rank, cfg.Limits.MaxFlows)
	if err != nil {
		log.Error().Err(err).Int("rank", rank).Msg("shard_load_failed")
	}
	if len(records) == 0 {
		log.Warn().Int("rank", rank).Msg("no_data_worker")
		a := wire.Empty(rank)
		a.TrueLabel = int32(trueLabel)
		printSummary(rank, a)
		return a
	}

	tbl := ipagg.Build(records, cfg.Limits.MaxUniqueIPs)
	f := features.Extract(records, tbl)

	vote := detect.Run(detectors, f)
	for i, d := range detectors {
		if votedAt(vote, i) {
			metrics.DetectorFiresTotal.WithLabelValues(d.Name()).Inc()
		}
	}

	suspiciousIP := wire.NoneIP
	if vote.Attack {
		suspiciousIP = attribute.SuspiciousIP(tbl, cfg.Attribution.HotIPShare, f.TopIP)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	a := wire.Alert{
		WorkerRank:       int32(rank),
		AttackFlag:       boolToInt32(vote.Attack),
		SuspiciousIP:     suspiciousIP,
		Entropy:          f.Entropy,
		AvgRate:          f.AvgRate,
		SpikeScore:       f.SpikeScore,
		TotalPackets:     f.TotalPackets,
		TotalFlows:       f.TotalFlows,
		EntropyDetected:  boolToInt32(votedAt(vote, 0)),
		CusumDetected:    boolToInt32(votedAt(vote, 1)),
		MLDetected:       boolToInt32(votedAt(vote, 2)),
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		MemoryUsedKB:     int64(mem.HeapAlloc / 1024),
		TrueLabel:        int32(trueLabel),
	}

	log.Info().
		Int("rank", rank).
		Float64("entropy", f.Entropy).
		Float64("avg_rate", f.AvgRate).
		Bool("entropy_detected", votedAt(vote, 0)).
		Bool("cusum_detected", votedAt(vote, 1)).
		Bool("ml_detected", votedAt(vote, 2)).
		Bool("attack", vote.Attack).
		Str("suspicious_ip", suspiciousIP).
		Msg("worker_detection_complete")

	printSummary(rank, a)
	return a
}

// printSummary emits the "[Worker r] Detection complete: ..." banner
// spec.md §6 requires on stdout, independent of the structured log above.
func printSummary(rank int, a wire.Alert) {
	fmt.Printf("[Worker %d] Detection complete: entropy=%d, cusum=%d, ml=%d, attack=%d\n",
		rank, a.EntropyDetected, a.CusumDetected, a.MLDetected, a.AttackFlag)
}

func votedAt(v detect.Vote, i int) bool {
	if i >= len(v.Fired) {
		return false
	}
	return v.Fired[i]
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Send transmits a to the coordinator; the worker's one blocking
// suspension point (spec.md §5).
func Send(coordAddr string, a wire.Alert) error {
	return transport.Send(coordAddr, a)
}

// DeriveTrueLabel infers the ground-truth attack label from the dataset
// root path when no explicit label is supplied: directories named after
// the DrDoS or Syn CIC-DDoS2019 attack captures hold attack traffic, all
// others benign (original_source/detector_enhanced.c's true_label
// assignment — a supplemented feature, not in spec.md's own text).
func DeriveTrueLabel(datasetRoot string) int {
	if strings.Contains(datasetRoot, "DrDoS") || strings.Contains(datasetRoot, "Syn") {
		return 1
	}
	return 0
}
