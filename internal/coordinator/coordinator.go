// Package coordinator implements the rank-0 fuser: it collects every
// worker's Alert, votes on a global verdict, attributes and (simulated)
// blocks the chosen source, computes the run's performance metrics, and
// appends the result logs (spec.md §4.8). Grounded on
// internal/httpserver/router.go's dependency-injection idiom — Deps is
// assembled once at startup the way NewRouter assembles chi middleware.
package coordinator

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/skywalker-88/stormgate-ddos/internal/blocking"
	"github.com/skywalker-88/stormgate-ddos/internal/metricslog"
	"github.com/skywalker-88/stormgate-ddos/internal/transport"
	"github.com/skywalker-88/stormgate-ddos/internal/wire"
	"github.com/skywalker-88/stormgate-ddos/pkg/config"
	"github.com/skywalker-88/stormgate-ddos/pkg/metrics"
)

// Deps are the coordinator's assembled dependencies.
type Deps struct {
	Listener   *transport.Listener
	Logger     *metricslog.Logger
	Registry   *blocking.Registry // nil is a valid, no-op registry
	Cfg        *config.Config
	NumWorkers int
	Now        func() int64 // UnixNano clock; override in tests
}

// Result is the coordinator's verdict for the run, returned mainly so
// cmd/coordinator and tests can inspect it without re-parsing stdout.
type Result struct {
	GlobalAttack bool
	ChosenIP     string
	AttackVotes  int
	Performance  metricslog.Performance
	BlockStats   *blocking.Stats
}

// Run collects exactly NumWorkers alerts, fuses them into a verdict, and
// appends every result log. It blocks until all alerts have arrived — the
// coordinator's only suspension point (spec.md §5).
func Run(deps Deps) (Result, error) {
	start := time.Now()

	received, err := deps.Listener.Collect(deps.NumWorkers, deps.Now)
	if err != nil {
		return Result{}, fmt.Errorf("coordinator: collect alerts: %w", err)
	}
	for _, r := range received {
		metrics.AlertsReceivedTotal.WithLabelValues(fmt.Sprint(r.Alert.WorkerRank)).Inc()
	}

	attackVotes, chosenIdx := vote(received)
	threshold := int(math.Ceil(float64(deps.NumWorkers) / 2))
	globalAttack := attackVotes >= threshold && chosenIdx != -1

	chosenIP := ""
	var blockStats *blocking.Stats
	if globalAttack {
		chosenIP = received[chosenIdx].Alert.SuspiciousIP
		blockStats = applyBlock(deps, received[chosenIdx].Alert, attackVotes, deps.NumWorkers)
	} else {
		fmt.Println()
		fmt.Println("[COORDINATOR] No global attack detected.")
		fmt.Printf("  Suspicious votes: %d / %d workers\n", attackVotes, deps.NumWorkers)
	}

	perf := computePerformance(received, start)
	if err := deps.Logger.AppendPerformance(perf); err != nil {
		log.Error().Err(err).Msg("performance_log_failed")
	}
	if blockStats != nil {
		if err := deps.Logger.AppendBlocking(*blockStats); err != nil {
			log.Error().Err(err).Msg("blocking_log_failed")
		}
	}
	if err := deps.Logger.AppendAlerts(alertRows(received, globalAttack, chosenIP)); err != nil {
		log.Error().Err(err).Msg("alerts_log_failed")
	}

	printAccuracySummary(perf)

	metrics.RunsTotal.WithLabelValues(fmt.Sprint(globalAttack)).Inc()
	metrics.RunLatencySeconds.Observe(perf.LatencyMs / 1000.0)

	return Result{
		GlobalAttack: globalAttack,
		ChosenIP:     chosenIP,
		AttackVotes:  attackVotes,
		Performance:  perf,
		BlockStats:   blockStats,
	}, nil
}

// vote counts local attack votes and picks chosen_index: the voting alert
// with the highest avg_rate, first occurrence winning ties (spec.md §4.8
// step 2). Order-invariant except for that acknowledged tie-break
// (spec.md §5).
func vote(received []transport.Received) (attackVotes, chosenIdx int) {
	chosenIdx = -1
	for i, r := range received {
		if r.Alert.AttackFlag != 1 {
			continue
		}
		attackVotes++
		if chosenIdx == -1 || r.Alert.AvgRate > received[chosenIdx].Alert.AvgRate {
			chosenIdx = i
		}
	}
	return attackVotes, chosenIdx
}

// applyBlock prints the confirmation banner, simulates the RTBH/ACL
// response (skipping the re-announcement if the registry already holds
// this IP from a prior run), and returns the synthesized BlockingStats
// (spec.md §4.8 step 4).
func applyBlock(deps Deps, winner wire.Alert, attackVotes, numWorkers int) *blocking.Stats {
	ip := winner.SuspiciousIP

	fmt.Println()
	fmt.Println("[COORDINATOR] DDoS ATTACK CONFIRMED")
	fmt.Printf("  Suspicious IP (aggregated): %s\n", ip)
	fmt.Printf("  Votes: %d / %d workers\n", attackVotes, numWorkers)
	fmt.Printf("  Detection methods: Entropy=%d, CUSUM=%d, ML=%d\n",
		winner.EntropyDetected, winner.CusumDetected, winner.MLDetected)

	ctx := context.Background()
	alreadyBlocked := false
	if deps.Registry != nil {
		var err error
		alreadyBlocked, err = deps.Registry.AlreadyBlocked(ctx, ip)
		if err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("block_registry_lookup_failed")
		}
	}

	blockStart := time.Now()
	if !alreadyBlocked {
		fmt.Printf("[RTBH] Blackholing traffic to/from %s\n", ip)
		fmt.Printf("[ACL ] Installing drop rule for IP: %s\n", ip)
		if err := deps.Logger.AppendIptablesRules(blocking.IptablesRules(ip)); err != nil {
			log.Error().Err(err).Msg("iptables_rules_log_failed")
		}
		if deps.Registry != nil {
			if err := deps.Registry.MarkBlocked(ctx, ip, "ddos"); err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("block_registry_mark_failed")
			}
		}
	} else {
		log.Info().Str("ip", ip).Msg("ip_already_blocked_skipping_reannounce")
	}
	metrics.BlockedIPsTotal.WithLabelValues(fmt.Sprint(alreadyBlocked)).Inc()

	stats := blocking.Simulate(ip, winner.TotalPackets, deps.Cfg.Blocking.Efficiency, deps.Cfg.Blocking.Collateral,
		float64(time.Since(blockStart).Microseconds())/1000.0)
	return &stats
}

// computePerformance derives the run's PerformanceMetrics (spec.md §4.8
// step 5): latency since Run started, aggregate throughput, and the 2x2
// confusion matrix from each alert's (attack_flag, true_label) pair.
// Communication overhead is the sum of inter-arrival deltas the transport
// layer timestamped on Collect.
func computePerformance(received []transport.Received, start time.Time) metricslog.Performance {
	var packets, bytesSent int64
	var tp, fp, tn, fn int
	var commNs int64

	for i, r := range received {
		a := r.Alert
		packets += a.TotalPackets
		bytesSent += a.TotalPackets * 500 // fixed per-packet size assumption, spec.md §4.8 step 5

		switch {
		case a.AttackFlag == 1 && a.TrueLabel == 1:
			tp++
		case a.AttackFlag == 1 && a.TrueLabel == 0:
			fp++
		case a.AttackFlag == 0 && a.TrueLabel == 0:
			tn++
		case a.AttackFlag == 0 && a.TrueLabel == 1:
			fn++
		}

		if i > 0 {
			commNs += r.AcceptedAt - received[i-1].AcceptedAt
		}
	}

	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0
	latencyS := latencyMs / 1000.0
	if latencyS <= 0 {
		latencyS = 0.001
	}

	pps := float64(packets) / latencyS
	gbps := 8 * (float64(packets) * 500) / (latencyS * 1e9)

	return metricslog.Performance{
		LatencyMs: latencyMs,
		PPS:       pps,
		Gbps:      gbps,
		Packets:   packets,
		Bytes:     bytesSent,
		TP:        tp,
		FP:        fp,
		TN:        tn,
		FN:        fn,
		MemKB:     currentMemKB(),
		CommMs:    float64(commNs) / 1e6,
	}
}

func alertRows(received []transport.Received, globalAttack bool, chosenIP string) []metricslog.AlertRow {
	ip := wire.NoneIP
	if chosenIP != "" {
		ip = chosenIP
	}
	rows := make([]metricslog.AlertRow, len(received))
	for i, r := range received {
		rows[i] = metricslog.AlertRow{
			Alert:        r.Alert,
			GlobalAttack: boolToInt(globalAttack),
			ChosenIP:     ip,
		}
	}
	return rows
}

// printAccuracySummary prints the precision/recall/F1 banner
// (original_source/detector.c's calculate_accuracy_metrics), guarding the
// divide-by-zero cases a run with no positive predictions/labels hits.
func printAccuracySummary(p metricslog.Performance) {
	fmt.Println()
	fmt.Println("[METRICS] Accuracy Statistics:")
	fmt.Printf("  True Positives:  %d\n", p.TP)
	fmt.Printf("  False Positives: %d\n", p.FP)
	fmt.Printf("  True Negatives:  %d\n", p.TN)
	fmt.Printf("  False Negatives: %d\n", p.FN)

	precision := ratio(p.TP, p.TP+p.FP)
	recall := ratio(p.TP, p.TP+p.FN)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}
	fmt.Printf("  Precision: %.3f\n", precision)
	fmt.Printf("  Recall:    %.3f\n", recall)
	fmt.Printf("  F1-Score:  %.3f\n", f1)
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func currentMemKB() int64 {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return int64(mem.HeapAlloc / 1024)
}
