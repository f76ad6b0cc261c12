// Package metricslog appends the coordinator's per-run result files:
// alerts.csv, performance.csv, blocking.csv, and iptables_rules.txt
// (spec.md §6), grounded on original_source/detector.c's
// append_alert_log/log_performance_metrics/log_blocking_stats/apply_acl
// file-append pattern, translated from raw fprintf rows to encoding/csv
// writers. Rank 0 is the only writer (spec.md §5) — callers never need
// cross-process locking.
package metricslog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/skywalker-88/stormgate-ddos/internal/blocking"
	"github.com/skywalker-88/stormgate-ddos/internal/wire"
)

// AlertRow is one worker's contribution to alerts.csv, plus the two
// coordinator-decided columns (global_attack, chosen_ip) appended to every
// row (spec.md §6).
type AlertRow struct {
	Alert         wire.Alert
	GlobalAttack  int
	ChosenIP      string
}

// Logger appends rows under dir, creating the directory (but never
// truncating existing files — append mode, per spec.md §5) on first write.
type Logger struct {
	dir string
}

func New(dir string) *Logger { return &Logger{dir: dir} }

func (l *Logger) path(name string) string { return filepath.Join(l.dir, name) }

func (l *Logger) openAppend(name string) (*os.File, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("metricslog: create %s: %w", l.dir, err)
	}
	f, err := os.OpenFile(l.path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("metricslog: open %s: %w", name, err)
	}
	return f, nil
}

// AppendAlerts writes one row per worker to alerts.csv, in the column
// order spec.md §6 specifies.
func (l *Logger) AppendAlerts(rows []AlertRow) error {
	f, err := l.openAppend("alerts.csv")
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, r := range rows {
		a := r.Alert
		record := []string{
			strconv.Itoa(int(a.WorkerRank)),
			strconv.Itoa(int(a.AttackFlag)),
			a.SuspiciousIP,
			formatFloat(a.Entropy),
			formatFloat(a.AvgRate),
			formatFloat(a.SpikeScore),
			strconv.FormatInt(a.TotalPackets, 10),
			strconv.FormatInt(a.TotalFlows, 10),
			strconv.Itoa(int(a.EntropyDetected)),
			strconv.Itoa(int(a.CusumDetected)),
			strconv.Itoa(int(a.MLDetected)),
			strconv.Itoa(r.GlobalAttack),
			r.ChosenIP,
			formatFloat(a.ProcessingTimeMs),
			strconv.FormatInt(a.MemoryUsedKB, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("metricslog: write alert row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// Performance is one run's aggregate PerformanceMetrics row (spec.md
// §4.8, §6).
type Performance struct {
	LatencyMs float64
	PPS       float64
	Gbps      float64
	Packets   int64
	Bytes     int64
	TP, FP, TN, FN int
	CPUPercent float64
	MemKB      int64
	CommMs     float64
}

// AppendPerformance writes one row to performance.csv.
func (l *Logger) AppendPerformance(p Performance) error {
	f, err := l.openAppend("performance.csv")
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := []string{
		formatFloat(p.LatencyMs),
		formatFloat(p.PPS),
		formatFloat(p.Gbps),
		strconv.FormatInt(p.Packets, 10),
		strconv.FormatInt(p.Bytes, 10),
		strconv.Itoa(p.TP),
		strconv.Itoa(p.FP),
		strconv.Itoa(p.TN),
		strconv.Itoa(p.FN),
		formatFloat(p.CPUPercent),
		strconv.FormatInt(p.MemKB, 10),
		formatFloat(p.CommMs),
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("metricslog: write performance row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// AppendBlocking writes one row to blocking.csv for a confirmed attack.
func (l *Logger) AppendBlocking(s blocking.Stats) error {
	f, err := l.openAppend("blocking.csv")
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := []string{
		s.BlockedIP,
		strconv.FormatInt(s.PacketsBlocked, 10),
		strconv.FormatInt(s.LegitimateBlocked, 10),
		formatFloat(s.Efficiency),
		formatFloat(s.Collateral),
		formatFloat(s.BlockTimeMs),
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("metricslog: write blocking row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// AppendIptablesRules appends the two simulated RTBH/ACL shell lines for
// a block (spec.md §6).
func (l *Logger) AppendIptablesRules(rules []string) error {
	f, err := l.openAppend("iptables_rules.txt")
	if err != nil {
		return err
	}
	defer f.Close()

	for _, rule := range rules {
		if _, err := fmt.Fprintln(f, rule); err != nil {
			return fmt.Errorf("metricslog: write iptables rule: %w", err)
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}
