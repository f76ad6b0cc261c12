// Package ipagg groups flow records by source IP (spec.md §4.2).
//
// spec.md §9 notes the reference's linear array scan is "acceptable but
// wasteful" at MAX_UNIQUE_IPS=4096 and permits substituting a hash map
// "preserving insertion order only for the tie-break" in §4.3's argmax.
// Table does exactly that: a map from IP to slice index for O(1) lookup
// plus an insertion-ordered slice of IpStats for the deterministic
// first-occurrence tie-break.
package ipagg

import "github.com/skywalker-88/stormgate-ddos/internal/flowshard"

// IpStat is a per-source-IP aggregate within a single worker's shard
// (spec.md §3). Invariant: PacketCount > 0 for every live entry.
type IpStat struct {
	IP          string
	PacketCount int64
	ByteCount   int64
}

// Table is the aggregator's output: IpStats in first-sighting order, plus
// the shard-wide totals build_ip_stats (detector.c) derives in the same
// pass.
type Table struct {
	Stats          []IpStat
	index          map[string]int
	TotalPackets   int64
	TotalBytes     int64
	MinTimestamp   int64
	MaxTimestamp   int64
	maxUniqueIPs   int
}

// New builds an empty table capped at maxUniqueIPs distinct source IPs.
func New(maxUniqueIPs int) *Table {
	return &Table{
		index:        make(map[string]int),
		maxUniqueIPs: maxUniqueIPs,
	}
}

// Build consumes records exactly once, accumulating per-IP and global
// totals. When the table is full, further new IPs are silently dropped
// from the per-IP breakdown but still counted toward the global totals
// (spec.md §4.2).
func Build(records []flowshard.FlowRecord, maxUniqueIPs int) *Table {
	t := New(maxUniqueIPs)
	if len(records) == 0 {
		return t
	}

	t.MinTimestamp = records[0].Timestamp
	t.MaxTimestamp = records[0].Timestamp

	for _, r := range records {
		if idx, ok := t.index[r.SrcIP]; ok {
			t.Stats[idx].PacketCount += r.Packets
			t.Stats[idx].ByteCount += r.Bytes
		} else if t.maxUniqueIPs <= 0 || len(t.Stats) < t.maxUniqueIPs {
			t.index[r.SrcIP] = len(t.Stats)
			t.Stats = append(t.Stats, IpStat{
				IP:          r.SrcIP,
				PacketCount: r.Packets,
				ByteCount:   r.Bytes,
			})
		}
		// table full and IP unseen: drop the per-IP breakdown, still count globally.

		t.TotalPackets += r.Packets
		t.TotalBytes += r.Bytes
		if r.Timestamp < t.MinTimestamp {
			t.MinTimestamp = r.Timestamp
		}
		if r.Timestamp > t.MaxTimestamp {
			t.MaxTimestamp = r.Timestamp
		}
	}

	return t
}

// UniqueIPs reports how many distinct source IPs were tracked (bounded by
// maxUniqueIPs, not the true cardinality of the shard).
func (t *Table) UniqueIPs() int { return len(t.Stats) }

// TopIP returns the IpStat with the highest PacketCount, ties broken by
// first occurrence (spec.md §4.3).
func (t *Table) TopIP() (IpStat, bool) {
	if len(t.Stats) == 0 {
		return IpStat{}, false
	}
	top := t.Stats[0]
	for _, s := range t.Stats[1:] {
		if s.PacketCount > top.PacketCount {
			top = s
		}
	}
	return top, true
}
