package ipagg

import (
	"testing"

	"github.com/skywalker-88/stormgate-ddos/internal/flowshard"
)

func rec(ip string, bytes, ts, packets int64) flowshard.FlowRecord {
	return flowshard.FlowRecord{SrcIP: ip, Bytes: bytes, Timestamp: ts, Packets: packets}
}

func TestBuildConservesTotals(t *testing.T) {
	records := []flowshard.FlowRecord{
		rec("1.1.1.1", 100, 10, 2),
		rec("2.2.2.2", 200, 20, 3),
		rec("1.1.1.1", 50, 15, 1),
	}
	tbl := Build(records, 4096)

	var sumPackets, sumBytes int64
	for _, s := range tbl.Stats {
		sumPackets += s.PacketCount
		sumBytes += s.ByteCount
	}
	if sumPackets != tbl.TotalPackets {
		t.Errorf("sum(packet_count)=%d != total_packets=%d", sumPackets, tbl.TotalPackets)
	}
	if sumBytes != tbl.TotalBytes {
		t.Errorf("sum(byte_count)=%d != total_bytes=%d", sumBytes, tbl.TotalBytes)
	}
	if tbl.TotalPackets != 6 || tbl.TotalBytes != 350 {
		t.Errorf("unexpected totals: packets=%d bytes=%d", tbl.TotalPackets, tbl.TotalBytes)
	}
	if tbl.MinTimestamp != 10 || tbl.MaxTimestamp != 20 {
		t.Errorf("unexpected ts span: min=%d max=%d", tbl.MinTimestamp, tbl.MaxTimestamp)
	}
}

func TestTopIPFirstOccurrenceTieBreak(t *testing.T) {
	records := []flowshard.FlowRecord{
		rec("a", 10, 1, 5),
		rec("b", 10, 1, 5), // ties with a
		rec("c", 10, 1, 1),
	}
	tbl := Build(records, 4096)
	top, ok := tbl.TopIP()
	if !ok {
		t.Fatal("expected a top IP")
	}
	if top.IP != "a" {
		t.Errorf("want first-seen tie winner 'a', got %q", top.IP)
	}
}

func TestFullTableDropsNewIPsButKeepsGlobalTotals(t *testing.T) {
	records := []flowshard.FlowRecord{
		rec("a", 10, 1, 1),
		rec("b", 10, 1, 1), // dropped from per-IP breakdown, cap=1
	}
	tbl := Build(records, 1)

	if tbl.UniqueIPs() != 1 {
		t.Fatalf("want 1 tracked IP, got %d", tbl.UniqueIPs())
	}
	if tbl.TotalPackets != 2 || tbl.TotalBytes != 20 {
		t.Errorf("global totals should still include dropped IP's traffic: packets=%d bytes=%d",
			tbl.TotalPackets, tbl.TotalBytes)
	}
}

func TestEmptyShard(t *testing.T) {
	tbl := Build(nil, 4096)
	if tbl.UniqueIPs() != 0 || tbl.TotalPackets != 0 {
		t.Errorf("expected zero-valued table for empty shard")
	}
	if _, ok := tbl.TopIP(); ok {
		t.Errorf("expected no top IP for empty shard")
	}
}
