package attribute

import (
	"testing"

	"github.com/skywalker-88/stormgate-ddos/internal/flowshard"
	"github.com/skywalker-88/stormgate-ddos/internal/ipagg"
)

func TestHotIPFlood(t *testing.T) {
	var records []flowshard.FlowRecord
	for i := 0; i < 95; i++ {
		records = append(records, flowshard.FlowRecord{SrcIP: "10.0.0.1", Packets: 1})
	}
	for i := 0; i < 5; i++ {
		records = append(records, flowshard.FlowRecord{SrcIP: "10.0.0.2", Packets: 1})
	}
	tbl := ipagg.Build(records, 4096)

	ip, ok := HotIP(tbl, 0.4)
	if !ok || ip != "10.0.0.1" {
		t.Errorf("want hot ip 10.0.0.1, got %q ok=%v", ip, ok)
	}
}

func TestNoHotIPBelowCutoff(t *testing.T) {
	records := []flowshard.FlowRecord{
		{SrcIP: "a", Packets: 1},
		{SrcIP: "b", Packets: 1},
		{SrcIP: "c", Packets: 1},
	}
	tbl := ipagg.Build(records, 4096)

	if _, ok := HotIP(tbl, 0.4); ok {
		t.Error("expected no hot IP when no source exceeds the cutoff")
	}
}

func TestSuspiciousIPFallsBackToTopIP(t *testing.T) {
	// 'a' holds 2 of 6 packets (share 0.33), under the 0.4 cutoff, so no
	// hot IP exists and the supplied top_ip is returned.
	records := []flowshard.FlowRecord{
		{SrcIP: "a", Packets: 2},
		{SrcIP: "b", Packets: 1},
		{SrcIP: "c", Packets: 1},
		{SrcIP: "d", Packets: 1},
		{SrcIP: "e", Packets: 1},
	}
	tbl := ipagg.Build(records, 4096)

	if got := SuspiciousIP(tbl, 0.4, "a"); got != "a" {
		t.Errorf("want fallback top_ip 'a', got %q", got)
	}
}
