// Package attribute picks the hot source IP, if any, for a worker's shard
// (spec.md §4.7, grounded on original_source/detector.c's detect_hot_ip).
package attribute

import "github.com/skywalker-88/stormgate-ddos/internal/ipagg"

// HotIP returns the dominant source IP and true if its packet share exceeds
// cutoff (spec.md default 0.4). Ties for the top IP go to the first-seen
// source (ipagg.Table.TopIP); an empty table reports ("", false).
func HotIP(tbl *ipagg.Table, cutoff float64) (string, bool) {
	top, ok := tbl.TopIP()
	if !ok || tbl.TotalPackets <= 0 {
		return "", false
	}
	share := float64(top.PacketCount) / float64(tbl.TotalPackets)
	if share > cutoff {
		return top.IP, true
	}
	return "", false
}

// SuspiciousIP resolves the Alert's suspicious_ip field: the hot IP when
// one exists, else the plain top_ip, used only when the worker's local
// vote fires (spec.md §4.7).
func SuspiciousIP(tbl *ipagg.Table, cutoff float64, topIP string) string {
	if hot, ok := HotIP(tbl, cutoff); ok {
		return hot
	}
	return topIP
}
