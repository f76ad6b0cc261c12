package blocking

import (
	"context"
	"testing"
)

func TestSimulateAppliesFixedRates(t *testing.T) {
	s := Simulate("10.0.0.1", 1000, 0.95, 0.05, 12.5)
	if s.PacketsBlocked != 950 {
		t.Errorf("packets_blocked = %d, want 950", s.PacketsBlocked)
	}
	if s.LegitimateBlocked != 50 {
		t.Errorf("legitimate_blocked = %d, want 50", s.LegitimateBlocked)
	}
	if s.BlockedIP != "10.0.0.1" {
		t.Errorf("blocked_ip = %q, want 10.0.0.1", s.BlockedIP)
	}
}

func TestIptablesRules(t *testing.T) {
	rules := IptablesRules("10.0.0.1")
	if len(rules) != 2 {
		t.Fatalf("want 2 rules, got %d", len(rules))
	}
	if rules[0] != "iptables -A INPUT -s 10.0.0.1 -j DROP" {
		t.Errorf("unexpected INPUT rule: %q", rules[0])
	}
	if rules[1] != "iptables -A OUTPUT -d 10.0.0.1 -j DROP" {
		t.Errorf("unexpected OUTPUT rule: %q", rules[1])
	}
}

func TestNoOpRegistryNeverBlocksAnything(t *testing.T) {
	r := NewRegistry("", 300)
	ctx := context.Background()

	blocked, err := r.AlreadyBlocked(ctx, "10.0.0.1")
	if err != nil || blocked {
		t.Fatalf("no-op registry should report not-blocked, got blocked=%v err=%v", blocked, err)
	}
	if err := r.MarkBlocked(ctx, "10.0.0.1", "test"); err != nil {
		t.Fatalf("no-op MarkBlocked should not error: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("no-op Close should not error: %v", err)
	}
}
