package config

import "testing"

func TestDefaultMatchesSpecConstants(t *testing.T) {
	c := Default()

	if c.Limits.MaxFlows != 100000 {
		t.Errorf("MaxFlows = %d, want 100000", c.Limits.MaxFlows)
	}
	if c.Limits.MaxUniqueIPs != 4096 {
		t.Errorf("MaxUniqueIPs = %d, want 4096", c.Limits.MaxUniqueIPs)
	}
	if c.Cusum.WindowSize != 100 {
		t.Errorf("Cusum.WindowSize = %d, want 100", c.Cusum.WindowSize)
	}
	if c.Cusum.Slack != 0.5 || c.Cusum.Threshold != 5.0 {
		t.Errorf("Cusum slack/threshold = %v/%v, want 0.5/5.0", c.Cusum.Slack, c.Cusum.Threshold)
	}
	if len(c.ML.Weights) != 10 {
		t.Errorf("ML.Weights len = %d, want 10", len(c.ML.Weights))
	}
	if c.ML.Threshold != 0.6 {
		t.Errorf("ML.Threshold = %v, want 0.6", c.ML.Threshold)
	}
	if c.Attribution.HotIPShare != 0.4 {
		t.Errorf("Attribution.HotIPShare = %v, want 0.4", c.Attribution.HotIPShare)
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load("does/not/exist.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Entropy.Threshold != want.Entropy.Threshold {
		t.Errorf("expected default config when file is absent")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("DDOS_CONFIG_TEST_VAR", "from-env")
	if got := EnvOr("DDOS_CONFIG_TEST_VAR", "fallback"); got != "from-env" {
		t.Errorf("EnvOr = %q, want from-env", got)
	}
	if got := EnvOr("DDOS_CONFIG_TEST_VAR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("EnvOr = %q, want fallback", got)
	}
}
