package wire

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := Alert{
		WorkerRank:       3,
		AttackFlag:       1,
		SuspiciousIP:     "10.0.0.1",
		Entropy:          0.3612,
		AvgRate:          100.0,
		SpikeScore:       19.0,
		TotalPackets:     1000,
		TotalFlows:       1000,
		EntropyDetected:  1,
		CusumDetected:    0,
		MLDetected:       1,
		ProcessingTimeMs: 12.5,
		MemoryUsedKB:     4096,
		TrueLabel:        1,
	}

	var buf bytes.Buffer
	if err := in.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch:\n  in  = %+v\n  out = %+v", in, out)
	}
}

func TestEncodeTruncatesLongIP(t *testing.T) {
	longIP := strings.Repeat("9", IPStrMaxLen+10)
	in := Alert{SuspiciousIP: longIP}

	var buf bytes.Buffer
	if err := in.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out.SuspiciousIP) != IPStrMaxLen {
		t.Fatalf("expected truncation to %d chars, got %d", IPStrMaxLen, len(out.SuspiciousIP))
	}
}

func TestEmptyAlert(t *testing.T) {
	a := Empty(2)
	if a.WorkerRank != 2 || a.SuspiciousIP != NoneIP || a.AttackFlag != 0 {
		t.Fatalf("unexpected empty alert: %+v", a)
	}
}

func TestDecodeMultipleFramesFromStream(t *testing.T) {
	var buf bytes.Buffer
	a1 := Alert{WorkerRank: 1, SuspiciousIP: "1.1.1.1"}
	a2 := Alert{WorkerRank: 2, SuspiciousIP: "2.2.2.2"}
	if err := a1.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if err := a2.Encode(&buf); err != nil {
		t.Fatal(err)
	}

	out1, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if out1.WorkerRank != 1 || out2.WorkerRank != 2 {
		t.Fatalf("frames decoded out of order: %+v, %+v", out1, out2)
	}
}
