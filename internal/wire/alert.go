// Package wire defines the one message type that crosses the process
// boundary between a worker and the coordinator, and its encoding.
//
// spec.md §9 flags that sending a packed struct as an opaque byte buffer is
// unsafe across heterogeneous ranks, so Alert is framed explicitly here:
// fixed-width little-endian integers and floats, plus a length-prefixed
// string for the suspicious IP. No other framing, no acks, no heartbeats
// (spec.md §6).
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// IPStrMaxLen bounds suspicious_ip the way the original IP_STR_LEN (32,
// including NUL) does.
const IPStrMaxLen = 31

// Alert is the single wire message a worker sends exactly once (spec.md §3).
type Alert struct {
	WorkerRank       int32
	AttackFlag       int32
	SuspiciousIP     string
	Entropy          float64
	AvgRate          float64
	SpikeScore       float64
	TotalPackets     int64
	TotalFlows       int64
	EntropyDetected  int32
	CusumDetected    int32
	MLDetected       int32
	ProcessingTimeMs float64
	MemoryUsedKB     int64
	TrueLabel        int32
}

// NoneIP is the literal sentinel spec.md §4.7 requires when no attack verdict
// is raised locally.
const NoneIP = "NONE"

// Encode writes the length-prefixed wire form of a to w.
func (a Alert) Encode(w io.Writer) error {
	var buf bytes.Buffer

	ip := a.SuspiciousIP
	if len(ip) > IPStrMaxLen {
		ip = ip[:IPStrMaxLen]
	}

	fields := []any{
		a.WorkerRank,
		a.AttackFlag,
		a.Entropy,
		a.AvgRate,
		a.SpikeScore,
		a.TotalPackets,
		a.TotalFlows,
		a.EntropyDetected,
		a.CusumDetected,
		a.MLDetected,
		a.ProcessingTimeMs,
		a.MemoryUsedKB,
		a.TrueLabel,
	}
	for _, f := range fields {
		if err := binary.Write(&buf, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("wire: encode field: %w", err)
		}
	}

	ipBytes := []byte(ip)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(ipBytes))); err != nil {
		return fmt.Errorf("wire: encode ip length: %w", err)
	}
	if _, err := buf.Write(ipBytes); err != nil {
		return fmt.Errorf("wire: encode ip bytes: %w", err)
	}

	frame := make([]byte, 4+buf.Len())
	binary.LittleEndian.PutUint32(frame[:4], uint32(buf.Len()))
	copy(frame[4:], buf.Bytes())

	_, err := w.Write(frame)
	return err
}

// Decode reads one framed Alert from r.
func Decode(r io.Reader) (Alert, error) {
	var a Alert

	var frameLen uint32
	if err := binary.Read(r, binary.LittleEndian, &frameLen); err != nil {
		return a, fmt.Errorf("wire: read frame length: %w", err)
	}

	body := make([]byte, frameLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return a, fmt.Errorf("wire: read frame body: %w", err)
	}
	br := bytes.NewReader(body)

	fields := []any{
		&a.WorkerRank,
		&a.AttackFlag,
		&a.Entropy,
		&a.AvgRate,
		&a.SpikeScore,
		&a.TotalPackets,
		&a.TotalFlows,
		&a.EntropyDetected,
		&a.CusumDetected,
		&a.MLDetected,
		&a.ProcessingTimeMs,
		&a.MemoryUsedKB,
		&a.TrueLabel,
	}
	for _, f := range fields {
		if err := binary.Read(br, binary.LittleEndian, f); err != nil {
			return a, fmt.Errorf("wire: decode field: %w", err)
		}
	}

	var ipLen uint32
	if err := binary.Read(br, binary.LittleEndian, &ipLen); err != nil {
		return a, fmt.Errorf("wire: decode ip length: %w", err)
	}
	ipBytes := make([]byte, ipLen)
	if _, err := io.ReadFull(br, ipBytes); err != nil {
		return a, fmt.Errorf("wire: decode ip bytes: %w", err)
	}
	a.SuspiciousIP = string(ipBytes)

	return a, nil
}

// Empty builds the zero-valued, no-data Alert spec.md §4.1/§8 scenario 1
// requires when a worker's shard file is absent.
func Empty(rank int) Alert {
	return Alert{
		WorkerRank:   int32(rank),
		SuspiciousIP: NoneIP,
	}
}
