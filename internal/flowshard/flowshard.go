// Package flowshard reads one worker's partition of flow records from disk.
// The preprocessing utility that writes partitions/part_<rank>.csv is an
// external collaborator (spec.md §1, §6); this package only consumes its
// output.
//
// Only the basic grammar (spec.md §4.1, §6) is implemented. spec.md §9
// notes the reference's "enhanced" parser reads the original CIC-DDoS2019
// CSV, not the shard format this preprocessor emits — implementing it here
// would silently accept the wrong input shape, so it is left out rather
// than "fixed" into something the spec doesn't describe.
package flowshard

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// FlowRecord is one input row (spec.md §3). Immutable once loaded.
type FlowRecord struct {
	SrcIP     string
	DstIP     string
	Bytes     int64
	Timestamp int64
	Protocol  int
	SrcPort   int
	DstPort   int
	Packets   int64
}

const (
	protocolTCP = 6
	protocolUDP = 17
)

// headerMarkers are substrings that mean "this line is a header, skip it"
// (spec.md §4.1: "or any line containing 'Source IP' / 'Flow ID'").
var headerMarkers = []string{"Source IP", "Flow ID"}

// ShardPath returns the path a given rank's shard lives at under root.
func ShardPath(root string, rank int) string {
	return filepath.Join(root, "partitions", "part_"+strconv.Itoa(rank)+".csv")
}

// Load reads rank's shard from root, capping at maxFlows records. A missing
// file is not an error: it returns (nil, nil) so the caller can fall back to
// the "no-data" Alert (spec.md §4.1's stated behavior, and §8 scenario 1).
func Load(root string, rank int, maxFlows int) ([]FlowRecord, error) {
	path := ShardPath(root, rank)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Int("rank", rank).Str("path", path).Msg("shard_missing")
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged lines; we validate field count ourselves
	r.TrimLeadingSpace = true
	r.Comment = '#' // spec.md §4.1: lines beginning with '#' are skipped

	var (
		records       []FlowRecord
		headerSkipped bool
	)

	for len(records) < maxFlows {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line: local, recoverable (spec.md §7). Skip it and
			// keep reading the rest of the shard.
			log.Warn().Int("rank", rank).Err(err).Msg("shard_line_skipped")
			continue
		}

		if !headerSkipped {
			headerSkipped = true
			continue
		}
		if len(fields) == 0 {
			continue
		}
		if isHeaderLine(fields) {
			continue
		}

		rec, ok := parseRecord(fields)
		if ok {
			records = append(records, rec)
		}
	}

	if len(records) > 0 {
		log.Info().Int("rank", rank).Int("count", len(records)).Str("path", path).Msg("shard_loaded")
	}
	return records, nil
}

func isHeaderLine(fields []string) bool {
	for _, field := range fields {
		for _, marker := range headerMarkers {
			if strings.Contains(field, marker) {
				return true
			}
		}
	}
	return false
}

// parseRecord accepts a line if at least the first four fields parse
// (spec.md §4.1): src_ip,dst_ip,bytes,timestamp[,protocol,src_port,dst_port,packets].
func parseRecord(fields []string) (FlowRecord, bool) {
	if len(fields) < 4 {
		return FlowRecord{}, false
	}

	srcIP := strings.TrimSpace(fields[0])
	dstIP := strings.TrimSpace(fields[1])
	bytes, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return FlowRecord{}, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return FlowRecord{}, false
	}

	rec := FlowRecord{
		SrcIP:     srcIP,
		DstIP:     dstIP,
		Bytes:     bytes,
		Timestamp: ts,
		Packets:   1,
	}

	if len(fields) > 4 {
		if v, err := strconv.Atoi(strings.TrimSpace(fields[4])); err == nil {
			rec.Protocol = v
		}
	}
	if len(fields) > 5 {
		if v, err := strconv.Atoi(strings.TrimSpace(fields[5])); err == nil {
			rec.SrcPort = v
		}
	}
	if len(fields) > 6 {
		if v, err := strconv.Atoi(strings.TrimSpace(fields[6])); err == nil {
			rec.DstPort = v
		}
	}
	if len(fields) > 7 {
		if v, err := strconv.ParseInt(strings.TrimSpace(fields[7]), 10, 64); err == nil && v > 0 {
			rec.Packets = v
		}
	}

	return rec, true
}

// IsTCP reports whether the record's protocol is the TCP stand-in (6).
func (r FlowRecord) IsTCP() bool { return r.Protocol == protocolTCP }

// IsUDP reports whether the record's protocol is UDP (17).
func (r FlowRecord) IsUDP() bool { return r.Protocol == protocolUDP }
