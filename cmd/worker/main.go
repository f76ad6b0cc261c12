// Command worker is one rank: it loads its shard, runs the detector
// ensemble, and sends exactly one Alert to the coordinator before exiting
// (spec.md §5). Startup sequencing follows cmd/protector/main.go.
package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skywalker-88/stormgate-ddos/internal/worker"
	"github.com/skywalker-88/stormgate-ddos/pkg/config"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	switch strings.ToLower(getenv("LOG_LEVEL", "info")) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	rank := flag.Int("rank", envInt("DDOS_RANK", -1), "this worker's rank (1..N-1; rank 0 is the coordinator)")
	coordAddr := flag.String("coord", getenv("DDOS_COORD_ADDR", "localhost:9000"), "coordinator address to send the Alert to")
	datasetRoot := flag.String("dataset-root", getenv("DDOS_DATASET_ROOT", "."), "directory holding partitions/part_<rank>.csv")
	cfgPath := flag.String("config", os.Getenv("DDOS_CONFIG"), "path to detector policy YAML")
	trueLabelFlag := flag.Int("true-label", -1, "ground-truth label override (0/1); defaults to inferring from dataset-root")
	flag.Parse()

	if *rank < 1 {
		log.Info().Msg("usage: worker -rank N -coord host:port -dataset-root /path [-config detector.yaml]")
		log.Info().Msg("rank must be >= 1; rank 0 is reserved for the coordinator")
		os.Exit(0)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *cfgPath).Msg("load config")
	}

	trueLabel := *trueLabelFlag
	if trueLabel != 0 && trueLabel != 1 {
		trueLabel = worker.DeriveTrueLabel(*datasetRoot)
	}

	detectors := worker.Detectors(cfg)

	log.Info().
		Int("rank", *rank).
		Str("dataset_root", *datasetRoot).
		Str("coord_addr", *coordAddr).
		Msg("worker starting")

	alert := worker.Run(*rank, *datasetRoot, cfg, detectors, trueLabel)

	if err := worker.Send(*coordAddr, alert); err != nil {
		log.Fatal().Err(err).Int("rank", *rank).Msg("send alert to coordinator")
	}

	log.Info().Int("rank", *rank).Msg("worker done")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
