// Command coordinator is rank 0: it listens for every worker's Alert,
// fuses them into a verdict, simulates the blocking response, and writes
// the run's result logs (spec.md §5). Startup sequencing — logging first,
// then config, then dependencies, then the blocking call — follows
// cmd/protector/main.go.
package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skywalker-88/stormgate-ddos/internal/blocking"
	"github.com/skywalker-88/stormgate-ddos/internal/coordinator"
	"github.com/skywalker-88/stormgate-ddos/internal/httpobs"
	"github.com/skywalker-88/stormgate-ddos/internal/metricslog"
	"github.com/skywalker-88/stormgate-ddos/internal/transport"
	"github.com/skywalker-88/stormgate-ddos/pkg/config"
	"github.com/skywalker-88/stormgate-ddos/pkg/metrics"
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

	listenAddr := flag.String("listen", getenv("DDOS_COORD_ADDR", ":9000"), "address the coordinator listens on for worker Alerts")
	numWorkers := flag.Int("world-size", envInt("DDOS_WORLD_SIZE", 0), "number of workers to collect alerts from (N-1 of the world size)")
	cfgPath := flag.String("config", os.Getenv("DDOS_CONFIG"), "path to detector policy YAML")
	flag.Parse()

	if *numWorkers < 1 {
		log.Info().Msg("usage: coordinator -world-size N [-listen :9000] [-config detector.yaml]")
		log.Info().Msg("world-size must name at least 1 worker; nothing to fuse otherwise")
		os.Exit(0)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *cfgPath).Msg("load config")
	}

	metrics.Register(prometheus.DefaultRegisterer)

	if cfg.Observability.Enabled {
		go func() {
			log.Info().Str("addr", cfg.Observability.Addr).Msg("observability server listening")
			if err := httpServe(cfg.Observability.Addr); err != nil {
				log.Error().Err(err).Msg("observability server stopped")
			}
		}()
	}

	ln, err := transport.Listen(*listenAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *listenAddr).Msg("listen")
	}
	defer ln.Close()

	registry := blocking.NewRegistry(cfg.Blocking.RedisAddr, cfg.Blocking.RegistryTTLS)
	defer registry.Close()

	logger := metricslog.New(cfg.Output.Dir)

	log.Info().
		Str("addr", ln.Addr()).
		Int("world_size", *numWorkers).
		Str("output_dir", cfg.Output.Dir).
		Msg("coordinator waiting for worker alerts")

	result, err := coordinator.Run(coordinator.Deps{
		Listener:   ln,
		Logger:     logger,
		Registry:   registry,
		Cfg:        cfg,
		NumWorkers: *numWorkers,
		Now:        func() int64 { return time.Now().UnixNano() },
	})
	if err != nil {
		log.Fatal().Err(err).Msg("coordinator run failed")
	}

	log.Info().
		Bool("global_attack", result.GlobalAttack).
		Str("chosen_ip", result.ChosenIP).
		Int("attack_votes", result.AttackVotes).
		Msg("coordinator run complete")
}

func httpServe(addr string) error {
	return httpobs.Serve(addr)
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
