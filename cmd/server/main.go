// Command server runs the matching engine's WebSocket front door: it wires
// together configuration, logging, metrics, the per-symbol book registry,
// and the transport layer, then blocks until it receives SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/lattice-labs/matchcore/internal/config"
	"github.com/lattice-labs/matchcore/internal/engine"
	"github.com/lattice-labs/matchcore/internal/logging"
	"github.com/lattice-labs/matchcore/internal/metrics"
	"github.com/lattice-labs/matchcore/internal/protocol"
	"github.com/lattice-labs/matchcore/internal/registry"
	"github.com/lattice-labs/matchcore/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Getenv("ENGINE_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	// A positional port argument still wins over config file/env values.
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid port argument %q: %v\n", os.Args[1], err)
			return 1
		}
		cfg.Listen.Port = port
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return 1
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	m := metrics.New()
	m.MustRegister(prometheus.DefaultRegisterer)

	// The broadcaster is constructed before the registry because every book
	// needs a TradeSink bound at creation time, and the sink routes trades to
	// whichever clients are connected at execution time.
	broadcaster := transport.NewBroadcaster()

	reg := registry.New(cfg.Book.MaxSymbols, func(string) engine.TradeSink {
		return broadcaster.TradeSink()
	}, m)

	handler := protocol.NewHandler(reg, m)

	addr := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	srv := transport.New(addr, handler, broadcaster, m)

	log.Info().Str("addr", addr).Int("max_symbols", cfg.Book.MaxSymbols).Msg("starting matching engine")

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		return 1
	}

	log.Info().Msg("server shut down cleanly")
	return 0
}
