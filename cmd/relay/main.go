package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"wordbingo/internal/network"
	"wordbingo/internal/relay"
	"wordbingo/internal/services/cluster"
)

const defaultShutdownTimeout = 5 * time.Second

// Config do relay público. O segredo é obrigatório: sem ele qualquer um
// poderia se registrar como admin.
type Config struct {
	ListenAddr  string `env:"RELAY_LISTEN_ADDR" envDefault:"0.0.0.0:8090"`
	RelaySecret string `env:"RELAY_SECRET,required"`
	ServiceName string `env:"RELAY_SERVICE_NAME" envDefault:"wordbingo-relay"`
	ServicePort int    `env:"RELAY_SERVICE_PORT" envDefault:"8090"`
	ConsulAddr  string `env:"CONSUL_HTTP_ADDR"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg.LogLevel).With().Str("component", "relay").Logger()
	log.Info().Str("listen", cfg.ListenAddr).Msg("configuration loaded")

	relayHandler := relay.New(cfg.RelaySecret, log)
	srv := network.NewServer(relayHandler, log)
	srv.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", cluster.NewBasicHealthHandler())
	mux.Handle("/", srv.Handler())

	if cfg.ConsulAddr != "" {
		if err := cluster.RegisterService(cfg.ServiceName, cfg.ServicePort, cfg.ServicePort, cfg.ConsulAddr, log); err != nil {
			log.Fatal().Err(err).Msg("consul registration failed")
		}
	}

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Info().Str("address", cfg.ListenAddr).Msg("relay listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("relay failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Uint64("dropped_downstream", relayHandler.DroppedDownstream()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
