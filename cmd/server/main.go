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
	"wordbingo/internal/services/cluster"
	"wordbingo/internal/services/scoreboard"
	"wordbingo/internal/session"
)

const defaultShutdownTimeout = 5 * time.Second

// Config é toda a configuração do servidor unificado, vinda do ambiente.
type Config struct {
	ListenAddr  string `env:"SERVER_LISTEN_ADDR" envDefault:"0.0.0.0:8080"`
	ServiceName string `env:"SERVER_SERVICE_NAME" envDefault:"wordbingo-server"`
	ServicePort int    `env:"SERVER_SERVICE_PORT" envDefault:"8080"`

	// Integrações opcionais: vazio desliga.
	ConsulAddr string `env:"CONSUL_HTTP_ADDR"`
	NatsURL    string `env:"NATS_URL"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	// .env é só conveniência de desenvolvimento; em produção as
	// variáveis vêm do ambiente mesmo.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg.LogLevel).With().Str("component", "server").Logger()
	log.Info().Str("listen", cfg.ListenAddr).Msg("configuration loaded")

	handler := session.NewGameHandler(log)

	// Com NATS configurado, cada sessão criada ganha o espelho de
	// eventos para placares externos.
	if cfg.NatsURL != "" {
		publisher, err := scoreboard.Connect(cfg.NatsURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connection failed")
		}
		defer publisher.Close()
		handler.OnSessionCreated(publisher.Attach)
	}

	srv := network.NewServer(handler, log)
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
		log.Info().Str("address", cfg.ListenAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

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
