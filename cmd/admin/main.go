package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"wordbingo/internal/admin"
	"wordbingo/internal/services/scoreboard"
	"wordbingo/internal/session"
)

// Config do processo do admin. A lista de palavras vem de um arquivo
// (uma palavra por linha) ou direto da variável, separada por vírgula.
type Config struct {
	RelayURL     string   `env:"RELAY_URL" envDefault:"ws://localhost:8090/admin"`
	RelaySecret  string   `env:"RELAY_SECRET,required"`
	WordListFile string   `env:"WORD_LIST_FILE"`
	WordList     []string `env:"WORD_LIST" envSeparator:","`
	NatsURL      string   `env:"NATS_URL"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"warn"`
}

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg.LogLevel).With().Str("component", "admin").Logger()

	words, err := loadWords(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("word list load failed")
	}

	sess := session.New(words, log)

	if cfg.NatsURL != "" {
		publisher, err := scoreboard.Connect(cfg.NatsURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connection failed")
		}
		defer publisher.Close()
		publisher.Attach(sess)
	}

	// Tudo que mexe na sessão passa por este canal de ações: callbacks
	// do relay e comandos do console rodam um por vez, na mesma
	// goroutine. É o mesmo modelo de turno único do Hub.
	actions := make(chan func(), 128)
	go func() {
		for action := range actions {
			action()
		}
	}()

	var handler *admin.Handler
	callbacks := admin.Callbacks{
		OnUpstream: func(connID string, command []byte) {
			raw := append([]byte(nil), command...)
			actions <- func() { handler.HandlePlayerCommand(connID, raw) }
		},
		OnPlayerConnected: func(connID string) {
			actions <- func() { handler.PlayerConnected(connID) }
		},
		OnPlayerDisconnected: func(connID string) {
			actions <- func() { handler.PlayerDisconnected(connID) }
		},
		OnRoster: func(connections []string) {
			actions <- func() { handler.RosterSync(connections) }
		},
		OnStatusChange: func(status admin.Status) {
			pterm.Info.Printfln("relay link: %s", status)
		},
	}

	client := admin.NewClient(cfg.RelayURL, sess.ID(), cfg.RelaySecret, callbacks, log)
	handler = admin.NewHandler(sess, client, log)
	client.Connect()
	defer client.Disconnect()

	pterm.Success.Printfln("Session %s ready with %d words.", sess.ID(), len(words))
	console(handler, client, actions)
}

// console é o loop interativo do admin. Cada ação roda no ator e o
// console espera ela terminar antes de perguntar de novo.
func console(handler *admin.Handler, client *admin.Client, actions chan func()) {
	run := func(f func()) {
		done := make(chan struct{})
		actions <- func() {
			f()
			close(done)
		}
		<-done
	}

	for {
		choice, _ := pterm.DefaultInteractiveSelect.
			WithDefaultText("Admin command").
			WithOptions([]string{"start game", "new round", "leaderboard", "status", "quit"}).
			Show()

		switch choice {
		case "start game":
			run(func() { reportErr(handler.StartGame()) })

		case "new round":
			run(func() { reportErr(handler.StartNewRound()) })

		case "leaderboard":
			var entries []session.LeaderboardEntry
			run(func() { entries = handler.Session().Leaderboard() })
			printLeaderboard(entries)

		case "status":
			var line string
			run(func() {
				game := handler.Session().Game()
				if game == nil {
					line = "no game yet"
				} else {
					line = fmt.Sprintf("status=%s round=%d", game.Status(), game.CurrentRound())
				}
			})
			pterm.Info.Printfln("link=%s dropped_sends=%d %s", client.Status(), client.DroppedSends(), line)

		case "quit":
			return
		}
	}
}

func reportErr(err error) {
	if err != nil {
		pterm.Error.Println(err)
	}
}

func printLeaderboard(entries []session.LeaderboardEntry) {
	data := pterm.TableData{{"Player", "Points", "Rounds won", "Last win"}}
	for _, e := range entries {
		data = append(data, []string{
			e.ScreenName,
			fmt.Sprintf("%d", e.TotalPoints),
			fmt.Sprintf("%d", e.RoundsWon),
			fmt.Sprintf("%d", e.LastWinRound),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func loadWords(cfg Config) ([]string, error) {
	if cfg.WordListFile != "" {
		raw, err := os.ReadFile(cfg.WordListFile)
		if err != nil {
			return nil, err
		}
		return strings.Fields(string(raw)), nil
	}
	if len(cfg.WordList) > 0 {
		return cfg.WordList, nil
	}
	return nil, fmt.Errorf("set WORD_LIST_FILE or WORD_LIST")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
