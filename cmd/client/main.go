package main

import (
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"wordbingo/internal/protocol"
)

// Config do cliente de terminal do jogador.
type Config struct {
	ServerURL string `env:"SERVER_URL" envDefault:"ws://localhost:8080/"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
}

// cardView é a cartela como o jogador a vê. O mutex existe porque a
// goroutine de leitura atualiza e o loop de input renderiza.
type cardView struct {
	mu     sync.Mutex
	grid   [][]string
	marked [][]bool
	round  int
}

func (v *cardView) update(evt *protocol.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.grid = evt.Grid
	v.marked = evt.Marked
	if evt.RoundNumber != nil {
		v.round = *evt.RoundNumber
	}
}

func (v *cardView) markLocal(word string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for row := range v.grid {
		for col := range v.grid[row] {
			if strings.EqualFold(v.grid[row][col], word) {
				v.marked[row][col] = true
				return
			}
		}
	}
}

func (v *cardView) render() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.grid == nil {
		pterm.Info.Println("No card yet. Wait for the host to start the game.")
		return
	}
	data := pterm.TableData{}
	for row := range v.grid {
		line := make([]string, len(v.grid[row]))
		for col := range v.grid[row] {
			cell := v.grid[row][col]
			if v.marked[row][col] {
				cell = pterm.Green("[" + cell + "]")
			}
			line[col] = cell
		}
		data = append(data, line)
	}
	pterm.Info.Printfln("Round %d", v.round)
	pterm.DefaultTable.WithData(data).Render()
}

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}
	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	conn, _, err := websocket.DefaultDialer.Dial(cfg.ServerURL, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.ServerURL).Msg("connection failed")
	}
	defer conn.Close()

	name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your screen name").Show()

	var writeMu sync.Mutex
	send := func(cmd protocol.Command) {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.WriteMessage(websocket.TextMessage, protocol.EncodeCommand(cmd))
	}

	view := &cardView{}
	done := make(chan struct{})
	go readLoop(conn, view, done)

	send(protocol.Command{Type: protocol.CmdJoin, ScreenName: name})

	for {
		select {
		case <-done:
			pterm.Warning.Println("Disconnected from server.")
			return
		default:
		}

		word, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Word called (or /card to redraw, /quit to leave)").
			Show()
		switch strings.TrimSpace(word) {
		case "":
			continue
		case "/card":
			view.render()
		case "/quit":
			return
		default:
			send(protocol.Command{Type: protocol.CmdMarkWord, Word: word})
		}
	}
}

// readLoop imprime cada evento do servidor e mantém a cartela local em
// dia. Fecha o canal done quando o socket cair.
func readLoop(conn *websocket.Conn, view *cardView, done chan struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		evt := protocol.DecodeEvent(raw)
		if evt == nil {
			continue
		}

		switch evt.Type {
		case protocol.EvtJoined:
			pterm.Success.Printfln("Joined as %s (game %s, round %d)", evt.ScreenName, evt.GameStatus, *evt.Round)

		case protocol.EvtCardDealt:
			view.update(evt)
			pterm.Success.Println("New card dealt!")
			view.render()

		case protocol.EvtMarkResult:
			if *evt.Success {
				view.markLocal(evt.Word)
				if *evt.Bingo {
					pterm.Success.Printfln("BINGO with %q!", evt.Word)
				} else {
					pterm.Success.Printfln("Marked %q.", evt.Word)
				}
			} else if *evt.RoundOver {
				pterm.Warning.Println("Round is already over.")
			} else {
				pterm.Warning.Printfln("%q is not on your card.", evt.Word)
			}

		case protocol.EvtPlayerWon:
			pterm.Info.Printfln("%s won round %d!", evt.WinnerName, *evt.RoundNumber)

		case protocol.EvtGameStatus:
			pterm.Info.Printfln("Game is now %s (round %d).", evt.Status, *evt.Round)

		case protocol.EvtPlayerJoined:
			pterm.Info.Printfln("%s joined (%d players).", evt.ScreenName, *evt.PlayerCount)

		case protocol.EvtPlayerLeft:
			pterm.Info.Printfln("%s left (%d players).", evt.ScreenName, *evt.PlayerCount)

		case protocol.EvtLeaderboard:
			data := pterm.TableData{{"Player", "Points", "Rounds won"}}
			for _, e := range evt.Entries {
				data = append(data, []string{e.ScreenName, pterm.Sprintf("%d", e.TotalPoints), pterm.Sprintf("%d", e.RoundsWon)})
			}
			pterm.DefaultTable.WithHasHeader().WithData(data).Render()

		case protocol.EvtError:
			pterm.Error.Println(evt.Message)
		}
	}
}
