package admin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wordbingo/internal/game/bingo"
	"wordbingo/internal/game/card"
	"wordbingo/internal/network"
	"wordbingo/internal/protocol"
	"wordbingo/internal/relay"
	"wordbingo/internal/session"
)

const relayTestSecret = "s3cret"

func waitForStatus(t *testing.T, c *Client, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.Status() != want {
		if time.Now().After(deadline) {
			t.Fatalf("status is %s, want %s", c.Status(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendsDroppedWhileDisconnected(t *testing.T) {
	c := NewClient("ws://localhost:1/admin", "sess-1", relayTestSecret, Callbacks{}, zerolog.Nop())

	c.SendToPlayer("conn-1", protocol.ErrorEvent("nope"))
	c.BroadcastToPlayers(protocol.ErrorEvent("nope"))

	if got := c.DroppedSends(); got != 2 {
		t.Fatalf("dropped sends: %d, want 2", got)
	}
}

// TestReconnectAfterFailure sobe um relay de mentira que derruba a
// primeira conexão logo após o upgrade. O cliente tem que insistir
// sozinho e terminar registrado na segunda tentativa.
func TestReconnectAfterFailure(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	var attempts atomic.Int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if attempts.Add(1) == 1 {
			conn.Close()
			return
		}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if env := relay.DecodeEnvelope(raw); env != nil && env.Envelope == relay.EnvAdminRegister {
				conn.WriteMessage(websocket.TextMessage, relay.EncodeEnvelope(relay.AdminRegisteredEnvelope(env.SessionID)))
			}
		}
	}))
	t.Cleanup(ts.Close)

	c := NewClient("ws"+strings.TrimPrefix(ts.URL, "http"), "sess-1", relayTestSecret, Callbacks{}, zerolog.Nop())
	c.reconnectDelay = 50 * time.Millisecond
	c.Connect()
	t.Cleanup(c.Disconnect)

	waitForStatus(t, c, StatusConnected)
	if got := attempts.Load(); got < 2 {
		t.Fatalf("connected after %d attempts, expected a retry", got)
	}

	// Disconnect é definitivo: nada de reconectar depois dele.
	c.Disconnect()
	waitForStatus(t, c, StatusDisconnected)
	settled := attempts.Load()
	time.Sleep(4 * c.reconnectDelay)
	if attempts.Load() != settled {
		t.Fatal("client reconnected after Disconnect")
	}
}

// TestStatusCallbacksCanCallBack garante que o callback de status roda
// fora do mutex do cliente: consultar o próprio cliente de dentro dele é
// permitido e não pode travar.
func TestStatusCallbacksCanCallBack(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if env := relay.DecodeEnvelope(raw); env != nil && env.Envelope == relay.EnvAdminRegister {
				conn.WriteMessage(websocket.TextMessage, relay.EncodeEnvelope(relay.AdminRegisteredEnvelope(env.SessionID)))
			}
		}
	}))
	t.Cleanup(ts.Close)

	var c *Client
	var mu sync.Mutex
	var seen []Status
	callbacks := Callbacks{OnStatusChange: func(status Status) {
		// Reentrância proposital: o callback volta a falar com o cliente.
		if c.Status() == "" {
			t.Error("empty status from inside the callback")
		}
		c.DroppedSends()
		mu.Lock()
		seen = append(seen, status)
		mu.Unlock()
	}}

	c = NewClient("ws"+strings.TrimPrefix(ts.URL, "http"), "sess-1", relayTestSecret, callbacks, zerolog.Nop())
	c.Connect()
	t.Cleanup(c.Disconnect)
	waitForStatus(t, c, StatusConnected)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 || seen[0] != StatusConnecting || seen[len(seen)-1] != StatusConnected {
		t.Fatalf("status transitions: %v", seen)
	}
}

// TestDistributedModeEndToEnd cobre a pilha inteira do modo distribuído:
// relay de verdade, cliente do admin, Handler e um socket de jogador cru,
// com o mesmo ator de fila única que o processo do admin usa.
func TestDistributedModeEndToEnd(t *testing.T) {
	r := relay.New(relayTestSecret, zerolog.Nop())
	netsrv := network.NewServer(r, zerolog.Nop())
	netsrv.Start()
	ts := httptest.NewServer(netsrv.Handler())
	t.Cleanup(ts.Close)
	baseURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	sess := session.New(testWords(), zerolog.Nop())

	actions := make(chan func(), 128)
	go func() {
		for action := range actions {
			action()
		}
	}()
	run := func(f func()) {
		done := make(chan struct{})
		actions <- func() {
			f()
			close(done)
		}
		<-done
	}

	var handler *Handler
	callbacks := Callbacks{
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
	}

	client := NewClient(baseURL+"/admin", sess.ID(), relayTestSecret, callbacks, zerolog.Nop())
	handler = NewHandler(sess, client, zerolog.Nop())
	client.Connect()
	t.Cleanup(client.Disconnect)
	waitForStatus(t, client, StatusConnected)

	player, _, err := websocket.DefaultDialer.Dial(baseURL+"/", nil)
	if err != nil {
		t.Fatalf("player dial failed: %v", err)
	}
	t.Cleanup(func() { player.Close() })

	sendCmd := func(cmd protocol.Command) {
		if err := player.WriteMessage(websocket.TextMessage, protocol.EncodeCommand(cmd)); err != nil {
			t.Fatalf("player write failed: %v", err)
		}
	}
	readUntil := func(eventType string) *protocol.Event {
		deadline := time.Now().Add(2 * time.Second)
		for {
			player.SetReadDeadline(deadline)
			_, raw, err := player.ReadMessage()
			if err != nil {
				t.Fatalf("waiting for %q: %v", eventType, err)
			}
			evt := protocol.DecodeEvent(raw)
			if evt == nil {
				t.Fatalf("player received a malformed event: %s", raw)
			}
			if evt.Type == eventType {
				return evt
			}
		}
	}

	sendCmd(protocol.Command{Type: protocol.CmdJoin, ScreenName: "Alice"})
	joined := readUntil(protocol.EvtJoined)
	if joined.ScreenName != "Alice" || joined.GameStatus != string(bingo.StatusWaiting) {
		t.Fatalf("join answer: %+v", joined)
	}

	var startErr error
	run(func() { startErr = handler.StartGame() })
	if startErr != nil {
		t.Fatalf("StartGame failed: %v", startErr)
	}

	deal := readUntil(protocol.EvtCardDealt)
	if *deal.RoundNumber != 1 || len(deal.Grid) != card.Size {
		t.Fatalf("deal: %+v", deal)
	}

	for col := 0; col < card.Size-1; col++ {
		sendCmd(protocol.Command{Type: protocol.CmdMarkWord, Word: deal.Grid[0][col]})
		result := readUntil(protocol.EvtMarkResult)
		if !*result.Success {
			t.Fatalf("mark of %q rejected: %+v", deal.Grid[0][col], result)
		}
	}

	// A última marcação fecha a linha: os broadcasts da vitória chegam
	// antes da resposta endereçada.
	sendCmd(protocol.Command{Type: protocol.CmdMarkWord, Word: deal.Grid[0][card.Size-1]})
	won := readUntil(protocol.EvtPlayerWon)
	if won.WinnerName != "Alice" || *won.RoundNumber != 1 {
		t.Fatalf("win broadcast: %+v", won)
	}
	board := readUntil(protocol.EvtLeaderboard)
	if len(board.Entries) != 1 || board.Entries[0].TotalPoints != bingo.WinnerPoints {
		t.Fatalf("leaderboard: %+v", board)
	}
	final := readUntil(protocol.EvtMarkResult)
	if !*final.Success || !*final.Bingo || !*final.RoundOver {
		t.Fatalf("winning mark answer: %+v", final)
	}
}
