package admin

import (
	"fmt"

	"github.com/rs/zerolog"

	"wordbingo/internal/game/bingo"
	"wordbingo/internal/game/card"
	"wordbingo/internal/protocol"
	"wordbingo/internal/session"
)

// PlayerTransport abstrai como os eventos chegam aos jogadores. No modo
// distribuído a implementação é o cliente do relay; nos testes, um fake.
// A lógica do jogo não sabe (nem quer saber) se o socket é local ou
// relayado.
type PlayerTransport interface {
	SendToPlayer(connectionID string, event protocol.Event)
	BroadcastToPlayers(event protocol.Event)
}

// playerCommandFunc é a assinatura dos handlers de comando de jogador.
type playerCommandFunc func(h *Handler, connID string, cmd *protocol.Command)

// Handler é o lado do admin no modo distribuído: o tratamento de comando
// é o mesmo do modo unificado, mas falando com os jogadores só através do
// PlayerTransport injetado.
//
// Todas as chamadas precisam vir de uma única goroutine (o main do admin
// afunila callbacks do relay e comandos do console num ator só); com isso
// nenhum campo precisa de lock.
type Handler struct {
	log       zerolog.Logger
	sess      *session.Session
	transport PlayerTransport

	playersByConn map[string]string // connectionId -> playerId
	connsByPlayer map[string]string // playerId -> connectionId

	// pendingJoin guarda a conexão cujo join está em andamento: os
	// eventos síncronos de dentro do AddPlayer (a cartela de quem entra
	// com a rodada rolando) disparam antes do mapa ser atualizado, e
	// este set é o alvo reserva na hora de rotear.
	pendingJoin map[string]bool

	router map[string]playerCommandFunc
}

// NewHandler cria o handler sobre uma sessão já construída e se inscreve
// nos eventos dela.
func NewHandler(sess *session.Session, transport PlayerTransport, log zerolog.Logger) *Handler {
	h := &Handler{
		log:           log,
		sess:          sess,
		transport:     transport,
		playersByConn: make(map[string]string),
		connsByPlayer: make(map[string]string),
		pendingJoin:   make(map[string]bool),
	}
	h.router = map[string]playerCommandFunc{
		protocol.CmdJoin:     (*Handler).handleJoin,
		protocol.CmdMarkWord: (*Handler).handleMarkWord,
	}
	sess.Subscribe(h.onGameEvent)
	return h
}

// Session expõe a sessão para o console do admin.
func (h *Handler) Session() *session.Session { return h.sess }

// --- Tráfego vindo do relay ---

// HandlePlayerCommand processa um comando bruto encaminhado pelo relay
// para a conexão dada.
func (h *Handler) HandlePlayerCommand(connID string, raw []byte) {
	cmd := protocol.DecodeCommand(raw)
	if cmd == nil {
		h.transport.SendToPlayer(connID, protocol.ErrorEvent("malformed command"))
		return
	}

	handler, found := h.router[cmd.Type]
	if !found {
		// Comandos privilegiados (ou desconhecidos) nunca valem vindos
		// de um socket de jogador.
		h.transport.SendToPlayer(connID, protocol.ErrorEvent(fmt.Sprintf("command not allowed: %s", cmd.Type)))
		return
	}
	handler(h, connID, cmd)
}

// PlayerConnected registra que o relay anunciou uma conexão nova. Nada a
// fazer até o jogador dar join; fica só no log.
func (h *Handler) PlayerConnected(connID string) {
	h.log.Debug().Str("connection", connID).Msg("player connection announced")
}

// PlayerDisconnected remove o jogador da conexão, se havia um.
func (h *Handler) PlayerDisconnected(connID string) {
	playerID, ok := h.playersByConn[connID]
	if !ok {
		return
	}
	delete(h.playersByConn, connID)
	delete(h.connsByPlayer, playerID)
	h.sess.RemovePlayer(playerID)
}

// RosterSync reconcilia os mapas com o snapshot de conexões vivas que o
// relay manda no (re)registro. Conexões mapeadas que sumiram do roster
// são tratadas como desconexão.
func (h *Handler) RosterSync(connections []string) {
	alive := make(map[string]bool, len(connections))
	for _, id := range connections {
		alive[id] = true
	}
	for connID := range h.playersByConn {
		if !alive[connID] {
			h.PlayerDisconnected(connID)
		}
	}
	h.log.Info().Int("connections", len(connections)).Msg("player roster synced")
}

// --- Comandos do admin (console local) ---

// StartGame inicia o jogo e anuncia o status para os jogadores.
func (h *Handler) StartGame() error {
	if err := h.sess.StartGame(); err != nil {
		return err
	}
	status, round := h.gameState()
	h.transport.BroadcastToPlayers(protocol.GameStatusEvent(status, round))
	return nil
}

// StartNewRound abre a próxima rodada e anuncia o status.
func (h *Handler) StartNewRound() error {
	if err := h.sess.StartNewRound(); err != nil {
		return err
	}
	status, round := h.gameState()
	h.transport.BroadcastToPlayers(protocol.GameStatusEvent(status, round))
	return nil
}

// --- Handlers de comando de jogador ---

func (h *Handler) handleJoin(connID string, cmd *protocol.Command) {
	if _, joined := h.playersByConn[connID]; joined {
		h.transport.SendToPlayer(connID, protocol.ErrorEvent("this connection already joined"))
		return
	}

	h.pendingJoin[connID] = true
	player, err := h.sess.AddPlayer(cmd.ScreenName)
	delete(h.pendingJoin, connID)

	if err != nil {
		h.transport.SendToPlayer(connID, protocol.ErrorEvent(err.Error()))
		return
	}

	h.playersByConn[connID] = player.ID
	h.connsByPlayer[player.ID] = connID

	status, round := h.gameState()
	h.transport.SendToPlayer(connID, protocol.JoinedEvent(player.ID, player.ScreenName, status, round))
}

func (h *Handler) handleMarkWord(connID string, cmd *protocol.Command) {
	playerID, joined := h.playersByConn[connID]
	if !joined {
		h.transport.SendToPlayer(connID, protocol.ErrorEvent("join the session first"))
		return
	}

	result, err := h.sess.MarkWord(playerID, cmd.Word)
	if err != nil {
		h.transport.SendToPlayer(connID, protocol.ErrorEvent(err.Error()))
		return
	}
	h.transport.SendToPlayer(connID, protocol.MarkResultEvent(result.Success, cmd.Word, result.Bingo, result.RoundOver))
}

// --- Eventos da sessão de volta para o transporte ---

func (h *Handler) onGameEvent(event session.GameEvent) {
	switch event.Type {
	case session.EventPlayerJoined:
		h.transport.BroadcastToPlayers(protocol.PlayerJoinedEvent(event.PlayerID, event.ScreenName, event.PlayerCount))

	case session.EventPlayerLeft:
		h.transport.BroadcastToPlayers(protocol.PlayerLeftEvent(event.PlayerID, event.ScreenName, event.PlayerCount))

	case session.EventGameStarted, session.EventNewRoundStarted:
		h.sendToPlayer(event.PlayerID, protocol.CardDealtEvent(event.Round, event.Card.Grid(), event.Card.Marked()))

	case session.EventPlayerWon:
		h.transport.BroadcastToPlayers(protocol.PlayerWonEvent(event.ScreenName, wirePattern(event.Pattern), event.Round))
		h.transport.BroadcastToPlayers(protocol.GameStatusEvent(string(bingo.StatusFinished), event.Round))
		h.transport.BroadcastToPlayers(protocol.LeaderboardEvent(wireLeaderboard(h.sess.Leaderboard())))
	}
}

// sendToPlayer roteia um evento endereçado, usando a conexão pendente de
// join como alvo reserva. Sem alvo, descarta: não há entrega garantida.
func (h *Handler) sendToPlayer(playerID string, evt protocol.Event) {
	connID, ok := h.connsByPlayer[playerID]
	if !ok {
		for pending := range h.pendingJoin {
			connID = pending
			ok = true
			break
		}
	}
	if !ok {
		h.log.Debug().Str("player", playerID).Msg("no connection for player, event dropped")
		return
	}
	h.transport.SendToPlayer(connID, evt)
}

func (h *Handler) gameState() (string, int) {
	if h.sess.Game() == nil {
		return string(bingo.StatusWaiting), 0
	}
	return string(h.sess.Game().Status()), h.sess.Game().CurrentRound()
}

func wirePattern(p *card.Pattern) *protocol.Pattern {
	if p == nil {
		return nil
	}
	return &protocol.Pattern{Type: p.Type, Row: p.Row, Col: p.Col}
}

func wireLeaderboard(entries []session.LeaderboardEntry) []protocol.LeaderboardEntry {
	out := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.LeaderboardEntry{
			PlayerID:     e.PlayerID,
			ScreenName:   e.ScreenName,
			TotalPoints:  e.TotalPoints,
			RoundsWon:    e.RoundsWon,
			LastWinRound: e.LastWinRound,
		})
	}
	return out
}
