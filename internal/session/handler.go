package session

import (
	"fmt"

	"github.com/rs/zerolog"

	"wordbingo/internal/game/bingo"
	"wordbingo/internal/game/card"
	"wordbingo/internal/network"
	"wordbingo/internal/protocol"
)

// commandFunc é a assinatura de todos os handlers de comando do modo
// unificado.
type commandFunc func(h *GameHandler, c *network.Client, cmd *protocol.Command)

// GameHandler é o handler do modo unificado (tudo num processo só): ele
// implementa network.EventHandler, guarda a única sessão do processo e
// traduz comandos do protocolo em chamadas de Session — e eventos da
// Session de volta em eventos do protocolo, roteados para o socket certo.
//
// Nada aqui é global: o handler é um objeto de contexto explícito criado
// uma vez no main. Os mapas são todos chaveados pelo connectionId opaco,
// nunca pelo ponteiro da conexão.
type GameHandler struct {
	log  zerolog.Logger
	sess *Session

	// adminConn é a conexão que criou a sessão. Só ela pode emitir os
	// comandos privilegiados. Vazio se o admin caiu (a sessão fica).
	adminConn string

	clients       map[string]*network.Client // connectionId -> cliente
	playersByConn map[string]string          // connectionId -> playerId
	connsByPlayer map[string]string          // playerId -> connectionId

	// pendingJoin guarda a conexão que está no meio de um join: os
	// eventos emitidos sincronamente dentro de AddPlayer (a cartela do
	// retardatário) disparam antes do mapa de jogadores ser atualizado,
	// e este set é o alvo reserva para roteá-los.
	pendingJoin map[string]bool

	router map[string]commandFunc

	// sessionCreated, se definido, é chamado logo depois da sessão
	// nascer. É por aqui que o main pluga ouvintes externos (o
	// publicador de placar, por exemplo).
	sessionCreated func(*Session)
}

// OnSessionCreated registra o gancho de criação de sessão.
func (h *GameHandler) OnSessionCreated(hook func(*Session)) {
	h.sessionCreated = hook
}

// NewGameHandler cria o handler do modo unificado, com o roteador de
// comandos já populado.
func NewGameHandler(log zerolog.Logger) *GameHandler {
	h := &GameHandler{
		log:           log,
		clients:       make(map[string]*network.Client),
		playersByConn: make(map[string]string),
		connsByPlayer: make(map[string]string),
		pendingJoin:   make(map[string]bool),
	}
	h.router = map[string]commandFunc{
		protocol.CmdCreateSession: (*GameHandler).handleCreateSession,
		protocol.CmdStartGame:     (*GameHandler).handleStartGame,
		protocol.CmdStartNewRound: (*GameHandler).handleStartNewRound,
		protocol.CmdJoin:          (*GameHandler).handleJoin,
		protocol.CmdMarkWord:      (*GameHandler).handleMarkWord,
	}
	return h
}

// --- Implementação de network.EventHandler ---

func (h *GameHandler) OnConnect(c *network.Client) {
	h.clients[c.ID()] = c
	h.log.Debug().Str("connection", c.ID()).Str("role", string(c.Role())).Msg("client connected")
}

func (h *GameHandler) OnDisconnect(c *network.Client) {
	delete(h.clients, c.ID())

	if playerID, ok := h.playersByConn[c.ID()]; ok {
		delete(h.playersByConn, c.ID())
		delete(h.connsByPlayer, playerID)
		if h.sess != nil {
			h.sess.RemovePlayer(playerID)
		}
	}

	// Se era o admin, só a designação é limpa. A sessão e os jogadores
	// sobrevivem à queda do admin.
	if c.ID() == h.adminConn {
		h.adminConn = ""
		h.log.Info().Msg("admin disconnected, admin designation cleared")
	}
}

func (h *GameHandler) OnMessage(c *network.Client, raw []byte) {
	cmd := protocol.DecodeCommand(raw)
	if cmd == nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent("malformed command"))
		return
	}

	handler, found := h.router[cmd.Type]
	if !found {
		h.sendEvent(c.ID(), protocol.ErrorEvent(fmt.Sprintf("unknown command: %s", cmd.Type)))
		return
	}
	handler(h, c, cmd)
}

// --- Handlers de comando ---

func (h *GameHandler) handleCreateSession(c *network.Client, cmd *protocol.Command) {
	if h.sess != nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent("a session already exists"))
		return
	}

	h.sess = New(cmd.Words, h.log)
	h.adminConn = c.ID()
	h.sess.Subscribe(h.onGameEvent)
	if h.sessionCreated != nil {
		h.sessionCreated(h.sess)
	}

	h.log.Info().Str("session", h.sess.ID()).Msg("session created")
	h.sendEvent(c.ID(), protocol.SessionCreatedEvent(h.sess.ID()))
}

func (h *GameHandler) handleJoin(c *network.Client, cmd *protocol.Command) {
	if h.sess == nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent("no session yet"))
		return
	}
	if _, joined := h.playersByConn[c.ID()]; joined {
		h.sendEvent(c.ID(), protocol.ErrorEvent("this connection already joined"))
		return
	}

	// O AddPlayer emite eventos de forma síncrona; marca a conexão como
	// pendente para o roteador de eventos achá-la.
	h.pendingJoin[c.ID()] = true
	player, err := h.sess.AddPlayer(cmd.ScreenName)
	delete(h.pendingJoin, c.ID())

	if err != nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent(err.Error()))
		return
	}

	h.playersByConn[c.ID()] = player.ID
	h.connsByPlayer[player.ID] = c.ID()

	status, round := h.gameState()
	h.sendEvent(c.ID(), protocol.JoinedEvent(player.ID, player.ScreenName, status, round))
}

func (h *GameHandler) handleStartGame(c *network.Client, cmd *protocol.Command) {
	if !h.requireAdmin(c) {
		return
	}
	if err := h.sess.StartGame(); err != nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent(err.Error()))
		return
	}
	status, round := h.gameState()
	h.broadcast(protocol.GameStatusEvent(status, round))
}

func (h *GameHandler) handleStartNewRound(c *network.Client, cmd *protocol.Command) {
	if !h.requireAdmin(c) {
		return
	}
	if err := h.sess.StartNewRound(); err != nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent(err.Error()))
		return
	}
	status, round := h.gameState()
	h.broadcast(protocol.GameStatusEvent(status, round))
}

func (h *GameHandler) handleMarkWord(c *network.Client, cmd *protocol.Command) {
	if h.sess == nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent("no session yet"))
		return
	}
	playerID, joined := h.playersByConn[c.ID()]
	if !joined {
		h.sendEvent(c.ID(), protocol.ErrorEvent("join the session first"))
		return
	}

	result, err := h.sess.MarkWord(playerID, cmd.Word)
	if err != nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent(err.Error()))
		return
	}
	h.sendEvent(c.ID(), protocol.MarkResultEvent(result.Success, cmd.Word, result.Bingo, result.RoundOver))
}

// --- Roteamento dos eventos da sessão de volta para os sockets ---

// onGameEvent converte cada GameEvent da sessão em eventos do protocolo.
// Roda sincronamente dentro da chamada de Session que o emitiu, ainda no
// turno único do Hub.
func (h *GameHandler) onGameEvent(event GameEvent) {
	switch event.Type {
	case EventPlayerJoined:
		h.broadcast(protocol.PlayerJoinedEvent(event.PlayerID, event.ScreenName, event.PlayerCount))

	case EventPlayerLeft:
		h.broadcast(protocol.PlayerLeftEvent(event.PlayerID, event.ScreenName, event.PlayerCount))

	case EventGameStarted, EventNewRoundStarted:
		h.sendToPlayer(event.PlayerID, protocol.CardDealtEvent(event.Round, event.Card.Grid(), event.Card.Marked()))

	case EventPlayerWon:
		h.broadcast(protocol.PlayerWonEvent(event.ScreenName, wirePattern(event.Pattern), event.Round))
		h.broadcast(protocol.GameStatusEvent(string(bingo.StatusFinished), event.Round))
		h.broadcast(protocol.LeaderboardEvent(wireLeaderboard(h.sess.Leaderboard())))
	}
}

// sendToPlayer roteia um evento para a conexão do jogador. Se o jogador
// ainda não está no mapa (join em andamento), a conexão pendente é o alvo
// reserva. Alvo desconhecido é descartado em silêncio: não há garantia de
// entrega nesta camada.
func (h *GameHandler) sendToPlayer(playerID string, evt protocol.Event) {
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
	h.sendEvent(connID, evt)
}

// broadcast entrega o evento para todas as conexões atuais, jogadores e
// admin, em ordem fixa de iteração não garantida entre si.
func (h *GameHandler) broadcast(evt protocol.Event) {
	raw := protocol.EncodeEvent(evt)
	for _, c := range h.clients {
		c.Send(raw)
	}
}

func (h *GameHandler) sendEvent(connID string, evt protocol.Event) {
	if c, ok := h.clients[connID]; ok {
		c.Send(protocol.EncodeEvent(evt))
	}
}

// requireAdmin rejeita comandos privilegiados de qualquer conexão que não
// seja a criadora da sessão.
func (h *GameHandler) requireAdmin(c *network.Client) bool {
	if h.sess == nil {
		h.sendEvent(c.ID(), protocol.ErrorEvent("no session yet"))
		return false
	}
	if c.ID() != h.adminConn {
		h.sendEvent(c.ID(), protocol.ErrorEvent("only the session admin can do that"))
		return false
	}
	return true
}

// gameState resume o estado do jogo para os eventos de status.
func (h *GameHandler) gameState() (string, int) {
	if h.sess == nil || h.sess.Game() == nil {
		return string(bingo.StatusWaiting), 0
	}
	return string(h.sess.Game().Status()), h.sess.Game().CurrentRound()
}

// wirePattern converte o padrão do domínio para o DTO do protocolo.
func wirePattern(p *card.Pattern) *protocol.Pattern {
	if p == nil {
		return nil
	}
	return &protocol.Pattern{Type: p.Type, Row: p.Row, Col: p.Col}
}

// wireLeaderboard converte o placar do domínio para o DTO do protocolo.
func wireLeaderboard(entries []LeaderboardEntry) []protocol.LeaderboardEntry {
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
