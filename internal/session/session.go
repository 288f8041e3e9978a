package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wordbingo/internal/game/bingo"
)

var (
	ErrBlankScreenName = errors.New("screen name cannot be blank")
	ErrNoPlayers       = errors.New("cannot start a game with no players")
	ErrNoGame          = errors.New("no game in progress")
)

// Session é o dono da identidade dos jogadores, do placar acumulado e do
// fan-out de eventos de uma partida de bingo de palavras. Vive enquanto o
// processo do admin viver; uma sessão por processo.
//
// Toda mutação acontece dentro do turno de mensagem de um único handler
// (o Hub da rede afunila tudo numa goroutine), então não há lock aqui.
type Session struct {
	id    string
	words []string

	players   map[string]*Player
	joinOrder []string
	scores    map[string]*Score

	game *bingo.Game
	bus  eventBus
}

// New cria uma sessão vazia sobre a lista de palavras dada.
func New(words []string, log zerolog.Logger) *Session {
	return &Session{
		id:      uuid.NewString(),
		words:   words,
		players: make(map[string]*Player),
		scores:  make(map[string]*Score),
		bus:     eventBus{log: log},
	}
}

func (s *Session) ID() string        { return s.id }
func (s *Session) Words() []string   { return s.words }
func (s *Session) Game() *bingo.Game { return s.game }

// Subscribe registra um ouvinte para todos os eventos da sessão.
func (s *Session) Subscribe(l Listener) {
	s.bus.subscribe(l)
}

// Players retorna os jogadores atuais em ordem de entrada.
func (s *Session) Players() []*Player {
	out := make([]*Player, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		out = append(out, s.players[id])
	}
	return out
}

// PlayerByID retorna o jogador, ou nil se ele não está (mais) na sessão.
func (s *Session) PlayerByID(playerID string) *Player {
	return s.players[playerID]
}

// AddPlayer entra com um jogador novo na sessão. O nome é limpo e precisa
// ser único (case-insensitive) entre os jogadores ATUAIS — sair libera o
// nome de novo. Se já existe um jogo ativo, o recém-chegado é servido na
// hora com uma cartela da rodada corrente, via um game_started endereçado
// só a ele.
func (s *Session) AddPlayer(screenName string) (*Player, error) {
	screenName = strings.TrimSpace(screenName)
	if screenName == "" {
		return nil, ErrBlankScreenName
	}
	for _, p := range s.players {
		if strings.EqualFold(p.ScreenName, screenName) {
			return nil, fmt.Errorf("screen name %q is already taken", screenName)
		}
	}

	player := &Player{
		ID:         uuid.NewString(),
		ScreenName: screenName,
		JoinedAt:   time.Now(),
	}
	s.players[player.ID] = player
	s.joinOrder = append(s.joinOrder, player.ID)
	s.scores[player.ID] = &Score{}

	s.bus.publish(GameEvent{
		Type:        EventPlayerJoined,
		PlayerID:    player.ID,
		ScreenName:  player.ScreenName,
		PlayerCount: len(s.players),
	})

	if s.game != nil && s.game.Status() == bingo.StatusActive {
		c, err := s.game.GenerateCardForPlayer(player.ID)
		if err == nil {
			s.bus.publish(GameEvent{
				Type:     EventGameStarted,
				PlayerID: player.ID,
				Round:    s.game.CurrentRound(),
				Card:     c,
			})
		}
	}

	return player, nil
}

// RemovePlayer tira o jogador e o seu placar da sessão. Chamadas com um
// id desconhecido são no-ops silenciosos.
func (s *Session) RemovePlayer(playerID string) {
	player, ok := s.players[playerID]
	if !ok {
		return
	}
	delete(s.players, playerID)
	delete(s.scores, playerID)
	for i, id := range s.joinOrder {
		if id == playerID {
			s.joinOrder = append(s.joinOrder[:i], s.joinOrder[i+1:]...)
			break
		}
	}

	s.bus.publish(GameEvent{
		Type:        EventPlayerLeft,
		PlayerID:    player.ID,
		ScreenName:  player.ScreenName,
		PlayerCount: len(s.players),
	})
}

// StartGame constrói um jogo novo sobre a lista de palavras da sessão,
// inicia a primeira rodada e distribui uma cartela para cada jogador já
// presente — um game_started por jogador.
func (s *Session) StartGame() error {
	if len(s.players) == 0 {
		return ErrNoPlayers
	}

	game := bingo.New(s.id, s.words)
	if err := game.Start(); err != nil {
		return err
	}
	s.game = game

	return s.dealRound(EventGameStarted)
}

// StartNewRound avança o jogo para a próxima rodada e redistribui as
// cartelas, um new_round_started por jogador. As precondições do jogo
// (rodada ainda em andamento, etc.) são propagadas.
func (s *Session) StartNewRound() error {
	if s.game == nil {
		return ErrNoGame
	}
	if err := s.game.StartNewRound(); err != nil {
		return err
	}
	return s.dealRound(EventNewRoundStarted)
}

// dealRound gera uma cartela para cada jogador atual e emite um evento
// endereçado por jogador com a rodada corrente.
func (s *Session) dealRound(eventType string) error {
	for _, id := range s.joinOrder {
		c, err := s.game.GenerateCardForPlayer(id)
		if err != nil {
			return err
		}
		s.bus.publish(GameEvent{
			Type:     eventType,
			PlayerID: id,
			Round:    s.game.CurrentRound(),
			Card:     c,
		})
	}
	return nil
}

// MarkWord delega a marcação ao jogo. Numa marcação vencedora, resolve o
// nome do vencedor, credita a pontuação acumulada e emite player_won.
// Se o vencedor já saiu da sessão, o id cru serve de nome.
func (s *Session) MarkWord(playerID, word string) (bingo.MarkResult, error) {
	if s.game == nil {
		return bingo.MarkResult{}, ErrNoGame
	}

	result, err := s.game.MarkWord(playerID, word)
	if err != nil {
		return result, err
	}

	if result.Bingo {
		winnerName := result.WinnerID
		if p := s.players[result.WinnerID]; p != nil {
			winnerName = p.ScreenName
		}
		if score, ok := s.scores[result.WinnerID]; ok {
			score.TotalPoints += bingo.WinnerPoints
			score.RoundsWon++
			score.LastWinRound = s.game.CurrentRound()
		}
		s.bus.publish(GameEvent{
			Type:       EventPlayerWon,
			PlayerID:   result.WinnerID,
			ScreenName: winnerName,
			Round:      s.game.CurrentRound(),
			Pattern:    result.Pattern,
			Points:     bingo.WinnerPoints,
		})
	}

	return result, nil
}

// Leaderboard retorna os jogadores atuais com o placar acumulado, em
// ordem decrescente de pontos. Empates preservam a ordem de entrada
// (ordenação estável).
func (s *Session) Leaderboard() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		p := s.players[id]
		score := s.scores[id]
		entries = append(entries, LeaderboardEntry{
			PlayerID:     p.ID,
			ScreenName:   p.ScreenName,
			TotalPoints:  score.TotalPoints,
			RoundsWon:    score.RoundsWon,
			LastWinRound: score.LastWinRound,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	return entries
}
