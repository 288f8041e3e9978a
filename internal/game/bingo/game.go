package bingo

import (
	"errors"
	"time"

	"wordbingo/internal/game/card"
)

// Status é o estado do ciclo de rodadas de um jogo.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// WinnerPoints é a pontuação fixa de uma vitória de rodada.
const WinnerPoints = 100

var (
	ErrGameNotWaiting  = errors.New("game already started")
	ErrGameNotFinished = errors.New("round is still in progress")
	ErrGameNotStarted  = errors.New("game has not started yet")
)

// Winner registra quem venceu uma rodada, com qual padrão e quando.
type Winner struct {
	PlayerID  string
	Pattern   card.Pattern
	Round     int
	Points    int
	Timestamp time.Time
}

// MarkResult é o resultado de uma tentativa de marcação.
type MarkResult struct {
	Success   bool
	Bingo     bool
	RoundOver bool
	Pattern   *card.Pattern
	WinnerID  string
}

// Game controla o ciclo de rodadas de uma sessão e as cartelas de cada
// jogador. A máquina de estados é estrita:
//
//	waiting -> (Start) -> active -> (marcação vencedora) -> finished
//	finished -> (StartNewRound) -> active -> ...
//
// Só a PRIMEIRA marcação vencedora de cada rodada tem efeito; depois de
// finished, toda marcação é rejeitada até a próxima rodada.
type Game struct {
	sessionID     string
	words         []string
	status        Status
	currentRound  int
	cards         map[string]*card.Card
	currentWinner *Winner
	roundWinners  []Winner
}

// New cria um jogo em waiting para a sessão, sobre a lista de palavras dada.
func New(sessionID string, words []string) *Game {
	return &Game{
		sessionID: sessionID,
		words:     words,
		status:    StatusWaiting,
		cards:     make(map[string]*card.Card),
	}
}

func (g *Game) SessionID() string      { return g.sessionID }
func (g *Game) Status() Status         { return g.status }
func (g *Game) CurrentRound() int      { return g.currentRound }
func (g *Game) CurrentWinner() *Winner { return g.currentWinner }

// RoundWinners retorna o histórico de vencedores das rodadas já encerradas.
func (g *Game) RoundWinners() []Winner {
	out := make([]Winner, len(g.roundWinners))
	copy(out, g.roundWinners)
	return out
}

// CardFor retorna a cartela atual do jogador, ou nil se ele não tem uma.
func (g *Game) CardFor(playerID string) *card.Card {
	return g.cards[playerID]
}

// Start inicia a primeira rodada. Só é válido a partir de waiting.
func (g *Game) Start() error {
	if g.status != StatusWaiting {
		return ErrGameNotWaiting
	}
	g.status = StatusActive
	g.currentRound = 1
	return nil
}

// StartNewRound encerra de vez a rodada atual e abre a próxima: arquiva o
// vencedor no histórico, descarta TODAS as cartelas e volta para active.
// Só é válido a partir de finished.
func (g *Game) StartNewRound() error {
	if g.status != StatusFinished {
		return ErrGameNotFinished
	}
	if g.currentWinner != nil {
		g.roundWinners = append(g.roundWinners, *g.currentWinner)
	}
	g.cards = make(map[string]*card.Card)
	g.currentWinner = nil
	g.currentRound++
	g.status = StatusActive
	return nil
}

// GenerateCardForPlayer cria (ou substitui) a cartela do jogador para a
// rodada atual. Falha se o jogo ainda está em waiting.
func (g *Game) GenerateCardForPlayer(playerID string) (*card.Card, error) {
	if g.status == StatusWaiting {
		return nil, ErrGameNotStarted
	}
	c, err := card.Generate(playerID, g.words)
	if err != nil {
		return nil, err
	}
	g.cards[playerID] = c
	return c, nil
}

// MarkWord tenta marcar uma palavra na cartela do jogador.
//
// Retorna erro se o jogo ainda não começou. Com a rodada já encerrada,
// devolve {Success:false, RoundOver:true} sem tocar em nada — é isso que
// garante no máximo um vencedor por rodada. Sem cartela, {Success:false}.
// Na primeira marcação que completa um padrão, registra o vencedor e vira
// o status para finished.
func (g *Game) MarkWord(playerID, word string) (MarkResult, error) {
	if g.status == StatusWaiting {
		return MarkResult{}, ErrGameNotStarted
	}
	if g.status == StatusFinished {
		return MarkResult{Success: false, RoundOver: true}, nil
	}

	c, ok := g.cards[playerID]
	if !ok {
		return MarkResult{Success: false}, nil
	}

	if !c.MarkWord(word) {
		return MarkResult{Success: false}, nil
	}

	pattern := c.WinningPattern()
	if pattern == nil {
		return MarkResult{Success: true, Bingo: false}, nil
	}

	g.currentWinner = &Winner{
		PlayerID:  playerID,
		Pattern:   *pattern,
		Round:     g.currentRound,
		Points:    WinnerPoints,
		Timestamp: time.Now(),
	}
	g.status = StatusFinished

	return MarkResult{
		Success:   true,
		Bingo:     true,
		RoundOver: true,
		Pattern:   pattern,
		WinnerID:  playerID,
	}, nil
}
