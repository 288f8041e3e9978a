package session

import "time"

// Player é um participante atualmente conectado à sessão.
type Player struct {
	ID         string
	ScreenName string
	JoinedAt   time.Time
}

// Score acumula a pontuação de um jogador ao longo das rodadas.
type Score struct {
	TotalPoints  int
	RoundsWon    int
	LastWinRound int
}

// LeaderboardEntry é uma linha do placar, já com o nome resolvido.
type LeaderboardEntry struct {
	PlayerID     string `json:"playerId"`
	ScreenName   string `json:"screenName"`
	TotalPoints  int    `json:"totalPoints"`
	RoundsWon    int    `json:"roundsWon"`
	LastWinRound int    `json:"lastWinRound,omitempty"`
}
