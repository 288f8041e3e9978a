package session

import (
	"github.com/rs/zerolog"

	"wordbingo/internal/game/card"
)

// Tipos de evento emitidos pela sessão.
const (
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventGameStarted     = "game_started"
	EventNewRoundStarted = "new_round_started"
	EventPlayerWon       = "player_won"
)

// GameEvent é o que a sessão emite para os seus ouvintes. Eventos com
// cartela (game_started, new_round_started) são endereçados a um jogador
// específico; os demais interessam a todo mundo.
type GameEvent struct {
	Type        string
	PlayerID    string
	ScreenName  string
	Round       int
	Card        *card.Card
	Pattern     *card.Pattern
	Points      int
	PlayerCount int
}

// Listener recebe cada evento emitido pela sessão, na ordem de inscrição.
type Listener func(GameEvent)

// eventBus entrega eventos de forma síncrona, na ordem de inscrição.
// Cada ouvinte roda dentro de uma barreira de recover: um observador que
// entra em pânico é logado e descartado, e os demais (e o chamador)
// seguem intactos.
type eventBus struct {
	listeners []Listener
	log       zerolog.Logger
}

func (b *eventBus) subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

func (b *eventBus) publish(event GameEvent) {
	for _, l := range b.listeners {
		b.deliver(l, event)
	}
}

func (b *eventBus) deliver(l Listener, event GameEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().
				Str("event", event.Type).
				Interface("panic", r).
				Msg("listener panicked; event dropped for this listener")
		}
	}()
	l(event)
}
