package scoreboard

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"wordbingo/internal/session"
)

// Publisher espelha os eventos de uma sessão em assuntos NATS, para
// placares externos (telões, overlays) assinarem sem encostar no jogo.
// Os assuntos seguem wordbingo.events.<sessionId>.<tipo do evento>.
//
// Falha de publicação nunca é fatal: o publisher é só mais um ouvinte da
// sessão, e a barreira de isolamento dos ouvintes vale para ele também.
type Publisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// wireEvent é a forma serializada de um evento no NATS.
type wireEvent struct {
	Type        string `json:"type"`
	PlayerID    string `json:"playerId,omitempty"`
	ScreenName  string `json:"screenName,omitempty"`
	Round       int    `json:"round,omitempty"`
	Points      int    `json:"points,omitempty"`
	PlayerCount int    `json:"playerCount,omitempty"`
}

// Connect abre a conexão com o NATS. O nome da conexão aparece no
// monitoramento do servidor.
func Connect(url string, log zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("wordbingo-scoreboard"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info().Str("url", url).Msg("connected to nats")
	return &Publisher{nc: nc, log: log}, nil
}

// Attach inscreve o publisher como ouvinte da sessão.
func (p *Publisher) Attach(sess *session.Session) {
	sessionID := sess.ID()
	sess.Subscribe(func(event session.GameEvent) {
		p.publish(sessionID, event)
	})
}

func (p *Publisher) publish(sessionID string, event session.GameEvent) {
	subject := fmt.Sprintf("wordbingo.events.%s.%s", sessionID, event.Type)
	payload, _ := json.Marshal(wireEvent{
		Type:        event.Type,
		PlayerID:    event.PlayerID,
		ScreenName:  event.ScreenName,
		Round:       event.Round,
		Points:      event.Points,
		PlayerCount: event.PlayerCount,
	})
	if err := p.nc.Publish(subject, payload); err != nil {
		p.log.Warn().Str("subject", subject).Err(err).Msg("nats publish failed")
	}
}

// Close drena e fecha a conexão.
func (p *Publisher) Close() {
	p.nc.Drain()
}
