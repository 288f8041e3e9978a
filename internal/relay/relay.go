package relay

import (
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"

	"wordbingo/internal/network"
	"wordbingo/internal/protocol"
)

// Relay é o multiplexador de transporte: um processo público que aceita
// muitos sockets de jogador e UM socket de admin, e encaminha tráfego
// entre eles por envelopes. Ele não entende o jogo — só connectionIds.
//
// Implementa network.EventHandler; todo o estado é mexido apenas na
// goroutine do Hub.
type Relay struct {
	log    zerolog.Logger
	secret string

	players map[string]*network.Client // connectionId -> socket do jogador

	// No máximo um admin por processo. adminRegistered só vira true
	// depois de um admin_register com o segredo certo.
	admin           *network.Client
	adminRegistered bool
	sessionID       string

	// downstream para um id desconhecido é descartado em silêncio por
	// contrato, mas o descarte fica contado e logado.
	droppedDownstream atomic.Uint64
}

// New cria o relay com o segredo compartilhado que o admin precisa
// apresentar no registro.
func New(secret string, log zerolog.Logger) *Relay {
	return &Relay{
		log:     log,
		secret:  secret,
		players: make(map[string]*network.Client),
	}
}

// DroppedDownstream informa quantos downstream/broadcast já foram
// descartados por alvo desconhecido.
func (r *Relay) DroppedDownstream() uint64 {
	return r.droppedDownstream.Load()
}

// --- Implementação de network.EventHandler ---

func (r *Relay) OnConnect(c *network.Client) {
	if c.Role() == network.RoleAdmin {
		r.onAdminConnect(c)
		return
	}

	// Jogador novo: o connectionId dele é anunciado para o admin.
	r.players[c.ID()] = c
	r.log.Info().Str("connection", c.ID()).Msg("player connected")
	if r.adminRegistered {
		r.sendToAdmin(PlayerConnectedEnvelope(c.ID()))
	}
}

func (r *Relay) OnDisconnect(c *network.Client) {
	if c.Role() == network.RoleAdmin {
		r.onAdminDisconnect(c)
		return
	}

	if _, ok := r.players[c.ID()]; !ok {
		return
	}
	delete(r.players, c.ID())
	r.log.Info().Str("connection", c.ID()).Msg("player disconnected")
	if r.adminRegistered {
		r.sendToAdmin(PlayerDisconnectedEnvelope(c.ID()))
	}
}

func (r *Relay) OnMessage(c *network.Client, raw []byte) {
	if c.Role() == network.RoleAdmin {
		r.onAdminMessage(c, raw)
		return
	}

	// Mensagem de jogador: o relay não decodifica o comando, só embrulha
	// num upstream para o admin. Sem admin registrado, descarta.
	if !r.adminRegistered {
		r.log.Debug().Str("connection", c.ID()).Msg("no admin registered, upstream dropped")
		return
	}
	r.sendToAdmin(UpstreamEnvelope(c.ID(), raw))
}

// --- Lado do admin ---

func (r *Relay) onAdminConnect(c *network.Client) {
	if r.admin != nil {
		if r.adminRegistered {
			// Já existe um admin registrado neste processo. O segundo
			// recebe o erro e é ignorado dali em diante — a conexão não é
			// derrubada.
			c.Send(EncodeEnvelope(AdminErrorEnvelope("an admin is already connected to this relay")))
			r.log.Warn().Str("connection", c.ID()).Msg("second admin connection rejected")
			return
		}
		// Um ocupante que nunca se registrou não segura a vaga: a conexão
		// mais nova assume e a antiga passa a ser ignorada.
		r.admin.Send(EncodeEnvelope(AdminErrorEnvelope("superseded by a newer admin connection")))
		r.log.Warn().Str("connection", r.admin.ID()).Msg("unregistered admin superseded")
	}
	r.admin = c
	r.log.Info().Str("connection", c.ID()).Msg("admin connected, awaiting registration")
}

func (r *Relay) onAdminDisconnect(c *network.Client) {
	if c != r.admin {
		return
	}
	r.admin = nil
	r.adminRegistered = false
	r.log.Warn().Msg("admin disconnected")

	// Os jogadores NÃO caem junto com o admin: os sockets ficam, e o
	// roster devolve a visibilidade quando o admin voltar. Eles só são
	// avisados do sumiço.
	notice := protocol.EncodeEvent(protocol.ErrorEvent("host disconnected, reconnecting"))
	for _, p := range r.players {
		p.Send(notice)
	}
}

func (r *Relay) onAdminMessage(c *network.Client, raw []byte) {
	if c != r.admin {
		c.Send(EncodeEnvelope(AdminErrorEnvelope("an admin is already connected to this relay")))
		return
	}

	env := DecodeEnvelope(raw)
	if env == nil {
		r.sendToAdmin(AdminErrorEnvelope("malformed envelope"))
		return
	}

	if !r.adminRegistered {
		// Antes do registro, a única coisa aceita é admin_register com o
		// segredo certo. Qualquer outra coisa dá erro e não muda nada.
		if env.Envelope != EnvAdminRegister {
			r.sendToAdmin(AdminErrorEnvelope("register first"))
			return
		}
		r.registerAdmin(env)
		return
	}

	switch env.Envelope {
	case EnvAdminRegister:
		// Re-registro na mesma conexão é idempotente: responde de novo e
		// reenvia o roster.
		r.registerAdmin(env)

	case EnvDownstream:
		r.routeDownstream(env)

	case EnvBroadcast:
		r.broadcast(env.Event)

	default:
		r.sendToAdmin(AdminErrorEnvelope("unexpected envelope: " + env.Envelope))
	}
}

func (r *Relay) registerAdmin(env *Envelope) {
	if env.Secret != r.secret {
		r.sendToAdmin(AdminErrorEnvelope("invalid relay secret"))
		return
	}
	r.adminRegistered = true
	r.sessionID = env.SessionID
	r.log.Info().Str("session", r.sessionID).Msg("admin registered")
	r.sendToAdmin(AdminRegisteredEnvelope(r.sessionID))

	// O snapshot do roster sai sempre, mesmo vazio: é ele que diz ao admin
	// quem (ainda) está conectado depois de um reinício — inclusive que não
	// sobrou ninguém.
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	r.sendToAdmin(PlayerRosterEnvelope(ids))
}

func (r *Relay) routeDownstream(env *Envelope) {
	p, ok := r.players[env.Target]
	if !ok {
		r.droppedDownstream.Add(1)
		r.log.Debug().Str("target", env.Target).Msg("downstream target unknown, dropped")
		return
	}
	p.Send(env.Event)
}

func (r *Relay) broadcast(event []byte) {
	for _, p := range r.players {
		p.Send(event)
	}
}

func (r *Relay) sendToAdmin(env Envelope) {
	if r.admin == nil {
		return
	}
	r.admin.Send(EncodeEnvelope(env))
}
