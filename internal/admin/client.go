package admin

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wordbingo/internal/protocol"
	"wordbingo/internal/relay"
)

// Status é o estado da ligação do admin com o relay.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// defaultReconnectDelay é o intervalo fixo entre tentativas de reconexão.
const defaultReconnectDelay = 3 * time.Second

// Callbacks são os ganchos para os envelopes que chegam do relay. Todos
// são opcionais; os preenchidos são chamados da goroutine de leitura.
type Callbacks struct {
	OnUpstream           func(connectionID string, command []byte)
	OnPlayerConnected    func(connectionID string)
	OnPlayerDisconnected func(connectionID string)
	OnRoster             func(connections []string)
	OnStatusChange       func(status Status)
}

// Client mantém no máximo UMA conexão de saída com o relay.
//
// A máquina de estados: disconnected -> (Connect) -> connecting ->
// (admin_registered) -> connected -> (queda do socket) -> disconnected ->
// (retry automático com atraso fixo) -> connecting -> ...
//
// A reconexão é automática e indefinida até Disconnect() ser chamado; o
// Disconnect também revoga qualquer retry agendado. Envios com o socket
// fechado são descartados em silêncio, mas contados — quem chama precisa
// tolerar entrega melhor-esforço.
type Client struct {
	log       zerolog.Logger
	url       string
	sessionID string
	secret    string
	callbacks Callbacks

	mu      sync.Mutex
	conn    *websocket.Conn
	status  Status
	stopped bool
	retry   *time.Timer

	reconnectDelay time.Duration
	droppedSends   atomic.Uint64
}

// NewClient cria o cliente apontando para a URL do relay (ws://.../admin),
// com a identidade da sessão e o segredo compartilhado do registro.
func NewClient(url, sessionID, secret string, callbacks Callbacks, log zerolog.Logger) *Client {
	return &Client{
		log:            log,
		url:            url,
		sessionID:      sessionID,
		secret:         secret,
		callbacks:      callbacks,
		status:         StatusDisconnected,
		reconnectDelay: defaultReconnectDelay,
	}
}

// Status retorna o estado atual da ligação.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// DroppedSends informa quantos envios já foram descartados por a ligação
// não estar aberta.
func (c *Client) DroppedSends() uint64 {
	return c.droppedSends.Load()
}

// Connect abre a ligação com o relay e manda o admin_register. O status
// só vira connected quando o admin_registered voltar. Em caso de falha, o
// retry automático assume.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.stopped || c.status != StatusDisconnected {
		c.mu.Unlock()
		return
	}
	changed := c.setStatusLocked(StatusConnecting)
	c.mu.Unlock()
	if changed {
		c.notifyStatus(StatusConnecting)
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		c.log.Warn().Err(err).Str("url", c.url).Msg("relay dial failed")
		c.onSocketClosed()
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	// Registro imediato: o relay não aceita mais nada antes disso.
	c.write(relay.EncodeEnvelope(relay.AdminRegisterEnvelope(c.sessionID, c.secret)))

	go c.readLoop(conn)
}

// Disconnect encerra de vez: derruba o socket, revoga o retry pendente e
// suprime qualquer reconexão futura.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.stopped = true
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	conn := c.conn
	c.conn = nil
	changed := c.setStatusLocked(StatusDisconnected)
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if changed {
		c.notifyStatus(StatusDisconnected)
	}
}

// SendToPlayer manda um evento para um jogador específico, via downstream.
// Com a ligação fechada, o envio é descartado (e contado).
func (c *Client) SendToPlayer(connectionID string, event protocol.Event) {
	c.sendEnvelope(relay.DownstreamEnvelope(connectionID, protocol.EncodeEvent(event)))
}

// BroadcastToPlayers manda um evento para todos os jogadores conectados
// ao relay.
func (c *Client) BroadcastToPlayers(event protocol.Event) {
	c.sendEnvelope(relay.BroadcastEnvelope(protocol.EncodeEvent(event)))
}

func (c *Client) sendEnvelope(env relay.Envelope) {
	c.mu.Lock()
	open := c.conn != nil && c.status == StatusConnected
	c.mu.Unlock()
	if !open {
		c.droppedSends.Add(1)
		c.log.Debug().Str("envelope", env.Envelope).Msg("relay link not open, send dropped")
		return
	}
	c.write(relay.EncodeEnvelope(env))
}

// write serializa os acessos ao socket: gorilla/websocket só suporta um
// escritor por vez.
func (c *Client) write(raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.log.Warn().Err(err).Msg("relay write failed")
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		c.onSocketClosed()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		env := relay.DecodeEnvelope(raw)
		if env == nil {
			c.log.Warn().Msg("malformed envelope from relay, ignored")
			continue
		}
		c.handleEnvelope(env)
	}
}

func (c *Client) handleEnvelope(env *relay.Envelope) {
	switch env.Envelope {
	case relay.EnvAdminRegistered:
		c.mu.Lock()
		changed := c.setStatusLocked(StatusConnected)
		c.mu.Unlock()
		if changed {
			c.notifyStatus(StatusConnected)
		}
		c.log.Info().Str("session", env.SessionID).Msg("registered with relay")

	case relay.EnvAdminError:
		c.log.Error().Str("message", env.Message).Msg("relay refused admin")

	case relay.EnvUpstream:
		if c.callbacks.OnUpstream != nil {
			c.callbacks.OnUpstream(env.ConnectionID, env.Command)
		}

	case relay.EnvPlayerConnected:
		if c.callbacks.OnPlayerConnected != nil {
			c.callbacks.OnPlayerConnected(env.ConnectionID)
		}

	case relay.EnvPlayerDisconnected:
		if c.callbacks.OnPlayerDisconnected != nil {
			c.callbacks.OnPlayerDisconnected(env.ConnectionID)
		}

	case relay.EnvPlayerRoster:
		if c.callbacks.OnRoster != nil {
			c.callbacks.OnRoster(env.Connections)
		}
	}
}

// onSocketClosed derruba o estado para disconnected e agenda a próxima
// tentativa, a menos que Disconnect já tenha sido chamado.
func (c *Client) onSocketClosed() {
	c.mu.Lock()
	c.conn = nil
	changed := c.setStatusLocked(StatusDisconnected)
	if !c.stopped && c.retry == nil {
		c.retry = time.AfterFunc(c.reconnectDelay, func() {
			c.mu.Lock()
			c.retry = nil
			stopped := c.stopped
			c.mu.Unlock()
			if !stopped {
				c.Connect()
			}
		})
	}
	c.mu.Unlock()

	if changed {
		c.notifyStatus(StatusDisconnected)
	}
}

// setStatusLocked troca o status e informa se houve mudança. Chamar com o
// mutex em mãos; a notificação é responsabilidade do chamador, depois de
// soltar o lock.
func (c *Client) setStatusLocked(status Status) bool {
	if c.status == status {
		return false
	}
	c.status = status
	return true
}

// notifyStatus chama o callback de status SEM o mutex em mãos: o callback
// pode consultar o cliente à vontade (Status, DroppedSends, Disconnect).
func (c *Client) notifyStatus(status Status) {
	if c.callbacks.OnStatusChange != nil {
		c.callbacks.OnStatusChange(status)
	}
}
