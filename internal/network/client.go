package network

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Tempo máximo para uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo para aguardar por um pong do cliente.
	pongWait = 60 * time.Second

	// Frequência dos pings. Precisa ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Tamanho do buffer de saída de cada cliente.
	sendBuffer = 256
)

// Role diz por qual rota o cliente entrou: jogadores em "/", o admin em
// "/admin". O handler usa isso para aplicar comandos privilegiados.
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// Client é a representação de uma conexão do ponto de vista do servidor.
// Cada cliente ganha um connectionId opaco na conexão; é essa a chave
// usada em todos os mapas das camadas de cima (nunca o ponteiro ou o
// socket em si).
type Client struct {
	id   string
	role Role
	conn *websocket.Conn
	hub  *Hub

	// Canal bufferizado de saída. O Hub deposita frames aqui e a
	// goroutine writeLoop escoa para o socket. Se o buffer encher, o
	// frame é descartado (entrega é melhor-esforço).
	send chan []byte
}

// ID retorna o connectionId opaco do cliente.
func (c *Client) ID() string { return c.id }

// Role retorna o papel atribuído na conexão.
func (c *Client) Role() Role { return c.role }

// Send enfileira um frame para o cliente sem bloquear. Retorna false se
// o buffer estava cheio e o frame foi descartado; o descarte também é
// contado no Hub para ficar observável.
func (c *Client) Send(raw []byte) bool {
	select {
	case c.send <- raw:
		return true
	default:
		c.hub.noteDroppedFrame(c)
		return false
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// Deadline de leitura renovado a cada pong: é assim que conexões
	// mortas são detectadas.
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Str("connection", c.id).Err(err).Msg("unexpected close")
			}
			break
		}
		c.hub.incoming <- clientMessage{client: c, raw: raw}
	}
}

// writeLoop bombeia frames do canal send para o socket e mantém a
// conexão viva com pings periódicos.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// O Hub fechou o canal: o cliente foi desregistrado.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
