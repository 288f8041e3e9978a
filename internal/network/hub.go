package network

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// clientMessage empacota um frame junto com o cliente que o enviou.
type clientMessage struct {
	client *Client
	raw    []byte
}

// Hub mantém o conjunto de clientes ativos e afunila TODOS os eventos
// (conexão, desconexão, mensagens) por uma única goroutine. É isso que dá
// exclusão mútua de graça para os handlers: nenhuma mutação de estado
// se intercala com outra, porque nunca há duas em andamento.
type Hub struct {
	// Acessado SOMENTE pela goroutine do Hub.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage

	handler EventHandler
	log     zerolog.Logger

	// Frames descartados por buffer cheio. Descartar é o comportamento
	// esperado (entrega melhor-esforço), mas precisa ficar visível.
	droppedFrames atomic.Uint64
}

// NewHub cria um Hub ligado ao handler dado.
func NewHub(handler EventHandler, log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		handler:    handler,
		log:        log,
	}
}

// Run roda o loop do Hub. Deve ser chamado numa goroutine própria.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Fechar o canal send é o sinal para o writeLoop
				// daquele cliente encerrar.
				close(client.send)
				h.handler.OnDisconnect(client)
			}

		case msg := <-h.incoming:
			// O Hub não olha o conteúdo; só delega.
			h.handler.OnMessage(msg.client, msg.raw)
		}
	}
}

// DroppedFrames informa quantos frames de saída já foram descartados por
// buffer cheio desde o início do processo.
func (h *Hub) DroppedFrames() uint64 {
	return h.droppedFrames.Load()
}

func (h *Hub) noteDroppedFrame(c *Client) {
	h.droppedFrames.Add(1)
	h.log.Debug().Str("connection", c.id).Msg("send buffer full, frame dropped")
}
