package network

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Server é o ponto de entrada da camada de rede. Ele promove requisições
// HTTP para WebSocket em duas rotas: jogadores conectam em "/", o admin
// em "/admin".
type Server struct {
	hub *Hub
	log zerolog.Logger
}

var upgrader = websocket.Upgrader{
	// Qualquer origem pode conectar; o controle de acesso é feito pela
	// camada de aplicação (comandos privilegiados, segredo do relay).
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewServer cria o servidor com o handler da aplicação injetado.
func NewServer(handler EventHandler, log zerolog.Logger) *Server {
	return &Server{
		hub: NewHub(handler, log),
		log: log,
	}
}

// Hub expõe o hub, para métricas e testes.
func (s *Server) Hub() *Hub { return s.hub }

// wsHandler promove a conexão e registra o cliente no Hub com o papel da
// rota. O connectionId é gerado aqui, uma única vez por conexão.
func (s *Server) wsHandler(role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			id:   uuid.NewString(),
			role: role,
			conn: conn,
			hub:  s.hub,
			send: make(chan []byte, sendBuffer),
		}

		client.hub.register <- client

		go client.writeLoop()
		go client.readLoop()
	}
}

// Handler monta as rotas WebSocket. Os mains compõem este handler com as
// rotas HTTP deles (health check); os testes usam httptest direto.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.wsHandler(RolePlayer))
	mux.HandleFunc("/admin", s.wsHandler(RoleAdmin))
	return mux
}

// Start dispara a goroutine do Hub. Chamar uma vez, antes de servir.
func (s *Server) Start() {
	go s.hub.Run()
}
