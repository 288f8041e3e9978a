package network

// EventHandler é a interface que liga a camada de rede à lógica da
// aplicação. Quem está fora deste pacote implementa esta interface.
//
// Todas as chamadas acontecem na goroutine do Hub, uma por vez: o handler
// pode mexer no próprio estado sem lock nenhum.
type EventHandler interface {
	// OnConnect é chamado quando um cliente novo se conecta com sucesso.
	OnConnect(c *Client)

	// OnDisconnect é chamado quando um cliente se desconecta.
	OnDisconnect(c *Client)

	// OnMessage é chamado para cada frame recebido de um cliente. O
	// conteúdo é bruto: cada handler decodifica com o codec que quiser.
	OnMessage(c *Client, raw []byte)
}
