package relay

import (
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wordbingo/internal/network"
	"wordbingo/internal/protocol"
)

const testSecret = "s3cret"

// newRelayServer sobe um relay de verdade atrás de um httptest.Server,
// com o Hub rodando. Os testes conversam com ele por WebSocket mesmo.
func newRelayServer(t *testing.T) (*Relay, *httptest.Server) {
	t.Helper()
	r := New(testSecret, zerolog.Nop())
	srv := network.NewServer(r, zerolog.Nop())
	srv.Start()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return r, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s failed: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) *Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("envelope read failed: %v", err)
	}
	env := DecodeEnvelope(raw)
	if env == nil {
		t.Fatalf("relay sent a malformed envelope: %s", raw)
	}
	return env
}

func readEvent(t *testing.T, conn *websocket.Conn) *protocol.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("event read failed: %v", err)
	}
	evt := protocol.DecodeEvent(raw)
	if evt == nil {
		t.Fatalf("player received a malformed event: %s", raw)
	}
	return evt
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, env Envelope) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, EncodeEnvelope(env)); err != nil {
		t.Fatalf("envelope write failed: %v", err)
	}
}

// registerAdmin faz o handshake completo: admin_register, admin_registered
// e o roster incondicional que vem logo atrás. Devolve as conexões do
// roster, com o relay já pronto para rotear.
func registerAdmin(t *testing.T, conn *websocket.Conn, sessionID string) []string {
	t.Helper()
	writeEnvelope(t, conn, AdminRegisterEnvelope(sessionID, testSecret))
	env := readEnvelope(t, conn)
	if env.Envelope != EnvAdminRegistered || env.SessionID != sessionID {
		t.Fatalf("registration answer: %+v", env)
	}
	roster := readEnvelope(t, conn)
	if roster.Envelope != EnvPlayerRoster {
		t.Fatalf("expected roster after registration, got %+v", roster)
	}
	if roster.Connections == nil {
		t.Fatal("roster with nil connections")
	}
	return roster.Connections
}

func TestAdminMustRegisterWithSecret(t *testing.T) {
	_, ts := newRelayServer(t)
	admin := dial(t, ts, "/admin")

	// Antes do registro, nada além de admin_register é aceito.
	writeEnvelope(t, admin, BroadcastEnvelope([]byte(`{"type":"error","message":"x"}`)))
	env := readEnvelope(t, admin)
	if env.Envelope != EnvAdminError || !strings.Contains(env.Message, "register") {
		t.Fatalf("pre-registration answer: %+v", env)
	}

	writeEnvelope(t, admin, AdminRegisterEnvelope("sess-1", "wrong"))
	env = readEnvelope(t, admin)
	if env.Envelope != EnvAdminError || !strings.Contains(env.Message, "secret") {
		t.Fatalf("wrong secret answer: %+v", env)
	}

	// Com o segredo certo, o registro vem com o roster — vazio, porque
	// nenhum jogador conectou ainda.
	if roster := registerAdmin(t, admin, "sess-1"); len(roster) != 0 {
		t.Fatalf("roster before any player: %v", roster)
	}

	// Registrado, um envelope que só o relay emite vira erro.
	writeEnvelope(t, admin, PlayerConnectedEnvelope("conn-x"))
	env = readEnvelope(t, admin)
	if env.Envelope != EnvAdminError || !strings.Contains(env.Message, "unexpected") {
		t.Fatalf("unexpected envelope answer: %+v", env)
	}

	// Lixo não decodificável também responde com erro, sem derrubar nada.
	if err := admin.WriteMessage(websocket.TextMessage, []byte(`{"envelope":12}`)); err != nil {
		t.Fatal(err)
	}
	env = readEnvelope(t, admin)
	if env.Envelope != EnvAdminError || !strings.Contains(env.Message, "malformed") {
		t.Fatalf("malformed envelope answer: %+v", env)
	}
}

func TestSecondAdminRejected(t *testing.T) {
	_, ts := newRelayServer(t)
	first := dial(t, ts, "/admin")
	registerAdmin(t, first, "sess-1")

	second := dial(t, ts, "/admin")
	env := readEnvelope(t, second)
	if env.Envelope != EnvAdminError || !strings.Contains(env.Message, "already") {
		t.Fatalf("second admin answer: %+v", env)
	}

	// E continua ignorado: até um registro válido dele só rende o erro.
	writeEnvelope(t, second, AdminRegisterEnvelope("sess-2", testSecret))
	env = readEnvelope(t, second)
	if env.Envelope != EnvAdminError || !strings.Contains(env.Message, "already") {
		t.Fatalf("second admin register answer: %+v", env)
	}
}

func TestPlayerTrafficIsRelayedBothWays(t *testing.T) {
	r, ts := newRelayServer(t)
	admin := dial(t, ts, "/admin")
	registerAdmin(t, admin, "sess-1")

	player := dial(t, ts, "/")
	env := readEnvelope(t, admin)
	if env.Envelope != EnvPlayerConnected || env.ConnectionID == "" {
		t.Fatalf("player announcement: %+v", env)
	}
	connID := env.ConnectionID

	// Para cima: o comando cru do jogador chega embrulhado, intacto.
	command := []byte(`{"type":"join","screenName":"Alice"}`)
	if err := player.WriteMessage(websocket.TextMessage, command); err != nil {
		t.Fatal(err)
	}
	env = readEnvelope(t, admin)
	if env.Envelope != EnvUpstream || env.ConnectionID != connID {
		t.Fatalf("upstream: %+v", env)
	}
	if cmd := protocol.DecodeCommand(env.Command); cmd == nil || cmd.ScreenName != "Alice" {
		t.Fatalf("upstream payload mangled: %s", env.Command)
	}

	// Para baixo: downstream endereçado e broadcast chegam no socket certo.
	writeEnvelope(t, admin, DownstreamEnvelope(connID, protocol.EncodeEvent(protocol.ErrorEvent("targeted"))))
	if evt := readEvent(t, player); evt.Message != "targeted" {
		t.Fatalf("downstream event: %+v", evt)
	}

	writeEnvelope(t, admin, BroadcastEnvelope(protocol.EncodeEvent(protocol.ErrorEvent("to everyone"))))
	if evt := readEvent(t, player); evt.Message != "to everyone" {
		t.Fatalf("broadcast event: %+v", evt)
	}

	// Alvo desconhecido: descarte silencioso, mas contado.
	writeEnvelope(t, admin, DownstreamEnvelope("ghost", protocol.EncodeEvent(protocol.ErrorEvent("lost"))))
	deadline := time.Now().Add(2 * time.Second)
	for r.DroppedDownstream() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("unknown downstream was not counted as dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAdminReconnectKeepsPlayersAndGetsRoster(t *testing.T) {
	_, ts := newRelayServer(t)
	admin := dial(t, ts, "/admin")
	registerAdmin(t, admin, "sess-1")

	p1 := dial(t, ts, "/")
	p2 := dial(t, ts, "/")
	ids := []string{
		readEnvelope(t, admin).ConnectionID,
		readEnvelope(t, admin).ConnectionID,
	}
	sort.Strings(ids)

	// O admin cai. Os jogadores só são avisados; os sockets deles ficam.
	admin.Close()
	for _, p := range []*websocket.Conn{p1, p2} {
		evt := readEvent(t, p)
		if evt.Type != protocol.EvtError || !strings.Contains(evt.Message, "host disconnected") {
			t.Fatalf("disconnect notice: %+v", evt)
		}
	}

	// O admin volta e o roster devolve a visibilidade dos mesmos ids.
	again := dial(t, ts, "/admin")
	got := registerAdmin(t, again, "sess-1")
	sort.Strings(got)
	if len(got) != 2 || got[0] != ids[0] || got[1] != ids[1] {
		t.Fatalf("roster %v, want %v", got, ids)
	}

	// E o roteamento segue funcionando para os sobreviventes.
	writeEnvelope(t, again, DownstreamEnvelope(ids[0], protocol.EncodeEvent(protocol.ErrorEvent("back"))))
	writeEnvelope(t, again, DownstreamEnvelope(ids[1], protocol.EncodeEvent(protocol.ErrorEvent("back"))))
	for _, p := range []*websocket.Conn{p1, p2} {
		if evt := readEvent(t, p); evt.Message != "back" {
			t.Fatalf("post-reconnect event: %+v", evt)
		}
	}
}

func TestReconnectAfterLastPlayerLeftGetsEmptyRoster(t *testing.T) {
	_, ts := newRelayServer(t)
	admin := dial(t, ts, "/admin")
	registerAdmin(t, admin, "sess-1")

	// O único jogador entra e sai de novo.
	player := dial(t, ts, "/")
	if env := readEnvelope(t, admin); env.Envelope != EnvPlayerConnected {
		t.Fatalf("player announcement: %+v", env)
	}
	player.Close()
	if env := readEnvelope(t, admin); env.Envelope != EnvPlayerDisconnected {
		t.Fatalf("player departure: %+v", env)
	}

	// O admin cai e volta: o roster VAZIO precisa chegar mesmo assim — é
	// ele que diz ao lado do admin que não sobrou ninguém conectado.
	admin.Close()
	again := dial(t, ts, "/admin")
	if roster := registerAdmin(t, again, "sess-1"); len(roster) != 0 {
		t.Fatalf("roster after last player left: %v", roster)
	}
}

func TestUnregisteredAdminDoesNotHoldTheSlot(t *testing.T) {
	_, ts := newRelayServer(t)

	// O primeiro admin conecta mas nunca se registra. O eco de "register
	// first" confirma que é ele quem ocupa a vaga neste momento.
	idle := dial(t, ts, "/admin")
	writeEnvelope(t, idle, BroadcastEnvelope([]byte(`{"type":"error","message":"x"}`)))
	if env := readEnvelope(t, idle); env.Envelope != EnvAdminError || !strings.Contains(env.Message, "register") {
		t.Fatalf("idle admin answer: %+v", env)
	}

	// Um ocupante sem registro não bloqueia o admin de verdade.
	active := dial(t, ts, "/admin")
	registerAdmin(t, active, "sess-1")

	if env := readEnvelope(t, idle); env.Envelope != EnvAdminError || !strings.Contains(env.Message, "superseded") {
		t.Fatalf("notice to the superseded admin: %+v", env)
	}

	// E o superado fica ignorado dali em diante, mesmo com o segredo certo.
	writeEnvelope(t, idle, AdminRegisterEnvelope("sess-2", testSecret))
	if env := readEnvelope(t, idle); env.Envelope != EnvAdminError || !strings.Contains(env.Message, "already") {
		t.Fatalf("superseded register answer: %+v", env)
	}
}
