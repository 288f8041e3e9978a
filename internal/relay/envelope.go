package relay

import (
	"encoding/json"

	"wordbingo/internal/protocol"
)

// Tipos de envelope do relay. O discriminador é o campo "envelope".
const (
	EnvAdminRegister      = "admin_register"
	EnvAdminRegistered    = "admin_registered"
	EnvAdminError         = "admin_error"
	EnvPlayerConnected    = "player_connected"
	EnvPlayerDisconnected = "player_disconnected"
	EnvPlayerRoster       = "player_roster"
	EnvUpstream           = "upstream"
	EnvDownstream         = "downstream"
	EnvBroadcast          = "broadcast"
)

// Envelope é a união achatada do protocolo relay<->admin. Os payloads de
// comando e evento ficam como JSON bruto: o relay nunca olha dentro, ele
// só roteia.
type Envelope struct {
	Envelope     string          `json:"envelope"`
	SessionID    string          `json:"sessionId,omitempty"`
	Secret       string          `json:"secret,omitempty"`
	Message      string          `json:"message,omitempty"`
	ConnectionID string          `json:"connectionId,omitempty"`
	Target       string          `json:"target,omitempty"`
	Command      json.RawMessage `json:"command,omitempty"`
	Event        json.RawMessage `json:"event,omitempty"`
	// Connections fica sem omitempty de propósito: um roster vazio ainda é
	// um roster, e omitempty engoliria o slice de tamanho zero.
	Connections []string `json:"connections"`
}

// requiredEnvelopeFields segue a mesma disciplina de validação do codec
// de protocolo, com a tabela dos envelopes.
var requiredEnvelopeFields = map[string]map[string]protocol.FieldKind{
	EnvAdminRegister:      {"sessionId": protocol.KindString, "secret": protocol.KindString},
	EnvAdminRegistered:    {"sessionId": protocol.KindString},
	EnvAdminError:         {"message": protocol.KindString},
	EnvPlayerConnected:    {"connectionId": protocol.KindString},
	EnvPlayerDisconnected: {"connectionId": protocol.KindString},
	EnvPlayerRoster:       {"connections": protocol.KindArray},
	EnvUpstream:           {"connectionId": protocol.KindString, "command": protocol.KindObject},
	EnvDownstream:         {"target": protocol.KindString, "event": protocol.KindObject},
	EnvBroadcast:          {"event": protocol.KindObject},
}

// DecodeEnvelope valida e desserializa um envelope. Retorna nil para
// qualquer desvio, sem coagir nada.
func DecodeEnvelope(raw []byte) *Envelope {
	if !protocol.ValidateUnion(raw, "envelope", requiredEnvelopeFields) {
		return nil
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	return &env
}

// EncodeEnvelope serializa um envelope, sem validação adicional.
func EncodeEnvelope(env Envelope) []byte {
	raw, _ := json.Marshal(env)
	return raw
}

// Construtores dos envelopes que o relay e o cliente do admin montam.

func AdminRegisterEnvelope(sessionID, secret string) Envelope {
	return Envelope{Envelope: EnvAdminRegister, SessionID: sessionID, Secret: secret}
}

func AdminRegisteredEnvelope(sessionID string) Envelope {
	return Envelope{Envelope: EnvAdminRegistered, SessionID: sessionID}
}

func AdminErrorEnvelope(message string) Envelope {
	return Envelope{Envelope: EnvAdminError, Message: message}
}

func PlayerConnectedEnvelope(connectionID string) Envelope {
	return Envelope{Envelope: EnvPlayerConnected, ConnectionID: connectionID}
}

func PlayerDisconnectedEnvelope(connectionID string) Envelope {
	return Envelope{Envelope: EnvPlayerDisconnected, ConnectionID: connectionID}
}

func PlayerRosterEnvelope(connections []string) Envelope {
	if connections == nil {
		connections = []string{}
	}
	return Envelope{Envelope: EnvPlayerRoster, Connections: connections}
}

func UpstreamEnvelope(connectionID string, command []byte) Envelope {
	return Envelope{Envelope: EnvUpstream, ConnectionID: connectionID, Command: command}
}

func DownstreamEnvelope(target string, event []byte) Envelope {
	return Envelope{Envelope: EnvDownstream, Target: target, Event: event}
}

func BroadcastEnvelope(event []byte) Envelope {
	return Envelope{Envelope: EnvBroadcast, Event: event}
}
