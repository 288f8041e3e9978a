package protocol

import "encoding/json"

// A disciplina de validação é a mesma para as duas uniões do sistema
// (comandos/eventos aqui, envelopes no relay): o JSON precisa ser um
// objeto plano, o discriminador precisa ser uma string de um conjunto
// conhecido e cada campo obrigatório da variante precisa existir com o
// tipo certo. Nada é coagido; qualquer desvio devolve nil.

// FieldKind é o tipo JSON esperado de um campo obrigatório.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindArray
	KindObject
)

// requiredCommandFields mapeia cada comando para os campos obrigatórios
// e o tipo esperado de cada um.
var requiredCommandFields = map[string]map[string]FieldKind{
	CmdCreateSession: {"words": KindArray},
	CmdStartGame:     {},
	CmdStartNewRound: {},
	CmdJoin:          {"screenName": KindString},
	CmdMarkWord:      {"word": KindString},
}

var requiredEventFields = map[string]map[string]FieldKind{
	EvtSessionCreated: {"sessionId": KindString},
	EvtJoined:         {"playerId": KindString, "screenName": KindString, "gameStatus": KindString, "round": KindNumber},
	EvtCardDealt:      {"roundNumber": KindNumber, "grid": KindArray, "marked": KindArray},
	EvtMarkResult:     {"success": KindBool, "word": KindString, "bingo": KindBool, "roundOver": KindBool},
	EvtPlayerWon:      {"winnerName": KindString, "pattern": KindObject, "roundNumber": KindNumber},
	EvtGameStatus:     {"status": KindString, "round": KindNumber},
	EvtPlayerJoined:   {"playerId": KindString, "screenName": KindString, "playerCount": KindNumber},
	EvtPlayerLeft:     {"playerId": KindString, "screenName": KindString, "playerCount": KindNumber},
	EvtLeaderboard:    {"entries": KindArray},
	EvtError:          {"message": KindString},
}

func matchesKind(value any, kind FieldKind) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		_, ok := value.(float64)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindArray:
		_, ok := value.([]any)
		return ok
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	}
	return false
}

// ValidateUnion faz a parte genérica da validação: objeto plano,
// discriminador string de valor conhecido, campos obrigatórios presentes
// e com o tipo certo. O codec de envelopes do relay usa a mesma função
// com a tabela dele.
func ValidateUnion(raw []byte, discriminator string, variants map[string]map[string]FieldKind) bool {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return false
	}
	typ, ok := obj[discriminator].(string)
	if !ok {
		return false
	}
	required, known := variants[typ]
	if !known {
		return false
	}
	for field, kind := range required {
		value, present := obj[field]
		if !present || !matchesKind(value, kind) {
			return false
		}
	}
	return true
}

// DecodeCommand valida e desserializa um comando. Retorna nil para
// qualquer entrada malformada: JSON inválido, não-objeto, tipo
// desconhecido, campo obrigatório ausente ou com tipo errado.
func DecodeCommand(raw []byte) *Command {
	if !ValidateUnion(raw, "type", requiredCommandFields) {
		return nil
	}
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil
	}
	return &cmd
}

// DecodeEvent valida e desserializa um evento, com as mesmas regras.
func DecodeEvent(raw []byte) *Event {
	if !ValidateUnion(raw, "type", requiredEventFields) {
		return nil
	}
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil
	}
	return &evt
}

// Int e Bool são atalhos para montar os campos ponteiro das variantes.
func Int(v int) *int { return &v }

func Bool(v bool) *bool { return &v }
