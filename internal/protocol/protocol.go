package protocol

import "encoding/json"

// Tipos de comando (cliente -> servidor).
const (
	CmdCreateSession = "create_session"
	CmdStartGame     = "start_game"
	CmdStartNewRound = "start_new_round"
	CmdJoin          = "join"
	CmdMarkWord      = "mark_word"
)

// Tipos de evento (servidor -> cliente).
const (
	EvtSessionCreated = "session_created"
	EvtJoined         = "joined"
	EvtCardDealt      = "card_dealt"
	EvtMarkResult     = "mark_result"
	EvtPlayerWon      = "player_won"
	EvtGameStatus     = "game_status"
	EvtPlayerJoined   = "player_joined"
	EvtPlayerLeft     = "player_left"
	EvtLeaderboard    = "leaderboard"
	EvtError          = "error"
)

// Command é a união achatada de todos os comandos do protocolo. O campo
// Type discrimina a variante; os demais campos só valem para a variante
// correspondente.
type Command struct {
	Type       string `json:"type"`
	ScreenName string `json:"screenName,omitempty"`
	Word       string `json:"word,omitempty"`
	// Words fica sem omitempty de propósito: um create_session com a lista
	// vazia ainda é um comando bem formado de fio, e omitempty engoliria o
	// slice de tamanho zero.
	Words []string `json:"words"`
}

// Pattern é o DTO de fio de um padrão vencedor. Espelha o padrão do
// domínio sem acoplar o codec ao pacote de jogo.
type Pattern struct {
	Type string `json:"type"`
	Row  *int   `json:"row,omitempty"`
	Col  *int   `json:"col,omitempty"`
}

// LeaderboardEntry é o DTO de fio de uma linha do placar.
type LeaderboardEntry struct {
	PlayerID     string `json:"playerId"`
	ScreenName   string `json:"screenName"`
	TotalPoints  int    `json:"totalPoints"`
	RoundsWon    int    `json:"roundsWon"`
	LastWinRound int    `json:"lastWinRound,omitempty"`
}

// Event é a união achatada de todos os eventos do protocolo. Os campos
// escalares são sempre serializados (estilo "todas as chaves presentes");
// os compostos só aparecem nas variantes que os usam.
type Event struct {
	Type        string             `json:"type"`
	SessionID   string             `json:"sessionId,omitempty"`
	PlayerID    string             `json:"playerId,omitempty"`
	ScreenName  string             `json:"screenName,omitempty"`
	GameStatus  string             `json:"gameStatus,omitempty"`
	Status      string             `json:"status,omitempty"`
	WinnerName  string             `json:"winnerName,omitempty"`
	Word        string             `json:"word,omitempty"`
	Message     string             `json:"message,omitempty"`
	Round       *int               `json:"round,omitempty"`
	RoundNumber *int               `json:"roundNumber,omitempty"`
	PlayerCount *int               `json:"playerCount,omitempty"`
	Success     *bool              `json:"success,omitempty"`
	Bingo       *bool              `json:"bingo,omitempty"`
	RoundOver   *bool              `json:"roundOver,omitempty"`
	Grid        [][]string         `json:"grid,omitempty"`
	Marked      [][]bool           `json:"marked,omitempty"`
	Pattern     *Pattern           `json:"pattern,omitempty"`
	// Entries fica sem omitempty de propósito: um placar vazio ainda é
	// um placar, e omitempty engoliria o slice de tamanho zero.
	Entries []LeaderboardEntry `json:"entries"`
}

// EncodeCommand serializa um comando. Encode é puramente estrutural: quem
// monta o valor é responsável por ele estar bem formado.
func EncodeCommand(cmd Command) []byte {
	raw, _ := json.Marshal(cmd)
	return raw
}

// EncodeEvent serializa um evento, sem validação adicional.
func EncodeEvent(evt Event) []byte {
	raw, _ := json.Marshal(evt)
	return raw
}
