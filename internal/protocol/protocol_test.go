package protocol

import (
	"reflect"
	"testing"
)

func TestDecodeCommandHappyPath(t *testing.T) {
	cmd := DecodeCommand([]byte(`{"type":"join","screenName":"Alice"}`))
	if cmd == nil {
		t.Fatal("valid join rejected")
	}
	if cmd.Type != CmdJoin || cmd.ScreenName != "Alice" {
		t.Fatalf("decoded command: %+v", cmd)
	}

	cmd = DecodeCommand([]byte(`{"type":"start_game"}`))
	if cmd == nil || cmd.Type != CmdStartGame {
		t.Fatal("bare start_game rejected")
	}
}

func TestDecodeCommandRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"type":`},
		{"null", `null`},
		{"not an object", `["join"]`},
		{"string scalar", `"join"`},
		{"missing type", `{"screenName":"Alice"}`},
		{"type not a string", `{"type":42}`},
		{"unknown type", `{"type":"teleport"}`},
		{"join without name", `{"type":"join"}`},
		{"join with numeric name", `{"type":"join","screenName":7}`},
		{"mark without word", `{"type":"mark_word"}`},
		{"mark with null word", `{"type":"mark_word","word":null}`},
		{"create without words", `{"type":"create_session"}`},
		{"create with string words", `{"type":"create_session","words":"a,b"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if cmd := DecodeCommand([]byte(tc.raw)); cmd != nil {
				t.Fatalf("accepted %s: %+v", tc.raw, cmd)
			}
		})
	}
}

func TestDecodeEventRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown type", `{"type":"fireworks"}`},
		{"joined without round", `{"type":"joined","playerId":"p","screenName":"A","gameStatus":"waiting"}`},
		{"joined with string round", `{"type":"joined","playerId":"p","screenName":"A","gameStatus":"waiting","round":"1"}`},
		{"mark_result with string success", `{"type":"mark_result","success":"true","word":"w","bingo":false,"roundOver":false}`},
		{"card_dealt without grid", `{"type":"card_dealt","roundNumber":1,"marked":[]}`},
		{"player_won with array pattern", `{"type":"player_won","winnerName":"A","pattern":[],"roundNumber":1}`},
		{"leaderboard with null entries", `{"type":"leaderboard","entries":null}`},
		{"error without message", `{"type":"error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if evt := DecodeEvent([]byte(tc.raw)); evt != nil {
				t.Fatalf("accepted %s: %+v", tc.raw, evt)
			}
		})
	}
}

// Campos escalares obrigatórios viajam como ponteiros justamente para que
// valores zero (success=false, round=0) sobrevivam à serialização. Os
// round-trips abaixo cobrem os casos onde omitempty morderia.
func TestEventRoundTripPreservesZeroValues(t *testing.T) {
	events := []Event{
		MarkResultEvent(false, "missing", false, false),
		GameStatusEvent("waiting", 0),
		LeaderboardEvent(nil),
		PlayerWonEvent("Alice", &Pattern{Type: "horizontal", Row: Int(0)}, 1),
	}
	for _, original := range events {
		decoded := DecodeEvent(EncodeEvent(original))
		if decoded == nil {
			t.Fatalf("own encoding of %q rejected", original.Type)
		}
		if !reflect.DeepEqual(*decoded, original) {
			t.Fatalf("round trip changed the event:\n got %+v\nwant %+v", *decoded, original)
		}
	}
}

func TestCommandRoundTrip(t *testing.T) {
	original := Command{Type: CmdCreateSession, Words: []string{"a", "b", "c"}}
	decoded := DecodeCommand(EncodeCommand(original))
	if decoded == nil {
		t.Fatal("own encoding rejected")
	}
	if !reflect.DeepEqual(*decoded, original) {
		t.Fatalf("round trip changed the command: %+v", decoded)
	}

	// Lista vazia não é o mesmo que lista ausente: o create_session com
	// zero palavras atravessa o codec intacto (e é rejeitado depois, na
	// hora de gerar cartelas, não aqui).
	empty := DecodeCommand(EncodeCommand(Command{Type: CmdCreateSession, Words: []string{}}))
	if empty == nil {
		t.Fatal("empty word list failed its own codec")
	}
	if empty.Words == nil || len(empty.Words) != 0 {
		t.Fatalf("empty word list: %+v", empty.Words)
	}
}

func TestLeaderboardEventNeverOmitsEntries(t *testing.T) {
	raw := EncodeEvent(LeaderboardEvent(nil))
	evt := DecodeEvent(raw)
	if evt == nil {
		t.Fatalf("empty leaderboard rejected: %s", raw)
	}
	if evt.Entries == nil || len(evt.Entries) != 0 {
		t.Fatalf("entries: %+v", evt.Entries)
	}
}
