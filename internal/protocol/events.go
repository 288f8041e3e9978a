package protocol

// Construtores de eventos, para os handlers não montarem a união na mão.
// Todos devolvem o evento pronto para EncodeEvent.

func SessionCreatedEvent(sessionID string) Event {
	return Event{Type: EvtSessionCreated, SessionID: sessionID}
}

func JoinedEvent(playerID, screenName, gameStatus string, round int) Event {
	return Event{
		Type:       EvtJoined,
		PlayerID:   playerID,
		ScreenName: screenName,
		GameStatus: gameStatus,
		Round:      Int(round),
	}
}

func CardDealtEvent(roundNumber int, grid [][]string, marked [][]bool) Event {
	return Event{
		Type:        EvtCardDealt,
		RoundNumber: Int(roundNumber),
		Grid:        grid,
		Marked:      marked,
	}
}

func MarkResultEvent(success bool, word string, bingo, roundOver bool) Event {
	return Event{
		Type:      EvtMarkResult,
		Success:   Bool(success),
		Word:      word,
		Bingo:     Bool(bingo),
		RoundOver: Bool(roundOver),
	}
}

func PlayerWonEvent(winnerName string, pattern *Pattern, roundNumber int) Event {
	return Event{
		Type:        EvtPlayerWon,
		WinnerName:  winnerName,
		Pattern:     pattern,
		RoundNumber: Int(roundNumber),
	}
}

func GameStatusEvent(status string, round int) Event {
	return Event{Type: EvtGameStatus, Status: status, Round: Int(round)}
}

func PlayerJoinedEvent(playerID, screenName string, playerCount int) Event {
	return Event{
		Type:        EvtPlayerJoined,
		PlayerID:    playerID,
		ScreenName:  screenName,
		PlayerCount: Int(playerCount),
	}
}

func PlayerLeftEvent(playerID, screenName string, playerCount int) Event {
	return Event{
		Type:        EvtPlayerLeft,
		PlayerID:    playerID,
		ScreenName:  screenName,
		PlayerCount: Int(playerCount),
	}
}

func LeaderboardEvent(entries []LeaderboardEntry) Event {
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return Event{Type: EvtLeaderboard, Entries: entries}
}

func ErrorEvent(message string) Event {
	return Event{Type: EvtError, Message: message}
}
