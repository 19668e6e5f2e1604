package game

// GameState is a deep, plain-data copy of a match. It holds no references
// into the engine and is safe to keep, marshal or compare.
type GameState struct {
	Players         [NumPlayers]PlayerState   `json:"players"`
	Terrains        [NumTerrains]TerrainState `json:"terrains"`
	Leaders         [NumPlayers]LeaderState   `json:"leaders"`
	CurrentSkirmish int                       `json:"currentSkirmish"`
	CurrentTurn     int                       `json:"currentTurn"`
	CurrentPlayer   PlayerID                  `json:"currentPlayer"`
	TieSkirmishes   int                       `json:"tieSkirmishes"`
	MatchWinner     *PlayerID                 `json:"matchWinner,omitempty"`
	MatchEnded      bool                      `json:"matchEnded"`
	SkirmishHistory []SkirmishRecord          `json:"skirmishHistory"`
	Phase           Phase                     `json:"phase"`
}

// PlayerState is the plain-data view of a seat.
type PlayerState struct {
	ID                    PlayerID    `json:"id"`
	Hand                  []CardState `json:"hand"`
	HandSize              int         `json:"handSize"`
	DeckSize              int         `json:"deckSize"`
	Graveyard             []CardState `json:"graveyard"`
	SP                    int         `json:"sp"`
	SkirmishesWon         int         `json:"skirmishesWon"`
	IsDone                bool        `json:"isDone"`
	HasActedThisTurn      bool        `json:"hasActedThisTurn"`
	HasPlayedCardThisTurn bool        `json:"hasPlayedCardThisTurn"`
}

// SlotState is one side of a terrain.
type SlotState struct {
	Unit     *CardState `json:"unit,omitempty"`
	Modifier int        `json:"modifier"`
}

// TerrainState is the plain-data view of a lane.
type TerrainState struct {
	ID     int                   `json:"id"`
	Slots  [NumPlayers]SlotState `json:"slots"`
	Winner PlayerID              `json:"winner"`
}

// State returns a snapshot of the match.
func (e *Engine) State() GameState {
	st := GameState{
		CurrentSkirmish: e.game.CurrentSkirmish(),
		CurrentTurn:     e.game.CurrentTurn(),
		CurrentPlayer:   e.game.CurrentPlayer(),
		TieSkirmishes:   e.game.TieSkirmishes(),
		MatchEnded:      e.game.MatchEnded(),
		SkirmishHistory: e.game.History(),
		Phase:           e.phase,
	}
	if e.game.MatchEnded() {
		st.MatchWinner = winnerRef(e.game.MatchWinner())
	}
	for p := PlayerID(0); p < NumPlayers; p++ {
		st.Players[p] = e.players[p].State()
		if l := e.players[p].leader; l != nil {
			st.Leaders[p] = l.State()
		}
	}
	for i, t := range e.terrains {
		ts := TerrainState{ID: i, Winner: t.Winner()}
		for p := PlayerID(0); p < NumPlayers; p++ {
			ts.Slots[p].Modifier = t.Modifier(p)
			if u := t.Unit(p); u != nil {
				cs := u.State()
				ts.Slots[p].Unit = &cs
			}
		}
		st.Terrains[i] = ts
	}
	return st
}
