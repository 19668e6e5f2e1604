package game

import "fmt"

// PlayerID identifies a seat. Valid seats are 0 and 1.
type PlayerID int

// NoPlayer marks the absence of a player: an unowned lane, a tied
// skirmish or a drawn match.
const NoPlayer PlayerID = -1

// Board and pacing constants.
const (
	NumPlayers       = 2
	NumTerrains      = 5
	InitialHandSize  = 8
	CardsPerSkirmish = 3
	SkirmishesToWin  = 2

	// DefaultMaxStackIterations bounds a single drain of the effect stack.
	DefaultMaxStackIterations = 1000
)

// Opponent returns the other seat.
func (p PlayerID) Opponent() PlayerID {
	return 1 - p
}

// Valid reports whether p is a real seat.
func (p PlayerID) Valid() bool {
	return p == 0 || p == 1
}

// SlotCoord addresses one slot: a terrain and the player side of it.
type SlotCoord struct {
	Terrain int      `json:"terrainId"`
	Player  PlayerID `json:"playerId"`
}

// Slot is shorthand for a SlotCoord literal.
func Slot(terrain int, player PlayerID) SlotCoord {
	return SlotCoord{Terrain: terrain, Player: player}
}

// Valid reports whether the coordinate is on the board.
func (s SlotCoord) Valid() bool {
	return s.Terrain >= 0 && s.Terrain < NumTerrains && s.Player.Valid()
}

// Opposing returns the slot across the lane.
func (s SlotCoord) Opposing() SlotCoord {
	return SlotCoord{Terrain: s.Terrain, Player: s.Player.Opponent()}
}

func (s SlotCoord) String() string {
	return fmt.Sprintf("t%d/p%d", s.Terrain, s.Player)
}

// CardType distinguishes units from one-shot actions.
type CardType string

const (
	CardTypeUnit   CardType = "unit"
	CardTypeAction CardType = "action"
)

// Phase is the engine's externally visible state.
type Phase string

const (
	PhaseSetup          Phase = "SETUP"
	PhaseAwaitingAction Phase = "AWAITING_ACTION"
	PhaseProcessing     Phase = "PROCESSING"
	PhaseAwaitingInput  Phase = "AWAITING_INPUT"
	PhaseMatchEnded     Phase = "MATCH_ENDED"
	PhaseAborted        Phase = "ABORTED"
)

// adjacentTerrains returns the terrains at distance one, clamped to the
// board, left first.
func adjacentTerrains(terrain int) []int {
	out := make([]int, 0, 2)
	if terrain-1 >= 0 {
		out = append(out, terrain-1)
	}
	if terrain+1 < NumTerrains {
		out = append(out, terrain+1)
	}
	return out
}
