package game

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// checksumLength is the number of hex characters kept from the digest.
const checksumLength = 16

// StateHasher computes compact checksums of the engine state for desync
// detection. Two engines that processed the same actions from the same
// seed produce the same checksum.
type StateHasher struct{}

// NewStateHasher returns a hasher.
func NewStateHasher() *StateHasher {
	return &StateHasher{}
}

type hashedSlot struct {
	UnitID    string `json:"unitId"`
	UnitPower *int   `json:"unitPower"`
	Modifier  int    `json:"modifier"`
}

type hashedTerrain struct {
	Winner PlayerID               `json:"winner"`
	Slots  [NumPlayers]hashedSlot `json:"slots"`
}

type hashedPlayer struct {
	ID            PlayerID `json:"id"`
	SP            int      `json:"sp"`
	SkirmishesWon int      `json:"skirmishesWon"`
	Done          bool     `json:"isDone"`
	HandIDs       []string `json:"handIds"`
	DeckIDs       []string `json:"deckIds"`
	GraveyardIDs  []string `json:"graveyardIds"`
	Charges       int      `json:"charges"`
}

// hashedState is the canonical form. Field order is fixed by the struct,
// hand and graveyard ids are sorted, the deck keeps its order.
type hashedState struct {
	CurrentSkirmish int                        `json:"currentSkirmish"`
	CurrentTurn     int                        `json:"currentTurn"`
	CurrentPlayer   PlayerID                   `json:"currentPlayer"`
	TieSkirmishes   int                        `json:"tieSkirmishes"`
	MatchWinner     PlayerID                   `json:"matchWinner"`
	RNGState        uint32                     `json:"rngState"`
	Players         [NumPlayers]hashedPlayer   `json:"players"`
	Terrains        [NumTerrains]hashedTerrain `json:"terrains"`
}

func (h *StateHasher) canonicalize(e *Engine) hashedState {
	st := hashedState{
		CurrentSkirmish: e.game.CurrentSkirmish(),
		CurrentTurn:     e.game.CurrentTurn(),
		CurrentPlayer:   e.game.CurrentPlayer(),
		TieSkirmishes:   e.game.TieSkirmishes(),
		MatchWinner:     e.game.MatchWinner(),
		RNGState:        e.rng.State(),
	}
	for p := PlayerID(0); p < NumPlayers; p++ {
		player := e.players[p]
		hp := hashedPlayer{
			ID:            p,
			SP:            player.sp,
			SkirmishesWon: player.skirmishesWon,
			Done:          player.done,
			HandIDs:       sortedIDs(player.hand),
			DeckIDs:       cardIDs(player.deck),
			GraveyardIDs:  sortedIDs(player.graveyard),
		}
		if player.leader != nil {
			hp.Charges = player.leader.charges
		}
		st.Players[p] = hp
	}
	for i, t := range e.terrains {
		ht := hashedTerrain{Winner: t.Winner()}
		for p := PlayerID(0); p < NumPlayers; p++ {
			ht.Slots[p].Modifier = t.Modifier(p)
			if u := t.Unit(p); u != nil {
				power := u.Power()
				ht.Slots[p].UnitID = u.ID()
				ht.Slots[p].UnitPower = &power
			}
		}
		st.Terrains[i] = ht
	}
	return st
}

// Hash returns the first 16 hex characters of the BLAKE2b-256 digest of the
// canonical state.
func (h *StateHasher) Hash(e *Engine) (string, error) {
	data, err := json.Marshal(h.canonicalize(e))
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])[:checksumLength], nil
}

// Checksum hashes the current state. Encoding the canonical form cannot
// fail, so an error is logged and reported as an empty checksum.
func (e *Engine) Checksum() string {
	sum, err := e.hasher.Hash(e)
	if err != nil {
		e.logger.Error("failed to hash state", zap.Error(err))
		return ""
	}
	return sum
}

func cardIDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID()
	}
	return ids
}

func sortedIDs(cards []Card) []string {
	ids := cardIDs(cards)
	sort.Strings(ids)
	return ids
}
