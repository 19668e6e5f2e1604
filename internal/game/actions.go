package game

import "fmt"

// ActionType names a player action.
type ActionType string

const (
	ActionPlayCard       ActionType = "PLAY_CARD"
	ActionActivate       ActionType = "ACTIVATE"
	ActionPass           ActionType = "PASS"
	ActionActivateLeader ActionType = "ACTIVATE_LEADER"
	// ActionInput only appears in action records; it is never submitted
	// through SubmitAction.
	ActionInput ActionType = "INPUT"
)

// Action is a decision submitted by a controller.
type Action struct {
	Type       ActionType `json:"type"`
	PlayerID   PlayerID   `json:"playerId"`
	CardID     string     `json:"cardId,omitempty"`
	TargetSlot *SlotCoord `json:"targetSlot,omitempty"`
	UnitID     string     `json:"unitId,omitempty"`
}

// PlayCard builds a PLAY_CARD action. target may be nil for untargeted
// actions.
func PlayCard(player PlayerID, cardID string, target *SlotCoord) Action {
	return Action{Type: ActionPlayCard, PlayerID: player, CardID: cardID, TargetSlot: target}
}

// PlayCardAt builds a PLAY_CARD action aimed at a slot.
func PlayCardAt(player PlayerID, cardID string, target SlotCoord) Action {
	return PlayCard(player, cardID, &target)
}

// Activate builds an ACTIVATE action.
func Activate(player PlayerID, unitID string) Action {
	return Action{Type: ActionActivate, PlayerID: player, UnitID: unitID}
}

// Pass builds a PASS action.
func Pass(player PlayerID) Action {
	return Action{Type: ActionPass, PlayerID: player}
}

// ActivateLeader builds an ACTIVATE_LEADER action.
func ActivateLeader(player PlayerID) Action {
	return Action{Type: ActionActivateLeader, PlayerID: player}
}

// Equal compares two actions field by field, including the target slot.
func (a Action) Equal(b Action) bool {
	if a.Type != b.Type || a.PlayerID != b.PlayerID || a.CardID != b.CardID || a.UnitID != b.UnitID {
		return false
	}
	if (a.TargetSlot == nil) != (b.TargetSlot == nil) {
		return false
	}
	return a.TargetSlot == nil || *a.TargetSlot == *b.TargetSlot
}

func (a Action) String() string {
	switch a.Type {
	case ActionPlayCard:
		if a.TargetSlot != nil {
			return fmt.Sprintf("%s p%d %s -> %s", a.Type, a.PlayerID, a.CardID, a.TargetSlot)
		}
		return fmt.Sprintf("%s p%d %s", a.Type, a.PlayerID, a.CardID)
	case ActionActivate:
		return fmt.Sprintf("%s p%d %s", a.Type, a.PlayerID, a.UnitID)
	default:
		return fmt.Sprintf("%s p%d", a.Type, a.PlayerID)
	}
}

// ActionRecord is what action subscribers receive: every accepted action,
// and every accepted input with the state checksum taken before it applied.
type ActionRecord struct {
	Action
	Input     *InputResponse `json:"input,omitempty"`
	Checksum  string         `json:"checksum,omitempty"`
	Reasoning string         `json:"reasoning,omitempty"`
}
