package game

// EventType names an engine event.
type EventType string

const (
	EventUnitDeployed           EventType = "UNIT_DEPLOYED"
	EventUnitDied               EventType = "UNIT_DIED"
	EventUnitDamaged            EventType = "UNIT_DAMAGED"
	EventUnitHealed             EventType = "UNIT_HEALED"
	EventUnitPowerChanged       EventType = "UNIT_POWER_CHANGED"
	EventUnitConsumed           EventType = "UNIT_CONSUMED"
	EventUnitBounced            EventType = "UNIT_BOUNCED"
	EventUnitMoved              EventType = "UNIT_MOVED"
	EventShieldChanged          EventType = "SHIELD_CHANGED"
	EventCardDrawn              EventType = "CARD_DRAWN"
	EventCardPlayed             EventType = "CARD_PLAYED"
	EventCardDiscarded          EventType = "CARD_DISCARDED"
	EventCardCreated            EventType = "CARD_CREATED"
	EventSlotModifierChanged    EventType = "SLOT_MODIFIER_CHANGED"
	EventTurnChanged            EventType = "TURN_CHANGED"
	EventPriorityChanged        EventType = "PRIORITY_CHANGED"
	EventPlayerPassed           EventType = "PLAYER_PASSED"
	EventCooldownReduced        EventType = "COOLDOWN_REDUCED"
	EventAbilityTriggered       EventType = "ABILITY_TRIGGERED"
	EventAbilityActivated       EventType = "ABILITY_ACTIVATED"
	EventLeaderChargesChanged   EventType = "LEADER_CHARGES_CHANGED"
	EventLeaderAbilityActivated EventType = "LEADER_ABILITY_ACTIVATED"
	EventTerrainResolved        EventType = "TERRAIN_RESOLVED"
	EventConquerTriggered       EventType = "CONQUER_TRIGGERED"
	EventSkirmishStarted        EventType = "SKIRMISH_STARTED"
	EventSkirmishEnded          EventType = "SKIRMISH_ENDED"
	EventMatchEnded             EventType = "MATCH_ENDED"
	EventActionRequired         EventType = "ACTION_REQUIRED"
	EventInputRequired          EventType = "INPUT_REQUIRED"
	EventStateSnapshot          EventType = "STATE_SNAPSHOT"
)

// Death causes carried on UNIT_DIED.
const (
	CauseDeath    = "death"
	CauseConsumed = "consumed"
	CauseKill     = "effect_kill"
)

// Event is one observable state change. Only the fields relevant to the
// type are set. UnitID names the subject unit; SourceID names the other
// party when there is one (the consumer of a consumed unit, the source of
// damage, the unit whose ability triggered).
type Event struct {
	Type     EventType     `json:"type"`
	PlayerID PlayerID      `json:"playerId"`
	UnitID   string        `json:"unitId,omitempty"`
	CardID   string        `json:"cardId,omitempty"`
	SourceID string        `json:"sourceId,omitempty"`
	CardType CardType      `json:"cardType,omitempty"`
	Slot     *SlotCoord    `json:"slot,omitempty"`
	Amount   int           `json:"amount,omitempty"`
	Power    int           `json:"power,omitempty"`
	Value    int           `json:"value,omitempty"`
	Cause    string        `json:"cause,omitempty"`
	Skirmish int           `json:"skirmish,omitempty"`
	Turn     int           `json:"turn,omitempty"`
	Winner   *PlayerID     `json:"winner,omitempty"`
	Scores   []int         `json:"scores,omitempty"`
	Input    *InputRequest `json:"input,omitempty"`
	State    *GameState    `json:"state,omitempty"`
}

// TerrainID returns the terrain the event happened on, or -1.
func (ev Event) TerrainID() int {
	if ev.Slot == nil {
		return -1
	}
	return ev.Slot.Terrain
}

// Property exposes event fields to reaction value and condition paths.
func (ev Event) Property(name string) (any, bool) {
	switch name {
	case "type":
		return string(ev.Type), true
	case "playerId", "player":
		return int(ev.PlayerID), true
	case "unitId":
		return ev.UnitID, true
	case "cardId":
		return ev.CardID, true
	case "sourceId":
		return ev.SourceID, true
	case "cardType":
		return string(ev.CardType), true
	case "terrainId":
		return ev.TerrainID(), true
	case "amount":
		return ev.Amount, true
	case "power":
		return ev.Power, true
	case "value":
		return ev.Value, true
	case "cause":
		return ev.Cause, true
	case "skirmish":
		return ev.Skirmish, true
	case "turn":
		return ev.Turn, true
	}
	return nil, false
}

func winnerRef(p PlayerID) *PlayerID {
	return &p
}

func slotRef(s SlotCoord) *SlotCoord {
	return &s
}
