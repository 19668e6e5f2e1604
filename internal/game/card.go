package game

import "github.com/skirmishgg/skirmish-server-go/internal/catalog"

// Card is a card instance. Every instance lives in exactly one of a hand,
// a deck, a graveyard or a board slot.
type Card interface {
	ID() string
	DefinitionID() string
	Name() string
	Owner() PlayerID
	Type() CardType
	// NeedsTarget reports whether playing the card requires a target slot.
	NeedsTarget() bool
	// ValidTargets lists the slots the card may be played on, before rule
	// modifiers are applied.
	ValidTargets() []SlotCoord
	State() CardState
}

type baseCard struct {
	engine       *Engine
	id           string
	definitionID string
	name         string
	description  string
	owner        PlayerID
	rarity       catalog.Rarity
	color        string
}

func (c *baseCard) ID() string { return c.id }
func (c *baseCard) DefinitionID() string { return c.definitionID }
func (c *baseCard) Name() string { return c.name }
func (c *baseCard) Owner() PlayerID { return c.owner }

func (c *baseCard) baseState(kind CardType) CardState {
	return CardState{
		ID:           c.id,
		DefinitionID: c.definitionID,
		Name:         c.name,
		Description:  c.description,
		Type:         kind,
		Owner:        c.owner,
		Rarity:       string(c.rarity),
		Color:        c.color,
	}
}

// CardState is the plain-data view of a card. Unit fields are zero for
// actions.
type CardState struct {
	ID           string   `json:"id"`
	DefinitionID string   `json:"definitionId"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Type         CardType `json:"type"`
	Owner        PlayerID `json:"owner"`
	Rarity       string   `json:"rarity,omitempty"`
	Color        string   `json:"color,omitempty"`

	Power       int      `json:"power"`
	BasePower   int      `json:"basePower"`
	Damage      int      `json:"damage,omitempty"`
	Buffs       int      `json:"buffs,omitempty"`
	Shield      int      `json:"shield,omitempty"`
	TerrainID   *int     `json:"terrainId,omitempty"`
	Cooldown    int      `json:"cooldown,omitempty"`
	MaxCooldown int      `json:"maxCooldown,omitempty"`
	CanActivate bool     `json:"canActivate,omitempty"`
	Token       bool     `json:"token,omitempty"`
	Traits      []string `json:"traits,omitempty"`

	Target string `json:"target,omitempty"`
}
