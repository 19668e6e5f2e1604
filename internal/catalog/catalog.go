package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/skirmishgg/skirmish-server-go/internal/game/react"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownCard is returned for a card id with no definition.
	ErrUnknownCard = errors.New("unknown card")
	// ErrUnknownTrait is returned for a trait type the engine does not implement.
	ErrUnknownTrait = errors.New("unknown trait")
	// ErrUnknownLeader is returned for a leader id with no definition.
	ErrUnknownLeader = errors.New("unknown leader")
	// ErrUnknownDeck is returned for a deck id with no definition.
	ErrUnknownDeck = errors.New("unknown deck")
)

//go:embed cards.yaml
var defaultCatalog []byte

type document struct {
	Units   []UnitDefinition   `yaml:"units"`
	Actions []ActionDefinition `yaml:"actions"`
	Leaders []LeaderDefinition `yaml:"leaders"`
	Decks   []DeckDefinition   `yaml:"decks"`
}

// Catalog indexes definitions by id. It is read-only after loading.
type Catalog struct {
	units   map[string]UnitDefinition
	actions map[string]ActionDefinition
	leaders map[string]LeaderDefinition
	decks   map[string]DeckDefinition
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Open loads the catalog at path, or the embedded one when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(doc.Units, doc.Actions, doc.Leaders, doc.Decks)
}

// New builds a catalog from definitions and validates cross references.
func New(units []UnitDefinition, actions []ActionDefinition, leaders []LeaderDefinition, decks []DeckDefinition) (*Catalog, error) {
	c := &Catalog{
		units:   make(map[string]UnitDefinition, len(units)),
		actions: make(map[string]ActionDefinition, len(actions)),
		leaders: make(map[string]LeaderDefinition, len(leaders)),
		decks:   make(map[string]DeckDefinition, len(decks)),
	}
	for _, u := range units {
		if err := c.checkFreeID(u.ID); err != nil {
			return nil, err
		}
		c.units[u.ID] = u
	}
	for _, a := range actions {
		if err := c.checkFreeID(a.ID); err != nil {
			return nil, err
		}
		c.actions[a.ID] = a
	}
	for _, l := range leaders {
		if l.ID == "" {
			return nil, errors.New("leader id is required")
		}
		if _, dup := c.leaders[l.ID]; dup {
			return nil, fmt.Errorf("duplicate leader id %q", l.ID)
		}
		c.leaders[l.ID] = l
	}
	for _, d := range decks {
		if d.ID == "" {
			return nil, errors.New("deck id is required")
		}
		if _, dup := c.decks[d.ID]; dup {
			return nil, fmt.Errorf("duplicate deck id %q", d.ID)
		}
		c.decks[d.ID] = d
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) checkFreeID(id string) error {
	if id == "" {
		return errors.New("card id is required")
	}
	if _, ok := c.units[id]; ok {
		return fmt.Errorf("duplicate card id %q", id)
	}
	if _, ok := c.actions[id]; ok {
		return fmt.Errorf("duplicate card id %q", id)
	}
	return nil
}

func (c *Catalog) validate() error {
	for _, id := range c.UnitIDs() {
		u := c.units[id]
		if u.Power < 0 {
			return fmt.Errorf("card %q: power must not be negative", id)
		}
		for i, trait := range u.Traits {
			if err := c.validateTrait(trait); err != nil {
				return fmt.Errorf("card %q trait %d: %w", id, i, err)
			}
		}
	}
	for _, id := range c.ActionIDs() {
		a := c.actions[id]
		if err := validateAction(a); err != nil {
			return fmt.Errorf("card %q: %w", id, err)
		}
	}
	for _, l := range c.leaders {
		if l.MaxCharges < 0 {
			return fmt.Errorf("leader %q: max charges must not be negative", l.ID)
		}
		if l.Ability != nil {
			switch l.Ability.Kind {
			case LeaderDrawCards, LeaderDealDamage, LeaderAddPower:
			default:
				return fmt.Errorf("leader %q: unknown ability %q", l.ID, l.Ability.Kind)
			}
		}
	}
	for _, d := range c.decks {
		for _, entry := range d.Cards {
			if !c.HasCard(entry.Card) {
				return fmt.Errorf("deck %q: %w: %s", d.ID, ErrUnknownCard, entry.Card)
			}
			if entry.Count <= 0 {
				return fmt.Errorf("deck %q: card %q count must be positive", d.ID, entry.Card)
			}
		}
		if d.Leader != "" {
			if _, ok := c.leaders[d.Leader]; !ok {
				return fmt.Errorf("deck %q: %w: %s", d.ID, ErrUnknownLeader, d.Leader)
			}
		}
	}
	return nil
}

func (c *Catalog) validateTrait(t TraitDefinition) error {
	switch t.Type {
	case TraitReaction:
		if t.Reaction == nil {
			return errors.New("reaction trait requires a reaction block")
		}
		if err := t.Reaction.Validate(); err != nil {
			return err
		}
		return c.validateTokens(t.Reaction.Effects)
	case TraitRuleModifier:
		if t.Rule == nil {
			return errors.New("ruleModifier trait requires a rule block")
		}
		switch t.Rule.Kind {
		case RuleBlockEnemyDeployInFront, RuleLowestPowerWins, RuleUntargetableByEnemy, RuleCannotBeConsumed:
		default:
			return fmt.Errorf("unknown rule modifier %q", t.Rule.Kind)
		}
	case TraitShield:
		if t.Shield <= 0 {
			return errors.New("shield trait requires a positive shield")
		}
	case TraitDeployCondition:
		if t.Deploy == nil {
			return errors.New("deployCondition trait requires a deploy block")
		}
		for _, terrain := range t.Deploy.Terrains {
			if terrain < 0 || terrain > 4 {
				return fmt.Errorf("terrain %d out of range", terrain)
			}
		}
	case TraitDominant:
		if t.Dominant == nil {
			return errors.New("dominant trait requires a dominant block")
		}
		switch t.Dominant.Effect {
		case DominantAddPower, DominantDealDamage, DominantAddShield, DominantDrawCards:
		case DominantCreateCards:
			if t.Dominant.Cards == "" {
				return errors.New("CREATE_CARDS requires cards")
			}
		default:
			return fmt.Errorf("unknown dominant effect %q", t.Dominant.Effect)
		}
	case TraitPassive:
		if t.Passive == nil {
			return errors.New("passive trait requires a passive block")
		}
	case TraitScript:
		if t.Script == "" {
			return errors.New("script trait requires a script")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTrait, t.Type)
	}
	return nil
}

func (c *Catalog) validateTokens(effects []react.EffectDefinition) error {
	for _, def := range effects {
		if def.Action.Type == react.ActionDeployUnit && def.Action.Value != nil && def.Action.Value.Type == react.ValueStatic {
			id := fmt.Sprint(def.Action.Value.Value)
			if _, ok := c.units[id]; !ok {
				return fmt.Errorf("%w: token %s", ErrUnknownCard, id)
			}
		}
		if len(def.Action.Effects) > 0 {
			if err := c.validateTokens(def.Action.Effects); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateAction(a ActionDefinition) error {
	switch a.Target {
	case TargetNone, TargetAllyUnit, TargetEnemyUnit, TargetAnyUnit, TargetAllySlot, TargetAnySlot:
	default:
		return fmt.Errorf("unknown action target %q", a.Target)
	}
	switch a.Ability {
	case AbilityDealDamage, AbilityAddPower, AbilityBounce, AbilityKill, AbilityFight, AbilitySeed, AbilityMove, AbilityDraw:
	default:
		return fmt.Errorf("unknown action ability %q", a.Ability)
	}
	if a.Target == TargetNone && a.Ability != AbilityDraw {
		return fmt.Errorf("ability %q needs a target", a.Ability)
	}
	return nil
}

// Unit returns a unit definition.
func (c *Catalog) Unit(id string) (UnitDefinition, error) {
	u, ok := c.units[id]
	if !ok {
		return UnitDefinition{}, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	return u, nil
}

// Action returns an action definition.
func (c *Catalog) Action(id string) (ActionDefinition, error) {
	a, ok := c.actions[id]
	if !ok {
		return ActionDefinition{}, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	return a, nil
}

// Leader returns a leader definition.
func (c *Catalog) Leader(id string) (LeaderDefinition, error) {
	l, ok := c.leaders[id]
	if !ok {
		return LeaderDefinition{}, fmt.Errorf("%w: %s", ErrUnknownLeader, id)
	}
	return l, nil
}

// Deck returns a deck definition.
func (c *Catalog) Deck(id string) (DeckDefinition, error) {
	d, ok := c.decks[id]
	if !ok {
		return DeckDefinition{}, fmt.Errorf("%w: %s", ErrUnknownDeck, id)
	}
	return d, nil
}

// HasCard reports whether id names a unit or action.
func (c *Catalog) HasCard(id string) bool {
	if _, ok := c.units[id]; ok {
		return true
	}
	_, ok := c.actions[id]
	return ok
}

// IsUnit reports whether id names a unit.
func (c *Catalog) IsUnit(id string) bool {
	_, ok := c.units[id]
	return ok
}

// UnitIDs returns all unit ids, sorted.
func (c *Catalog) UnitIDs() []string {
	return sortedKeys(c.units)
}

// ActionIDs returns all action ids, sorted.
func (c *Catalog) ActionIDs() []string {
	return sortedKeys(c.actions)
}

// LeaderIDs returns all leader ids, sorted.
func (c *Catalog) LeaderIDs() []string {
	return sortedKeys(c.leaders)
}

// DeckIDs returns all deck ids, sorted.
func (c *Catalog) DeckIDs() []string {
	return sortedKeys(c.decks)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
