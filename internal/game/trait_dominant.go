package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/game/rules"
)

// DominantTrait fires once per stay on the board, at the start of its
// owner's turn, while the owner is stronger than the unit in front of it.
type DominantTrait struct {
	BaseTrait
	cfg       catalog.DominantConfig
	triggered bool
	regs      registrations
}

// NewDominantTrait builds the trait from its catalog block.
func NewDominantTrait(cfg catalog.DominantConfig) *DominantTrait {
	return &DominantTrait{BaseTrait: BaseTrait{kind: "dominant"}, cfg: cfg}
}

// Triggered reports whether the effect fired since the last deploy.
func (t *DominantTrait) Triggered() bool { return t.triggered }

func (t *DominantTrait) OnDeploy() {
	t.triggered = false
	e := t.owner.engine
	id := e.triggers.Register(rules.Trigger[Event]{
		OwnerID:   t.owner.id,
		EventType: string(EventTurnChanged),
		Condition: func(ev Event) bool { return ev.PlayerID == t.owner.owner },
		Fire: func(Event) {
			e.Interrupt(NewTriggerEffect(t.owner, t.owner.definitionID+":dominant", t.dominant, t.apply))
		},
	})
	t.regs.triggers = append(t.regs.triggers, id)
}

func (t *DominantTrait) OnLeave() {
	t.triggered = false
	t.regs.release(t.owner.engine)
}

func (t *DominantTrait) Detach() {
	t.regs.release(t.owner.engine)
}

func (t *DominantTrait) dominant() bool {
	if !t.owner.OnBoard() || t.triggered {
		return false
	}
	front := 0
	if u := t.owner.engine.UnitInFront(t.owner.terrain, t.owner.owner); u != nil {
		front = u.Power()
	}
	return t.owner.Power() > front
}

func (t *DominantTrait) apply(e *Engine) error {
	t.triggered = true
	owner := t.owner
	switch t.cfg.Effect {
	case catalog.DominantDrawCards:
		e.players[owner.owner].Draw(t.cfg.Value)
		return nil
	case catalog.DominantCreateCards:
		return t.createCards(e)
	}
	for _, u := range t.targets(e) {
		switch t.cfg.Effect {
		case catalog.DominantAddPower:
			u.AddPower(t.cfg.Value)
		case catalog.DominantDealDamage:
			u.DealDamage(t.cfg.Value, owner.id)
		case catalog.DominantAddShield:
			u.AddShield(t.cfg.Value)
		}
	}
	return nil
}

func (t *DominantTrait) targets(e *Engine) []*UnitCard {
	owner := t.owner
	switch t.cfg.Target {
	case catalog.DominantTargetCloseAlly:
		return e.CloseUnits(owner.terrain, owner.owner, FilterAlly)
	case catalog.DominantTargetCloseEnemy:
		return e.CloseUnits(owner.terrain, owner.owner, FilterEnemy)
	case catalog.DominantTargetInFront:
		if u := e.UnitInFront(owner.terrain, owner.owner); u != nil {
			return []*UnitCard{u}
		}
		return nil
	default:
		return []*UnitCard{owner}
	}
}

// createCards parses "cardId:count" and adds the new cards to the hand.
func (t *DominantTrait) createCards(e *Engine) error {
	id, countText, found := strings.Cut(t.cfg.Cards, ":")
	count := 1
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil {
			return fmt.Errorf("invalid card count in %q: %w", t.cfg.Cards, err)
		}
		count = n
	}
	player := e.players[t.owner.owner]
	for i := 0; i < count; i++ {
		c, err := e.CreateCard(strings.TrimSpace(id), player.id)
		if err != nil {
			return err
		}
		player.AddToHand(c)
		e.emit(Event{Type: EventCardCreated, PlayerID: player.id, CardID: c.ID(), SourceID: t.owner.id})
	}
	return nil
}
