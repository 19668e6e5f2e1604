package game

import (
	"fmt"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"go.uber.org/zap"
)

// Leader is a seat's once-per-charge power. It lives outside the board
// and is never targeted.
type Leader struct {
	engine    *Engine
	owner     PlayerID
	def       catalog.LeaderDefinition
	charges   int
	exhausted bool
}

// LeaderState is the plain-data view of a leader.
type LeaderState struct {
	LeaderID       string `json:"leaderId,omitempty"`
	Name           string `json:"name,omitempty"`
	CurrentCharges int    `json:"currentCharges"`
	MaxCharges     int    `json:"maxCharges"`
	IsExhausted    bool   `json:"isExhausted"`
}

func newLeader(e *Engine, owner PlayerID, def catalog.LeaderDefinition) *Leader {
	return &Leader{
		engine:    e,
		owner:     owner,
		def:       def,
		charges:   def.MaxCharges,
		exhausted: def.MaxCharges <= 0 || def.Ability == nil,
	}
}

func (l *Leader) ID() string { return l.def.ID }
func (l *Leader) Owner() PlayerID { return l.owner }
func (l *Leader) Charges() int { return l.charges }

// CanActivate reports whether a charge can be spent now. Abilities that
// pick a unit also need at least one candidate.
func (l *Leader) CanActivate() bool {
	if l.exhausted || l.charges <= 0 || l.def.Ability == nil {
		return false
	}
	switch l.def.Ability.Kind {
	case catalog.LeaderDealDamage, catalog.LeaderAddPower:
		return len(l.candidates()) > 0
	}
	return true
}

func (l *Leader) activate() error {
	if !l.CanActivate() {
		return fmt.Errorf("leader %s cannot activate", l.def.ID)
	}
	e := l.engine
	l.charges--
	e.emit(Event{Type: EventLeaderChargesChanged, PlayerID: l.owner, CardID: l.def.ID, Value: l.charges})
	e.emit(Event{Type: EventLeaderAbilityActivated, PlayerID: l.owner, CardID: l.def.ID, Value: l.charges})
	if l.charges == 0 {
		l.exhausted = true
	}
	e.logger.Debug("leader activated",
		zap.String("leader", l.def.ID),
		zap.Int("player", int(l.owner)),
		zap.Int("charges", l.charges),
	)

	ab := l.def.Ability
	switch ab.Kind {
	case catalog.LeaderDrawCards:
		e.players[l.owner].Draw(ab.Value)
		return nil
	case catalog.LeaderDealDamage, catalog.LeaderAddPower:
		return l.chooseUnit(ab)
	default:
		return fmt.Errorf("leader %s: unknown ability %q", l.def.ID, ab.Kind)
	}
}

// candidates lists the units the ability may pick. The default side is
// enemies for damage and allies for power.
func (l *Leader) candidates() []*UnitCard {
	ab := l.def.Ability
	target := ab.Target
	if target == "" {
		target = catalog.TargetEnemyUnit
		if ab.Kind == catalog.LeaderAddPower {
			target = catalog.TargetAllyUnit
		}
	}
	var out []*UnitCard
	for _, u := range l.engine.boardUnits() {
		switch target {
		case catalog.TargetAllyUnit:
			if u.owner != l.owner {
				continue
			}
		case catalog.TargetEnemyUnit:
			if u.owner == l.owner {
				continue
			}
		}
		if s, ok := u.SlotCoord(); ok && l.engine.IsTargetingAllowed(l, s) {
			out = append(out, u)
		}
	}
	return out
}

func (l *Leader) chooseUnit(ab *catalog.LeaderAbility) error {
	e := l.engine
	units := l.candidates()
	if len(units) == 0 {
		return nil
	}
	req := InputRequest{
		PlayerID: l.owner,
		Kind:     InputKindTarget,
		Prompt:   fmt.Sprintf("%s: choose a unit", l.def.Name),
		Min:      1,
		Max:      1,
		SourceID: l.def.ID,
	}
	byID := make(map[string]*UnitCard, len(units))
	for _, u := range units {
		t := unitTarget(u)
		req.Candidates = append(req.Candidates, InputOption{ID: t.ID(), Label: t.label(), UnitID: u.id, Slot: u.slotRef()})
		byID[t.ID()] = u
	}
	return e.RequestInput(req, func(resp InputResponse) error {
		u := byID[resp.Selected[0]]
		if u == nil || !u.OnBoard() {
			return nil
		}
		if ab.Kind == catalog.LeaderDealDamage {
			u.DealDamage(ab.Value, l.def.ID)
		} else {
			u.AddPower(ab.Value)
		}
		return nil
	})
}

func (l *Leader) State() LeaderState {
	return LeaderState{
		LeaderID:       l.def.ID,
		Name:           l.def.Name,
		CurrentCharges: l.charges,
		MaxCharges:     l.def.MaxCharges,
		IsExhausted:    l.exhausted,
	}
}
