package game

import (
	"fmt"

	"go.uber.org/zap"
)

// ActivatedAbility is the optional activated power of a unit. It is set
// once when the unit is built and never reassigned.
type ActivatedAbility struct {
	Description string
	Cooldown    int
	run         func(u *UnitCard) error
}

// NewActivatedAbility builds an ability that runs fn when activated.
func NewActivatedAbility(description string, cooldown int, fn func(u *UnitCard) error) *ActivatedAbility {
	return &ActivatedAbility{Description: description, Cooldown: cooldown, run: fn}
}

// UnitCard is a unit instance.
type UnitCard struct {
	baseCard

	unitType string
	token    bool

	basePower int
	damage    int
	buffs     int
	shield    int

	// terrain is -1 while off the board. lastTerrain keeps the most recent
	// lane so that death and consumption effects can still anchor to it.
	terrain     int
	lastTerrain int
	// lastPower is the effective power the unit had when it last died.
	lastPower int

	traits   []Trait
	ability  *ActivatedAbility
	cooldown int

	inPowerCalc bool
}

func (u *UnitCard) Type() CardType { return CardTypeUnit }
func (u *UnitCard) NeedsTarget() bool { return true }

// ValidTargets returns the unit owner's slot on every terrain.
func (u *UnitCard) ValidTargets() []SlotCoord {
	out := make([]SlotCoord, 0, NumTerrains)
	for t := 0; t < NumTerrains; t++ {
		out = append(out, Slot(t, u.owner))
	}
	return out
}

func (u *UnitCard) BasePower() int { return u.basePower }
func (u *UnitCard) Damage() int { return u.damage }
func (u *UnitCard) Buffs() int { return u.buffs }
func (u *UnitCard) Cooldown() int { return u.cooldown }
func (u *UnitCard) Token() bool { return u.token }
func (u *UnitCard) UnitType() string { return u.unitType }
func (u *UnitCard) Ability() *ActivatedAbility { return u.ability }
func (u *UnitCard) OnBoard() bool { return u.terrain >= 0 }
func (u *UnitCard) TerrainID() int { return u.terrain }

// Traits returns the attached traits in attachment order.
func (u *UnitCard) Traits() []Trait {
	return append([]Trait(nil), u.traits...)
}

// Shield returns the damage the unit can still absorb, including trait
// shields.
func (u *UnitCard) Shield() int {
	total := u.shield
	for _, t := range u.traits {
		if holder, ok := t.(shieldHolder); ok {
			total += holder.ShieldRemaining()
		}
	}
	return total
}

// SlotCoord returns the unit's slot when it is on the board.
func (u *UnitCard) SlotCoord() (SlotCoord, bool) {
	if !u.OnBoard() {
		return SlotCoord{}, false
	}
	return Slot(u.terrain, u.owner), true
}

// position is the terrain used to anchor relative targeting: the current
// terrain, or the last one for a unit that just left the board.
func (u *UnitCard) position() int {
	if u.OnBoard() {
		return u.terrain
	}
	return u.lastTerrain
}

func (u *UnitCard) slotRef() *SlotCoord {
	if !u.OnBoard() {
		return nil
	}
	return slotRef(Slot(u.terrain, u.owner))
}

// Power is the effective power: base plus buffs minus damage plus the slot
// modifier plus trait adjustments, floored at zero.
func (u *UnitCard) Power() int {
	raw := u.basePower + u.buffs - u.damage
	if u.OnBoard() {
		raw += u.engine.terrains[u.terrain].Modifier(u.owner)
	}
	// Traits may inspect the board, including this unit; guard re-entry.
	if !u.inPowerCalc {
		u.inPowerCalc = true
		for _, t := range u.traits {
			raw = t.ModifyPower(raw)
		}
		u.inPowerCalc = false
	}
	if raw < 0 {
		return 0
	}
	return raw
}

// CanActivate reports whether the unit has an activated ability that is
// off cooldown while on the board.
func (u *UnitCard) CanActivate() bool {
	return u.OnBoard() && u.ability != nil && u.cooldown == 0
}

// Activate puts the ability on cooldown and runs it.
func (u *UnitCard) Activate() error {
	if !u.CanActivate() {
		return fmt.Errorf("unit %s cannot activate", u.id)
	}
	u.cooldown = u.ability.Cooldown
	u.engine.emit(Event{
		Type:     EventAbilityActivated,
		PlayerID: u.owner,
		UnitID:   u.id,
		Slot:     u.slotRef(),
		Value:    u.cooldown,
	})
	return u.ability.run(u)
}

func (u *UnitCard) reduceCooldown() {
	if u.cooldown <= 0 {
		return
	}
	u.cooldown--
	u.engine.emit(Event{
		Type:     EventCooldownReduced,
		PlayerID: u.owner,
		UnitID:   u.id,
		Slot:     u.slotRef(),
		Value:    u.cooldown,
	})
}

// AddPower changes the unit's buffs by n.
func (u *UnitCard) AddPower(n int) {
	if n == 0 {
		return
	}
	before := u.Power()
	u.buffs += n
	u.emitPowerChanged(before, n)
}

// SetPower adjusts buffs so that the effective power becomes target.
func (u *UnitCard) SetPower(target int) {
	u.AddPower(target - u.Power())
}

// ResetBuffs clears every buff and debuff.
func (u *UnitCard) ResetBuffs() {
	if u.buffs == 0 {
		return
	}
	before := u.Power()
	delta := -u.buffs
	u.buffs = 0
	u.emitPowerChanged(before, delta)
}

func (u *UnitCard) emitPowerChanged(before, amount int) {
	u.engine.emit(Event{
		Type:     EventUnitPowerChanged,
		PlayerID: u.owner,
		UnitID:   u.id,
		Slot:     u.slotRef(),
		Amount:   amount,
		Value:    before,
		Power:    u.Power(),
	})
}

// DealDamage applies damage after traits and shields had their say. It
// returns the damage actually taken.
func (u *UnitCard) DealDamage(amount int, sourceID string) int {
	if amount <= 0 || !u.OnBoard() {
		return 0
	}
	for _, t := range u.traits {
		amount = t.InterceptDamage(amount)
		if amount <= 0 {
			return 0
		}
	}
	if u.shield > 0 {
		absorbed := min(u.shield, amount)
		u.shield -= absorbed
		amount -= absorbed
		u.emitShieldChanged(-absorbed)
		if amount == 0 {
			return 0
		}
	}
	u.damage += amount
	u.engine.emit(Event{
		Type:     EventUnitDamaged,
		PlayerID: u.owner,
		UnitID:   u.id,
		SourceID: sourceID,
		Slot:     u.slotRef(),
		Amount:   amount,
		Power:    u.Power(),
	})
	return amount
}

// Heal removes up to n damage.
func (u *UnitCard) Heal(n int) int {
	healed := min(n, u.damage)
	if healed <= 0 {
		return 0
	}
	u.damage -= healed
	u.engine.emit(Event{
		Type:     EventUnitHealed,
		PlayerID: u.owner,
		UnitID:   u.id,
		Slot:     u.slotRef(),
		Amount:   healed,
		Power:    u.Power(),
	})
	return healed
}

// AddShield grants n points of shield.
func (u *UnitCard) AddShield(n int) {
	if n <= 0 {
		return
	}
	u.shield += n
	u.emitShieldChanged(n)
}

func (u *UnitCard) emitShieldChanged(amount int) {
	u.engine.emit(Event{
		Type:     EventShieldChanged,
		PlayerID: u.owner,
		UnitID:   u.id,
		Slot:     u.slotRef(),
		Amount:   amount,
		Value:    u.Shield(),
	})
}

// Kill destroys the unit if it is on the board.
func (u *UnitCard) Kill(cause string) {
	if u.OnBoard() {
		u.die(cause)
	}
}

// Deploy places the unit on its owner's slot of terrain. An occupant of
// that slot is consumed first; the consumption reactions are scheduled as
// an interrupt so they resolve before the unit's own deploy triggers.
func (u *UnitCard) Deploy(terrain int) error {
	if terrain < 0 || terrain >= NumTerrains {
		return fmt.Errorf("terrain %d out of range", terrain)
	}
	e := u.engine
	coord := Slot(terrain, u.owner)
	t := e.terrains[terrain]

	victim := t.Unit(u.owner)
	if victim != nil {
		power := victim.Power()
		victim.die(CauseConsumed)
		e.emit(Event{
			Type:     EventUnitConsumed,
			PlayerID: u.owner,
			UnitID:   victim.id,
			SourceID: u.id,
			Slot:     slotRef(coord),
			Power:    power,
		})
	}

	u.resetState()
	u.terrain = terrain
	u.lastTerrain = terrain
	t.place(u.owner, u)
	e.emit(Event{
		Type:     EventUnitDeployed,
		PlayerID: u.owner,
		UnitID:   u.id,
		CardID:   u.definitionID,
		Slot:     slotRef(coord),
		Power:    u.Power(),
	})
	e.logger.Debug("unit deployed",
		zap.String("unit_id", u.id),
		zap.Int("terrain", terrain),
		zap.Int("player", int(u.owner)),
	)

	for _, tr := range u.traits {
		tr.OnDeploy()
	}
	if victim != nil {
		e.Interrupt(&ResolveConsumptionEffect{Victim: victim, Consumer: u})
	}
	return nil
}

// MoveTo moves the unit to its owner's slot on another terrain. It fails
// when the destination is occupied.
func (u *UnitCard) MoveTo(terrain int) bool {
	if !u.OnBoard() || terrain == u.terrain || terrain < 0 || terrain >= NumTerrains {
		return false
	}
	e := u.engine
	dest := e.terrains[terrain]
	if dest.Unit(u.owner) != nil {
		return false
	}
	from := u.terrain
	e.terrains[from].clear(u.owner)
	dest.place(u.owner, u)
	u.terrain = terrain
	u.lastTerrain = terrain
	e.emit(Event{
		Type:     EventUnitMoved,
		PlayerID: u.owner,
		UnitID:   u.id,
		Slot:     u.slotRef(),
		Value:    from,
	})
	return true
}

// SwapWith exchanges the slots of two units owned by the same player.
func (u *UnitCard) SwapWith(other *UnitCard) bool {
	if other == nil || other == u || !u.OnBoard() || !other.OnBoard() || other.owner != u.owner {
		return false
	}
	e := u.engine
	a, b := u.terrain, other.terrain
	e.terrains[a].place(u.owner, other)
	e.terrains[b].place(u.owner, u)
	u.terrain, u.lastTerrain = b, b
	other.terrain, other.lastTerrain = a, a
	e.emit(Event{Type: EventUnitMoved, PlayerID: u.owner, UnitID: u.id, Slot: u.slotRef(), Value: a})
	e.emit(Event{Type: EventUnitMoved, PlayerID: u.owner, UnitID: other.id, Slot: other.slotRef(), Value: b})
	return true
}

// Bounce returns the unit to its owner's hand. Tokens cease to exist.
func (u *UnitCard) Bounce() {
	if !u.OnBoard() {
		return
	}
	e := u.engine
	coord := Slot(u.terrain, u.owner)
	e.terrains[u.terrain].clear(u.owner)
	e.emit(Event{
		Type:     EventUnitBounced,
		PlayerID: u.owner,
		UnitID:   u.id,
		Slot:     slotRef(coord),
		Power:    u.Power(),
	})
	u.leaveBoard()
	u.resetState()
	if !u.token {
		e.players[u.owner].ReturnToHand(u)
	}
}

// die clears the slot, moves the unit to the graveyard and runs the death
// and leave hooks. UNIT_DIED is emitted while the unit still reports its
// terrain.
func (u *UnitCard) die(cause string) {
	if !u.OnBoard() {
		return
	}
	e := u.engine
	coord := Slot(u.terrain, u.owner)
	power := u.Power()
	u.lastPower = power
	e.terrains[u.terrain].clear(u.owner)
	if !u.token {
		e.players[u.owner].AddToGraveyard(u)
	}
	e.emit(Event{
		Type:     EventUnitDied,
		PlayerID: u.owner,
		UnitID:   u.id,
		CardID:   u.definitionID,
		Slot:     slotRef(coord),
		Power:    power,
		Cause:    cause,
	})
	for _, t := range u.traits {
		t.OnDeath()
	}
	u.leaveBoard()
}

// discard removes the unit at skirmish cleanup: graveyard, no death hooks.
func (u *UnitCard) discard() {
	if !u.OnBoard() {
		return
	}
	u.engine.terrains[u.terrain].clear(u.owner)
	if !u.token {
		u.engine.players[u.owner].AddToGraveyard(u)
	}
	u.leaveBoard()
}

func (u *UnitCard) leaveBoard() {
	u.terrain = -1
	for _, t := range u.traits {
		t.OnLeave()
	}
	u.engine.releaseRegistrations(u.id)
}

func (u *UnitCard) resetState() {
	u.damage = 0
	u.buffs = 0
	u.shield = 0
	u.cooldown = 0
}

func (u *UnitCard) notifyTurnStart() {
	for _, t := range u.traits {
		t.OnTurnStart()
	}
}

func (u *UnitCard) notifyConquer() {
	for _, t := range u.traits {
		t.OnConquer()
	}
}

func (u *UnitCard) notifyConsume(victim *UnitCard) {
	for _, t := range u.traits {
		t.OnConsume(victim)
	}
}

func (u *UnitCard) notifyConsumed(consumer *UnitCard) {
	for _, t := range u.traits {
		t.OnConsumed(consumer)
	}
}

// DetachTrait removes the first trait of the given kind, releasing its
// registrations.
func (u *UnitCard) DetachTrait(kind string) bool {
	for i, t := range u.traits {
		if t.Kind() == kind {
			t.Detach()
			u.traits = append(u.traits[:i], u.traits[i+1:]...)
			return true
		}
	}
	return false
}

// Property exposes unit values to reaction conditions and value selectors.
func (u *UnitCard) Property(name string) (any, bool) {
	switch name {
	case "id", "unitId":
		return u.id, true
	case "cardId", "definitionId":
		return u.definitionID, true
	case "name":
		return u.name, true
	case "owner", "playerId":
		return int(u.owner), true
	case "power":
		return u.Power(), true
	case "basePower":
		return u.basePower, true
	case "damage":
		return u.damage, true
	case "buffs":
		return u.buffs, true
	case "shield":
		return u.Shield(), true
	case "wounded":
		return u.damage > 0, true
	case "onBoard":
		return u.OnBoard(), true
	case "terrainId":
		return u.terrain, true
	case "unitType":
		return u.unitType, true
	case "rarity":
		return string(u.rarity), true
	case "color":
		return u.color, true
	case "cooldown":
		return u.cooldown, true
	case "token":
		return u.token, true
	case "hasAbility":
		return u.ability != nil, true
	case "slotModifier":
		if !u.OnBoard() {
			return 0, true
		}
		return u.engine.terrains[u.terrain].Modifier(u.owner), true
	case "closeAllies":
		return len(u.engine.CloseUnits(u.position(), u.owner, FilterAlly)), true
	case "closeEnemies":
		return len(u.engine.CloseUnits(u.position(), u.owner, FilterEnemy)), true
	case "traits":
		kinds := make([]string, 0, len(u.traits))
		for _, t := range u.traits {
			kinds = append(kinds, t.Kind())
		}
		return kinds, true
	}
	return nil, false
}

// State returns a plain-data copy of the unit.
func (u *UnitCard) State() CardState {
	st := u.baseState(CardTypeUnit)
	st.Power = u.Power()
	st.BasePower = u.basePower
	st.Damage = u.damage
	st.Buffs = u.buffs
	st.Shield = u.Shield()
	st.Cooldown = u.cooldown
	st.Token = u.token
	st.CanActivate = u.CanActivate()
	if u.ability != nil {
		st.MaxCooldown = u.ability.Cooldown
	}
	if u.OnBoard() {
		terrain := u.terrain
		st.TerrainID = &terrain
	}
	for _, t := range u.traits {
		st.Traits = append(st.Traits, t.Kind())
	}
	return st
}
