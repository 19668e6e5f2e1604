package game

// Trait is a unit capability. Every trait is bound to exactly one unit and
// implements the full hook set; BaseTrait supplies no-op defaults.
type Trait interface {
	Kind() string
	Owner() *UnitCard

	OnAttach(owner *UnitCard)
	OnDeploy()
	OnDeath()
	OnLeave()
	OnConquer()
	OnConsume(victim *UnitCard)
	OnConsumed(consumer *UnitCard)
	OnTurnStart()

	// ModifyPower adjusts the owner's effective power before the floor.
	ModifyPower(power int) int
	// InterceptDamage returns the damage left after the trait had a go.
	InterceptDamage(amount int) int
	// CanDeploy refines whether the owner's card may be deployed to target.
	CanDeploy(target SlotCoord, allowed bool) bool

	// Detach releases every registration the trait holds.
	Detach()
}

// BaseTrait implements Trait with no behavior.
type BaseTrait struct {
	kind  string
	owner *UnitCard
}

func (t *BaseTrait) Kind() string { return t.kind }
func (t *BaseTrait) Owner() *UnitCard { return t.owner }
func (t *BaseTrait) OnAttach(owner *UnitCard) { t.owner = owner }
func (t *BaseTrait) OnDeploy() {}
func (t *BaseTrait) OnDeath() {}
func (t *BaseTrait) OnLeave() {}
func (t *BaseTrait) OnConquer() {}
func (t *BaseTrait) OnConsume(*UnitCard) {}
func (t *BaseTrait) OnConsumed(*UnitCard) {}
func (t *BaseTrait) OnTurnStart() {}
func (t *BaseTrait) ModifyPower(power int) int { return power }
func (t *BaseTrait) InterceptDamage(amount int) int { return amount }
func (t *BaseTrait) CanDeploy(_ SlotCoord, allowed bool) bool { return allowed }
func (t *BaseTrait) Detach() {}

// shieldHolder is implemented by traits that keep their own shield pool.
type shieldHolder interface {
	ShieldRemaining() int
}

// abilityProvider is implemented by traits that give their owner an
// activated ability. The factory reads it once at construction.
type abilityProvider interface {
	ActivatedAbility() *ActivatedAbility
}

// registrations tracks trigger and rule ids a trait registered so it can
// release exactly those.
type registrations struct {
	triggers []string
	rules    []string
}

func (r *registrations) release(e *Engine) {
	for _, id := range r.triggers {
		e.triggers.Unregister(id)
	}
	for _, id := range r.rules {
		e.rules.Unregister(id)
	}
	r.triggers = nil
	r.rules = nil
}
