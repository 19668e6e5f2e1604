package game

// StateChecker applies state-based rules between effects.
type StateChecker struct{}

// CheckStateConditions queues death resolution for every board unit whose
// effective power is zero or less.
func (StateChecker) CheckStateConditions(e *Engine) {
	var dying []*UnitCard
	for _, u := range e.boardUnits() {
		if u.Power() <= 0 {
			dying = append(dying, u)
		}
	}
	if len(dying) > 0 {
		e.Interrupt(&ResolveDeathsEffect{Units: dying})
	}
}
