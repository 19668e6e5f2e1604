package game

// ShieldTrait absorbs damage from a pool that refills on every deploy.
type ShieldTrait struct {
	BaseTrait
	amount    int
	remaining int
}

// NewShieldTrait builds a shield of the given size.
func NewShieldTrait(amount int) *ShieldTrait {
	return &ShieldTrait{BaseTrait: BaseTrait{kind: "shield"}, amount: amount}
}

// ShieldRemaining returns the unspent pool.
func (t *ShieldTrait) ShieldRemaining() int { return t.remaining }

func (t *ShieldTrait) OnDeploy() {
	t.remaining = t.amount
}

func (t *ShieldTrait) OnLeave() {
	t.remaining = 0
}

func (t *ShieldTrait) InterceptDamage(amount int) int {
	if t.remaining <= 0 || amount <= 0 {
		return amount
	}
	absorbed := min(t.remaining, amount)
	t.remaining -= absorbed
	t.owner.emitShieldChanged(-absorbed)
	return amount - absorbed
}
