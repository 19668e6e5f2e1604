package rules

import "fmt"

// LimitScope defines the window an execution cap applies to.
type LimitScope string

const (
	// LimitScopeTurn resets whenever the turn counter changes.
	LimitScopeTurn LimitScope = "Turn"
	// LimitScopeRound resets whenever a new skirmish starts.
	LimitScopeRound LimitScope = "Round"
	// LimitScopeGame never resets.
	LimitScopeGame LimitScope = "Game"
)

// ParseLimitScope validates a scope name.
func ParseLimitScope(s string) (LimitScope, error) {
	switch LimitScope(s) {
	case LimitScopeTurn, LimitScopeRound, LimitScopeGame:
		return LimitScope(s), nil
	default:
		return "", fmt.Errorf("unknown limit scope %q", s)
	}
}

// Clock reports the counters a limiter windows over.
type Clock interface {
	Turn() int
	Round() int
}

// Limiter counts executions of one ability and reports whether another is
// allowed within its scope. A nil limiter or a non-positive max never limits.
type Limiter struct {
	scope LimitScope
	max   int

	turnCount  int
	roundCount int
	total      int
	lastTurn   int
	lastRound  int
}

// NewLimiter creates a limiter for scope with the given cap.
func NewLimiter(scope LimitScope, max int) *Limiter {
	return &Limiter{scope: scope, max: max, lastTurn: -1, lastRound: -1}
}

func (l *Limiter) sync(clock Clock) {
	if turn := clock.Turn(); turn != l.lastTurn {
		l.turnCount = 0
		l.lastTurn = turn
	}
	if round := clock.Round(); round != l.lastRound {
		l.roundCount = 0
		l.lastRound = round
	}
}

// Allow reports whether another execution fits in the current window.
func (l *Limiter) Allow(clock Clock) bool {
	if l == nil || l.max <= 0 {
		return true
	}
	l.sync(clock)
	switch l.scope {
	case LimitScopeTurn:
		return l.turnCount < l.max
	case LimitScopeRound:
		return l.roundCount < l.max
	case LimitScopeGame:
		return l.total < l.max
	default:
		return true
	}
}

// Record counts one execution.
func (l *Limiter) Record(clock Clock) {
	if l == nil {
		return
	}
	l.sync(clock)
	l.turnCount++
	l.roundCount++
	l.total++
}

// Remaining returns how many executions are left in the current window, or
// -1 when unlimited.
func (l *Limiter) Remaining(clock Clock) int {
	if l == nil || l.max <= 0 {
		return -1
	}
	l.sync(clock)
	var used int
	switch l.scope {
	case LimitScopeTurn:
		used = l.turnCount
	case LimitScopeRound:
		used = l.roundCount
	default:
		used = l.total
	}
	if used >= l.max {
		return 0
	}
	return l.max - used
}
