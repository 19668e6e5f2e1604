package game

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// Lua hooks a script may define.
const (
	scriptOnDeploy    = "on_deploy"
	scriptOnDeath     = "on_death"
	scriptOnConquer   = "on_conquer"
	scriptOnTurnStart = "on_turn_start"
)

// sandboxRemoved are base library globals that load code from disk or
// from strings at run time.
var sandboxRemoved = []string{"dofile", "loadfile", "load", "loadstring", "require"}

// ScriptTrait runs card behavior written in Lua. Only the base, string and
// table libraries are opened, and the base loaders are removed, so scripts
// cannot reach the clock or the filesystem.
type ScriptTrait struct {
	BaseTrait
	state *lua.State
}

// NewScriptTrait compiles source and registers the card API.
func NewScriptTrait(source string) (*ScriptTrait, error) {
	t := &ScriptTrait{BaseTrait: BaseTrait{kind: "script"}}
	l := lua.NewState()
	lua.Require(l, "_G", lua.BaseOpen, true)
	l.Pop(1)
	for _, name := range sandboxRemoved {
		l.PushNil()
		l.SetGlobal(name)
	}
	lua.Require(l, "string", lua.StringOpen, true)
	l.Pop(1)
	lua.Require(l, "table", lua.TableOpen, true)
	l.Pop(1)

	l.Register("draw", t.luaDraw)
	l.Register("add_power", t.luaAddPower)
	l.Register("deal_damage", t.luaDealDamage)
	l.Register("unit_in_front", t.luaUnitInFront)
	l.Register("self", t.luaSelf)
	l.Register("modify_slot", t.luaModifySlot)

	if err := lua.LoadString(l, source); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("failed to run script: %w", err)
	}
	t.state = l
	return t, nil
}

// HasHook reports whether the script defines a global function name.
func (t *ScriptTrait) HasHook(name string) bool {
	t.state.Global(name)
	defer t.state.Pop(1)
	return t.state.IsFunction(-1)
}

func (t *ScriptTrait) OnDeploy() { t.schedule(scriptOnDeploy) }
func (t *ScriptTrait) OnDeath() { t.schedule(scriptOnDeath) }
func (t *ScriptTrait) OnConquer() { t.schedule(scriptOnConquer) }
func (t *ScriptTrait) OnTurnStart() { t.schedule(scriptOnTurnStart) }

func (t *ScriptTrait) schedule(hook string) {
	if !t.HasHook(hook) {
		return
	}
	e := t.owner.engine
	e.Interrupt(NewTriggerEffect(t.owner, t.owner.definitionID+":"+hook, nil, func(*Engine) error {
		return t.call(hook)
	}))
}

func (t *ScriptTrait) call(hook string) error {
	t.state.Global(hook)
	if !t.state.IsFunction(-1) {
		t.state.Pop(1)
		return nil
	}
	if err := t.state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("script %s of %s: %w", hook, t.owner.definitionID, err)
	}
	return nil
}

func checkUnit(l *lua.State, index int) *UnitCard {
	u, ok := l.ToUserData(index).(*UnitCard)
	if !ok || u == nil {
		lua.ArgumentError(l, index, "unit expected")
	}
	return u
}

func (t *ScriptTrait) luaDraw(l *lua.State) int {
	n := lua.CheckInteger(l, 1)
	t.owner.engine.players[t.owner.owner].Draw(n)
	return 0
}

func (t *ScriptTrait) luaAddPower(l *lua.State) int {
	u := checkUnit(l, 1)
	n := lua.CheckInteger(l, 2)
	if u.OnBoard() {
		u.AddPower(n)
	}
	return 0
}

func (t *ScriptTrait) luaDealDamage(l *lua.State) int {
	u := checkUnit(l, 1)
	n := lua.CheckInteger(l, 2)
	if u.OnBoard() {
		u.DealDamage(n, t.owner.id)
	}
	return 0
}

func (t *ScriptTrait) luaUnitInFront(l *lua.State) int {
	pos := t.owner.position()
	if pos < 0 {
		l.PushNil()
		return 1
	}
	if u := t.owner.engine.UnitInFront(pos, t.owner.owner); u != nil {
		l.PushUserData(u)
		return 1
	}
	l.PushNil()
	return 1
}

func (t *ScriptTrait) luaSelf(l *lua.State) int {
	l.PushUserData(t.owner)
	return 1
}

func (t *ScriptTrait) luaModifySlot(l *lua.State) int {
	n := lua.CheckInteger(l, 1)
	if pos := t.owner.position(); pos >= 0 {
		t.owner.engine.AddSlotModifier(Slot(pos, t.owner.owner), n)
	}
	return 0
}
