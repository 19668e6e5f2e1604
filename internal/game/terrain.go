package game

type slot struct {
	unit     *UnitCard
	modifier int
}

// Terrain is one of the five lanes. Each side has one slot.
type Terrain struct {
	id     int
	slots  [NumPlayers]slot
	winner PlayerID
}

func newTerrain(id int) *Terrain {
	return &Terrain{id: id, winner: NoPlayer}
}

func (t *Terrain) ID() int { return t.id }

// Unit returns the unit in p's slot, or nil.
func (t *Terrain) Unit(p PlayerID) *UnitCard {
	return t.slots[p].unit
}

// Modifier returns the power modifier of p's slot.
func (t *Terrain) Modifier(p PlayerID) int {
	return t.slots[p].modifier
}

// Winner returns the last resolved winner, or NoPlayer.
func (t *Terrain) Winner() PlayerID {
	return t.winner
}

func (t *Terrain) place(p PlayerID, u *UnitCard) {
	t.slots[p].unit = u
}

func (t *Terrain) clear(p PlayerID) {
	t.slots[p].unit = nil
}

func (t *Terrain) setModifier(p PlayerID, value int) {
	t.slots[p].modifier = value
}

func (t *Terrain) setWinner(p PlayerID) {
	t.winner = p
}

// reset clears both slots and their modifiers.
func (t *Terrain) reset() {
	t.slots = [NumPlayers]slot{}
	t.winner = NoPlayer
}
