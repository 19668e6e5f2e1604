package game

import "go.uber.org/zap"

// Player is one seat's zones, points and turn flags.
type Player struct {
	engine *Engine
	id     PlayerID

	hand      []Card
	deck      []Card
	graveyard []Card

	sp            int
	skirmishesWon int

	done               bool
	actedThisTurn      bool
	playedCardThisTurn bool

	leader *Leader
}

func newPlayer(e *Engine, id PlayerID, deck []Card) *Player {
	return &Player{engine: e, id: id, deck: deck}
}

func (p *Player) ID() PlayerID { return p.id }
func (p *Player) SP() int { return p.sp }
func (p *Player) SkirmishesWon() int { return p.skirmishesWon }
func (p *Player) IsDone() bool { return p.done }
func (p *Player) HasActedThisTurn() bool { return p.actedThisTurn }
func (p *Player) HasPlayedCardThisTurn() bool { return p.playedCardThisTurn }
func (p *Player) HandSize() int { return len(p.hand) }
func (p *Player) DeckSize() int { return len(p.deck) }
func (p *Player) Leader() *Leader { return p.leader }

// Hand returns a copy of the hand in order.
func (p *Player) Hand() []Card {
	return append([]Card(nil), p.hand...)
}

// Deck returns a copy of the deck, top first.
func (p *Player) Deck() []Card {
	return append([]Card(nil), p.deck...)
}

// Graveyard returns a copy of the graveyard, oldest first.
func (p *Player) Graveyard() []Card {
	return append([]Card(nil), p.graveyard...)
}

// FindInHand looks up a card in the hand by instance id.
func (p *Player) FindInHand(cardID string) (Card, bool) {
	for _, c := range p.hand {
		if c.ID() == cardID {
			return c, true
		}
	}
	return nil, false
}

// Draw moves up to n cards from the top of the deck to the hand. Drawing
// from an empty deck does nothing.
func (p *Player) Draw(n int) []Card {
	drawn := make([]Card, 0, n)
	for i := 0; i < n && len(p.deck) > 0; i++ {
		c := p.deck[0]
		p.deck = p.deck[1:]
		p.hand = append(p.hand, c)
		drawn = append(drawn, c)
		p.engine.emit(Event{Type: EventCardDrawn, PlayerID: p.id, CardID: c.ID()})
	}
	return drawn
}

// Discard moves a card from the hand to the graveyard.
func (p *Player) Discard(cardID string) bool {
	c, ok := p.removeFromHand(cardID)
	if !ok {
		return false
	}
	p.graveyard = append(p.graveyard, c)
	p.engine.emit(Event{Type: EventCardDiscarded, PlayerID: p.id, CardID: cardID})
	return true
}

// AddToHand puts a card into the hand, e.g. a created or bounced card.
func (p *Player) AddToHand(c Card) {
	p.hand = append(p.hand, c)
}

// ReturnToHand is AddToHand for a card coming back from the board.
func (p *Player) ReturnToHand(c Card) {
	p.AddToHand(c)
}

// AddToGraveyard appends a card to the graveyard.
func (p *Player) AddToGraveyard(c Card) {
	p.graveyard = append(p.graveyard, c)
}

// MarkActed records that the player did something this turn.
func (p *Player) MarkActed() {
	p.actedThisTurn = true
}

// ResetTurnFlags clears the per-turn flags.
func (p *Player) ResetTurnFlags() {
	p.actedThisTurn = false
	p.playedCardThisTurn = false
}

// ResetSkirmishFlags clears everything that lasts for one skirmish.
func (p *Player) ResetSkirmishFlags() {
	p.done = false
	p.sp = 0
	p.ResetTurnFlags()
}

func (p *Player) removeFromHand(cardID string) (Card, bool) {
	for i, c := range p.hand {
		if c.ID() == cardID {
			p.hand = append(p.hand[:i], p.hand[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

func (p *Player) removeFromGraveyard(cardID string) bool {
	for i, c := range p.graveyard {
		if c.ID() == cardID {
			p.graveyard = append(p.graveyard[:i], p.graveyard[i+1:]...)
			return true
		}
	}
	return false
}

// PlayCard takes a card from the hand and resolves it: units deploy onto
// the target terrain, actions apply their ability and go to the graveyard.
func (p *Player) PlayCard(cardID string, target *SlotCoord) error {
	c, ok := p.removeFromHand(cardID)
	if !ok {
		return &IllegalActionError{Action: PlayCard(p.id, cardID, target), Reason: "card not in hand"}
	}
	p.playedCardThisTurn = true
	p.actedThisTurn = true

	ev := Event{Type: EventCardPlayed, PlayerID: p.id, CardID: cardID, CardType: c.Type()}
	if target != nil {
		ev.Slot = slotRef(*target)
	}
	p.engine.emit(ev)
	p.engine.logger.Debug("card played",
		zap.Int("player", int(p.id)),
		zap.String("card_id", cardID),
	)

	switch card := c.(type) {
	case *UnitCard:
		if target == nil {
			return &IllegalActionError{Action: PlayCard(p.id, cardID, target), Reason: "unit needs a target terrain"}
		}
		return card.Deploy(target.Terrain)
	case *ActionCard:
		p.graveyard = append(p.graveyard, card)
		return card.Play(target)
	}
	return nil
}

// Pass ends the player's turn. A player who passes without acting, or
// while the opponent is already done, is done for the skirmish.
func (p *Player) Pass() {
	opponentDone := p.engine.players[p.id.Opponent()].done
	p.done = !p.actedThisTurn || opponentDone
	p.engine.emit(Event{Type: EventPlayerPassed, PlayerID: p.id, Value: boolInt(p.done)})
}

func (p *Player) addSP(n int) {
	p.sp += n
}

func (p *Player) incrementSkirmishesWon() {
	p.skirmishesWon++
}

// State returns a plain-data copy of the player.
func (p *Player) State() PlayerState {
	st := PlayerState{
		ID:                    p.id,
		Hand:                  cardStates(p.hand),
		HandSize:              len(p.hand),
		DeckSize:              len(p.deck),
		Graveyard:             cardStates(p.graveyard),
		SP:                    p.sp,
		SkirmishesWon:         p.skirmishesWon,
		IsDone:                p.done,
		HasActedThisTurn:      p.actedThisTurn,
		HasPlayedCardThisTurn: p.playedCardThisTurn,
	}
	return st
}

func cardStates(cards []Card) []CardState {
	out := make([]CardState, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.State())
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
