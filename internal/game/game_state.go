package game

// SkirmishStatus tracks a skirmish history entry.
type SkirmishStatus string

const (
	SkirmishOngoing   SkirmishStatus = "ONGOING"
	SkirmishConcluded SkirmishStatus = "CONCLUDED"
)

// SkirmishRecord is one entry of the skirmish history. Winner is NoPlayer
// while ongoing and for ties; Tie distinguishes the two.
type SkirmishRecord struct {
	Number int            `json:"number"`
	Status SkirmishStatus `json:"status"`
	Winner PlayerID       `json:"winner"`
	Tie    bool           `json:"tie"`
	Scores [2]int         `json:"scores"`
}

// Game holds match-wide counters. It is only mutated through its methods.
type Game struct {
	currentSkirmish int
	currentTurn     int
	currentPlayer   PlayerID
	tieSkirmishes   int
	matchWinner     PlayerID
	matchEnded      bool
	history         []SkirmishRecord
}

func newGame(first PlayerID) *Game {
	return &Game{
		currentTurn:   1,
		currentPlayer: first,
		matchWinner:   NoPlayer,
	}
}

func (g *Game) CurrentSkirmish() int { return g.currentSkirmish }
func (g *Game) CurrentTurn() int { return g.currentTurn }
func (g *Game) CurrentPlayer() PlayerID { return g.currentPlayer }
func (g *Game) TieSkirmishes() int { return g.tieSkirmishes }
func (g *Game) MatchEnded() bool { return g.matchEnded }
func (g *Game) MatchWinner() PlayerID { return g.matchWinner }

// Turn and Round let the game act as a limiter clock.
func (g *Game) Turn() int { return g.currentTurn }
func (g *Game) Round() int { return g.currentSkirmish }

// History returns a copy of the skirmish history.
func (g *Game) History() []SkirmishRecord {
	out := make([]SkirmishRecord, len(g.history))
	copy(out, g.history)
	return out
}

// StartSkirmish opens the next skirmish and returns its number.
func (g *Game) StartSkirmish() int {
	g.currentSkirmish++
	g.history = append(g.history, SkirmishRecord{
		Number: g.currentSkirmish,
		Status: SkirmishOngoing,
		Winner: NoPlayer,
	})
	return g.currentSkirmish
}

// EndSkirmish concludes the current skirmish. winner NoPlayer records a tie.
func (g *Game) EndSkirmish(winner PlayerID, scores [2]int) {
	if winner == NoPlayer {
		g.tieSkirmishes++
	}
	if n := len(g.history); n > 0 {
		rec := &g.history[n-1]
		rec.Status = SkirmishConcluded
		rec.Winner = winner
		rec.Tie = winner == NoPlayer
		rec.Scores = scores
	}
}

// SetCurrentPlayer hands priority to p.
func (g *Game) SetCurrentPlayer(p PlayerID) {
	g.currentPlayer = p
}

// SetWinner ends the match. NoPlayer records a draw.
func (g *Game) SetWinner(p PlayerID) {
	g.matchWinner = p
	g.matchEnded = true
}

// AdvanceTurn moves the turn counter forward.
func (g *Game) AdvanceTurn() {
	g.currentTurn++
}
