package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogEntry is one accepted decision with a reduced view of the board at
// the moment it was taken.
type LogEntry struct {
	ID         string      `json:"id"`
	Turn       int         `json:"turn"`
	Skirmish   int         `json:"skirmish"`
	Player     PlayerID    `json:"player"`
	PlayerType string      `json:"playerType"`
	ActionType ActionType  `json:"actionType"`
	Details    string      `json:"details"`
	Reasoning  string      `json:"reasoning,omitempty"`
	Checksum   string      `json:"checksum"`
	Timestamp  time.Time   `json:"timestamp"`
	State      LoggedState `json:"state"`
}

// LoggedState is the part of GameState worth keeping per log entry.
type LoggedState struct {
	SP            [NumPlayers]int                 `json:"sp"`
	HandSizes     [NumPlayers]int                 `json:"handSizes"`
	SkirmishesWon [NumPlayers]int                 `json:"skirmishesWon"`
	Board         [NumTerrains][NumPlayers]string `json:"board"`
}

// MatchResult closes a log.
type MatchResult struct {
	Winner        PlayerID        `json:"winner"`
	SkirmishesWon [NumPlayers]int `json:"skirmishesWon"`
	Turns         int             `json:"turns"`
}

// GameLog is the exported form of a GameLogger.
type GameLog struct {
	MatchID     string             `json:"matchId"`
	Seed        int64              `json:"seed"`
	PlayerTypes [NumPlayers]string `json:"playerTypes"`
	Entries     []LogEntry         `json:"entries"`
	Result      *MatchResult       `json:"result,omitempty"`
}

// GameLogger records every action accepted by an engine.
type GameLogger struct {
	mu          sync.Mutex
	matchID     string
	seed        int64
	playerTypes [NumPlayers]string
	entries     []LogEntry
	result      *MatchResult
	now         func() time.Time
}

// NewGameLogger creates an empty log. playerTypes labels each seat, for
// example "ai" or "human".
func NewGameLogger(matchID string, seed int64, playerTypes [NumPlayers]string) *GameLogger {
	return &GameLogger{matchID: matchID, seed: seed, playerTypes: playerTypes, now: time.Now}
}

// Attach subscribes the logger to e's action records. The returned
// function detaches it.
func (l *GameLogger) Attach(e *Engine) func() {
	return e.OnAction(func(rec ActionRecord) {
		l.Record(rec, e.State())
	})
}

// Record appends an entry for rec taken against st.
func (l *GameLogger) Record(rec ActionRecord, st GameState) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := rec.Action.PlayerID
	entry := LogEntry{
		ID:         uuid.NewString(),
		Turn:       st.CurrentTurn,
		Skirmish:   st.CurrentSkirmish,
		Player:     p,
		ActionType: rec.Action.Type,
		Details:    rec.Action.String(),
		Reasoning:  rec.Reasoning,
		Checksum:   rec.Checksum,
		Timestamp:  l.now(),
		State:      reduceState(st),
	}
	if p.Valid() {
		entry.PlayerType = l.playerTypes[p]
	}
	if rec.Input != nil {
		entry.Details = fmt.Sprintf("INPUT p%d %v", p, rec.Input.Selected)
	}
	l.entries = append(l.entries, entry)
}

func reduceState(st GameState) LoggedState {
	var out LoggedState
	for p := 0; p < NumPlayers; p++ {
		out.SP[p] = st.Players[p].SP
		out.HandSizes[p] = st.Players[p].HandSize
		out.SkirmishesWon[p] = st.Players[p].SkirmishesWon
	}
	for t, terrain := range st.Terrains {
		for p, slot := range terrain.Slots {
			if slot.Unit != nil {
				out.Board[t][p] = fmt.Sprintf("%s(%d)", slot.Unit.DefinitionID, slot.Unit.Power)
			}
		}
	}
	return out
}

// SetResult stores the final outcome.
func (l *GameLogger) SetResult(r MatchResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.result = &r
}

// FullLog returns a copy of everything recorded.
func (l *GameLogger) FullLog() GameLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	log := GameLog{
		MatchID:     l.matchID,
		Seed:        l.seed,
		PlayerTypes: l.playerTypes,
		Entries:     append([]LogEntry(nil), l.entries...),
	}
	if l.result != nil {
		r := *l.result
		log.Result = &r
	}
	return log
}

// History returns the last n entries, oldest first.
func (l *GameLogger) History(n int) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]LogEntry(nil), l.entries[len(l.entries)-n:]...)
}

// Len returns the number of entries.
func (l *GameLogger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Export renders the full log as indented JSON.
func (l *GameLogger) Export() ([]byte, error) {
	data, err := json.MarshalIndent(l.FullLog(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export game log: %w", err)
	}
	return data, nil
}

// Clear drops all entries and the result.
func (l *GameLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.result = nil
}
