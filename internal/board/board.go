// Package board renders a read-only terminal view of a match snapshot.
package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
)

const laneWidth = 16

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFA500"))

	laneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Width(laneWidth).
			Align(lipgloss.Center)

	wonLaneStyle = laneStyle.
			BorderForeground(lipgloss.Color("#FFD700"))

	playerStyle = [game.NumPlayers]lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
	}

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// Render draws the whole board: a status header, the five lanes with
// player 1 on top, and each player's hand and graveyard counts.
func Render(st game.GameState) string {
	lanes := make([]string, 0, len(st.Terrains))
	for _, t := range st.Terrains {
		lanes = append(lanes, renderLane(t))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(Header(st)),
		renderPlayer(st, 1),
		lipgloss.JoinHorizontal(lipgloss.Top, lanes...),
		renderPlayer(st, 0),
	)
}

// Header is the one-line status of the match.
func Header(st game.GameState) string {
	if st.MatchEnded {
		return fmt.Sprintf("Match over after %d skirmishes: %s", len(st.SkirmishHistory), Result(st))
	}
	return fmt.Sprintf("Skirmish %d  Turn %d  P%d to act  [%s]",
		st.CurrentSkirmish, st.CurrentTurn, st.CurrentPlayer, st.Phase)
}

// Result describes the match outcome, or "in progress".
func Result(st game.GameState) string {
	if st.Phase == game.PhaseAborted {
		return "aborted"
	}
	if !st.MatchEnded {
		return "in progress"
	}
	score := fmt.Sprintf("%d-%d", st.Players[0].SkirmishesWon, st.Players[1].SkirmishesWon)
	if st.MatchWinner == nil || !st.MatchWinner.Valid() {
		return "draw " + score
	}
	return fmt.Sprintf("P%d wins %s", *st.MatchWinner, score)
}

func renderLane(t game.TerrainState) string {
	style := laneStyle
	if t.Winner.Valid() {
		style = wonLaneStyle
	}
	lines := []string{
		renderSlot(t.Slots[1], 1),
		dimStyle.Render(fmt.Sprintf("T%d %s", t.ID, laneScore(t))),
		renderSlot(t.Slots[0], 0),
	}
	return style.Render(strings.Join(lines, "\n"))
}

func laneScore(t game.TerrainState) string {
	switch t.Winner {
	case 0:
		return "v P0"
	case 1:
		return "^ P1"
	default:
		return "--"
	}
}

func renderSlot(slot game.SlotState, owner game.PlayerID) string {
	mod := ""
	if slot.Modifier != 0 {
		mod = fmt.Sprintf(" (%+d)", slot.Modifier)
	}
	if slot.Unit == nil {
		return dimStyle.Render("." + mod)
	}
	u := slot.Unit
	label := fmt.Sprintf("%s %d", truncate(u.Name, laneWidth-6), u.Power)
	if u.Shield > 0 {
		label += fmt.Sprintf("+%ds", u.Shield)
	}
	return playerStyle[owner].Render(label + mod)
}

func renderPlayer(st game.GameState, p game.PlayerID) string {
	ps := st.Players[p]
	leader := st.Leaders[p]
	parts := []string{
		fmt.Sprintf("P%d", p),
		fmt.Sprintf("won %d", ps.SkirmishesWon),
		fmt.Sprintf("sp %d", ps.SP),
		fmt.Sprintf("hand %d", ps.HandSize),
		fmt.Sprintf("deck %d", ps.DeckSize),
		fmt.Sprintf("grave %d", len(ps.Graveyard)),
	}
	if leader.LeaderID != "" {
		parts = append(parts, fmt.Sprintf("%s %d/%d", leader.LeaderID, leader.CurrentCharges, leader.MaxCharges))
	}
	if ps.IsDone {
		parts = append(parts, "passed")
	}
	return playerStyle[p].Render(strings.Join(parts, "  "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
