package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// formatSession renders the board with free cells shown as their index so
// the reader can pick a move straight from it.
func formatSession(view entity.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Room %s (%s, round %d)\n", view.RoomCode, view.Status, view.Round)

	names := make([]string, 0, len(view.Participants))
	for _, participant := range view.Participants {
		if participant.Mark.IsValid() {
			names = append(names, fmt.Sprintf("%s (%s)", participant.Name, participant.Mark))
		} else {
			names = append(names, participant.Name)
		}
	}
	fmt.Fprintf(&b, "Players: %s\n\n", strings.Join(names, ", "))

	b.WriteString(formatBoard(view.Board))
	b.WriteString("\n")

	switch {
	case view.IsFinished() && view.Result != nil:
		b.WriteString(formatResult(view.Result))
	case view.IsWaiting():
		b.WriteString("Waiting for a second player.")
	case view.YourTurn:
		fmt.Fprintf(&b, "Your turn, you play %s.", view.YourMark)
	default:
		fmt.Fprintf(&b, "Turn: %s.", view.TurnOwner)
	}

	return b.String()
}

func formatBoard(board tictactoe.Board) string {
	var b strings.Builder

	for row := range 3 {
		cells := make([]string, 3)
		for col := range 3 {
			idx := row*3 + col
			if board[idx] == tictactoe.EmptyCell {
				cells[col] = strconv.Itoa(idx)
			} else {
				cells[col] = string(board[idx])
			}
		}

		b.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			b.WriteString("---+---+---\n")
		}
	}

	return b.String()
}

func formatResult(result *entity.Result) string {
	switch result.Reason {
	case entity.ReasonWin:
		return fmt.Sprintf("%s won.", result.Participant)
	case entity.ReasonDraw:
		return "Draw."
	case entity.ReasonAbandoned:
		return fmt.Sprintf("%s left the game.", result.Participant)
	default:
		return string(result.Reason)
	}
}

func formatHistory(events []entity.Event) string {
	if len(events) == 0 {
		return "No history yet."
	}

	var b strings.Builder
	for _, event := range events {
		fmt.Fprintf(&b, "%s room %s %s", event.At.Format("2006-01-02 15:04:05"), event.RoomCode, event.Kind)

		if event.Actor != "" {
			fmt.Fprintf(&b, " by %s", event.Actor)
		}
		if event.Cell != nil {
			fmt.Fprintf(&b, " cell %d", *event.Cell)
		}
		if event.Result != nil {
			fmt.Fprintf(&b, " (%s)", formatResult(event.Result))
		}

		b.WriteString("\n")
	}

	return b.String()
}
