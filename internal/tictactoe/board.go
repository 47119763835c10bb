package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	EmptyCell Mark = ""

	CellCount = 9
)

// Mark is the symbol placed on a cell.
type Mark string

// Opponent returns the other mark. EmptyCell has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return EmptyCell
	}
}

func (that Mark) IsValid() bool {
	return that == MarkX || that == MarkO
}

// WinLines are scanned in this order: rows, columns, diagonals.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a 3x3 grid stored row by row.
type Board [CellCount]Mark

type OutcomeState string

const (
	OutcomeInProgress OutcomeState = "in_progress"
	OutcomeWin        OutcomeState = "win"
	OutcomeDraw       OutcomeState = "draw"
)

// Outcome is the result of Evaluate. Winner and Line are set only for OutcomeWin.
type Outcome struct {
	State  OutcomeState
	Winner Mark
	Line   [3]int
}

func (that Outcome) IsTerminal() bool {
	return that.State == OutcomeWin || that.State == OutcomeDraw
}

// Place returns a copy of the board with mark set on cell.
func (that Board) Place(cell int, mark Mark) (Board, error) {
	if !mark.IsValid() {
		return that, fmt.Errorf("%w: unknown mark %q", apperror.ErrInvalidMove, mark)
	}

	if cell < 0 || cell >= CellCount {
		return that, fmt.Errorf("%w: cell %d is out of range", apperror.ErrInvalidMove, cell)
	}

	if that[cell] != EmptyCell {
		return that, fmt.Errorf("%w: cell %d is occupied", apperror.ErrInvalidMove, cell)
	}

	that[cell] = mark

	return that, nil
}

// Evaluate reports the first complete line, a draw on a full board, or that play continues.
func (that Board) Evaluate() Outcome {
	for _, line := range WinLines {
		a, b, c := that[line[0]], that[line[1]], that[line[2]]
		if a != EmptyCell && a == b && b == c {
			return Outcome{State: OutcomeWin, Winner: a, Line: line}
		}
	}

	if that.IsFull() {
		return Outcome{State: OutcomeDraw}
	}

	return Outcome{State: OutcomeInProgress}
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// FreeCells lists empty cell indexes in ascending order.
func (that Board) FreeCells() []int {
	cells := make([]int, 0, CellCount)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}
