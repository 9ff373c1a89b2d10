package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
)

const BoardSize = 3

type Mark int

const (
	Empty Mark = iota
	MarkA
	MarkB
)

func (that Mark) String() string {
	switch that {
	case MarkA:
		return "X"
	case MarkB:
		return "O"
	default:
		return ""
	}
}

func (that Mark) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*that = Empty
	case "X":
		*that = MarkA
	case "O":
		*that = MarkB
	default:
		return fmt.Errorf("unknown mark %q", text)
	}
	return nil
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeTie
)

const TieResult = "This game ended in a tie!"

// Stats holds the cumulative results seen from the local player's side.
type Stats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Board is the authoritative 3x3 grid of one session.
// Coordinates in the public API are 1-indexed, x is the row and y the column.
type Board struct {
	grid [BoardSize][BoardSize]Mark

	lastX, lastY int
	hasLast      bool
	lastPlayer   string

	playerA string
	playerB string
	local   string

	stats    Stats
	result   string
	recorded bool
}

// NewBoard - creates a board. playerA moves with MarkA, anybody else with MarkB.
func NewBoard(playerA, playerB, local string) *Board {
	return &Board{
		playerA: playerA,
		playerB: playerB,
		local:   local,
	}
}

// ApplyMove - puts the player's mark on the slot (x, y).
func (that *Board) ApplyMove(player string, x, y int) error {
	if x < 1 || x > BoardSize || y < 1 || y > BoardSize {
		return fmt.Errorf("%w: slot %d,%d is out of range", apperror.ErrInvalidMove, x, y)
	}

	if that.grid[x-1][y-1] != Empty {
		return fmt.Errorf("%w: slot %d,%d is already occupied", apperror.ErrInvalidMove, x, y)
	}

	mark := MarkB
	if player == that.playerA {
		mark = MarkA
	}

	that.grid[x-1][y-1] = mark
	that.lastX, that.lastY = x-1, y-1
	that.hasLast = true
	that.lastPlayer = player

	return nil
}

// IsWinner - reports whether the last move completed a line. It has no side effects.
func (that *Board) IsWinner() bool {
	return that.winningMark() != Empty
}

// winningMark checks only the lines through the last move; a move can't complete any other line.
func (that *Board) winningMark() Mark {
	if !that.hasLast {
		return Empty
	}

	g := &that.grid
	x, y := that.lastX, that.lastY

	mark := g[x][y]
	if mark == Empty {
		return Empty
	}

	if g[x][0] == g[x][1] && g[x][1] == g[x][2] {
		return mark
	}

	if g[0][y] == g[1][y] && g[1][y] == g[2][y] {
		return mark
	}

	center := g[1][1]
	if center == Empty {
		return Empty
	}

	if g[0][0] == center && g[2][2] == center {
		return center
	}

	if g[2][0] == center && g[0][2] == center {
		return center
	}

	return Empty
}

// IsFull - reports whether no slot is empty. It has no side effects.
func (that *Board) IsFull() bool {
	for _, row := range that.grid {
		for _, cell := range row {
			if cell == Empty {
				return false
			}
		}
	}

	return true
}

// IsRoundOver - the round ends on a win or on a full board.
func (that *Board) IsRoundOver() bool {
	return that.IsWinner() || that.IsFull()
}

// Winner - returns the name owning the winning line, or "" when nobody won.
func (that *Board) Winner() string {
	switch that.winningMark() {
	case MarkA:
		return that.playerA
	case MarkB:
		return that.playerB
	default:
		return ""
	}
}

// RecordOutcome - updates the counters for the finished round. It mutates only once per round;
// the second call, or a call before the round is over, returns false.
func (that *Board) RecordOutcome() (Outcome, bool) {
	if that.recorded {
		return OutcomeNone, false
	}

	var outcome Outcome

	switch mark := that.winningMark(); {
	case mark != Empty && that.ownMark() == mark:
		that.stats.Wins++
		that.result = that.local + " win!"
		outcome = OutcomeWin
	case mark != Empty:
		that.stats.Losses++
		that.result = that.local + " lose!"
		outcome = OutcomeLoss
	case that.IsFull():
		that.stats.Ties++
		that.result = TieResult
		outcome = OutcomeTie
	default:
		return OutcomeNone, false
	}

	that.recorded = true

	return outcome, true
}

func (that *Board) ownMark() Mark {
	if that.local == that.playerA {
		return MarkA
	}
	return MarkB
}

// Reset - clears the grid and the last move. Counters and names survive.
func (that *Board) Reset() {
	that.grid = [BoardSize][BoardSize]Mark{}
	that.lastX, that.lastY = 0, 0
	that.hasLast = false
	that.recorded = false
}

func (that *Board) Cell(x, y int) Mark {
	if x < 1 || x > BoardSize || y < 1 || y > BoardSize {
		return Empty
	}
	return that.grid[x-1][y-1]
}

// Grid - returns a copy of the grid, indexed from 0.
func (that *Board) Grid() [BoardSize][BoardSize]Mark {
	return that.grid
}

// LastMove - returns the 1-indexed coordinates of the last mark, ok is false before the first move.
func (that *Board) LastMove() (x, y int, ok bool) {
	if !that.hasLast {
		return 0, 0, false
	}
	return that.lastX + 1, that.lastY + 1, true
}

// MarkCount - number of non-empty slots.
func (that *Board) MarkCount() int {
	count := 0
	for _, row := range that.grid {
		for _, cell := range row {
			if cell != Empty {
				count++
			}
		}
	}
	return count
}

func (that *Board) LastPlayer() string { return that.lastPlayer }
func (that *Board) PlayerA() string { return that.playerA }
func (that *Board) PlayerB() string { return that.playerB }
func (that *Board) Local() string { return that.local }
func (that *Board) Stats() Stats { return that.stats }
func (that *Board) Result() string { return that.result }

// GamesPlayed - number of finished rounds.
func (that *Board) GamesPlayed() int {
	return that.stats.Wins + that.stats.Losses + that.stats.Ties
}
