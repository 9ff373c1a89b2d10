package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "Alice"
	bob   = "Bob"
)

type move struct {
	player string
	x, y   int
}

func play(t *testing.T, board *Board, moves ...move) {
	t.Helper()

	for _, m := range moves {
		require.NoError(t, board.ApplyMove(m.player, m.x, m.y))
	}
}

func TestBoard_ApplyMove(t *testing.T) {
	t.Run("Marks the slot with the player's mark", func(t *testing.T) {
		// Given: a new board
		board := NewBoard(alice, bob, alice)

		// When: both players move
		play(t, board, move{alice, 1, 1}, move{bob, 3, 2})

		// Then: each slot holds its owner's mark and the last move is Bob's
		assert.Equal(t, MarkA, board.Cell(1, 1))
		assert.Equal(t, MarkB, board.Cell(3, 2))
		assert.Equal(t, bob, board.LastPlayer())

		x, y, ok := board.LastMove()
		require.True(t, ok)
		assert.Equal(t, 3, x)
		assert.Equal(t, 2, y)
	})

	t.Run("Error on occupied slot", func(t *testing.T) {
		// Given: a board where Alice holds the center
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 2, 2})

		// When: Bob tries the same slot
		err := board.ApplyMove(bob, 2, 2)

		// Then: ErrInvalidMove is returned and the slot still belongs to Alice
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, MarkA, board.Cell(2, 2))
		assert.Equal(t, alice, board.LastPlayer())
	})

	t.Run("Error on out of range slot", func(t *testing.T) {
		board := NewBoard(alice, bob, alice)

		for _, slot := range [][2]int{{0, 1}, {1, 0}, {4, 1}, {1, 4}, {-1, -1}} {
			err := board.ApplyMove(alice, slot[0], slot[1])
			assert.ErrorIs(t, err, apperror.ErrInvalidMove, "slot %v", slot)
		}

		_, _, ok := board.LastMove()
		assert.False(t, ok)
		assert.Zero(t, board.MarkCount())
	})

	t.Run("Mark count equals applied moves", func(t *testing.T) {
		// Given: a sequence of alternating moves including rejected ones
		board := NewBoard(alice, bob, alice)
		attempts := []move{
			{alice, 1, 1}, {bob, 1, 1}, {bob, 1, 2}, {alice, 1, 2},
			{alice, 2, 2}, {bob, 3, 3}, {alice, 3, 3}, {alice, 2, 1},
		}

		// When: every attempt is applied
		applied := 0
		for _, m := range attempts {
			if board.ApplyMove(m.player, m.x, m.y) == nil {
				applied++
			}
		}

		// Then: only the successful moves are on the grid
		assert.Equal(t, 5, applied)
		assert.Equal(t, applied, board.MarkCount())
	})
}

func TestBoard_IsWinner(t *testing.T) {
	t.Run("Top row is a win only once completed", func(t *testing.T) {
		// Given: A(1,1), B(2,1), A(1,2), B(2,2)
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 1, 1}, move{bob, 2, 1}, move{alice, 1, 2}, move{bob, 2, 2})

		// Then: nobody has won yet
		assert.False(t, board.IsWinner())

		// When: A completes the top row
		play(t, board, move{alice, 1, 3})

		// Then: the win is detected and belongs to Alice
		assert.True(t, board.IsWinner())
		assert.Equal(t, alice, board.Winner())
	})

	t.Run("Column win", func(t *testing.T) {
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 1, 1}, move{bob, 1, 3}, move{alice, 2, 2}, move{bob, 2, 3}, move{alice, 3, 1}, move{bob, 3, 3})

		assert.True(t, board.IsWinner())
		assert.Equal(t, bob, board.Winner())
	})

	t.Run("Diagonal win through the center", func(t *testing.T) {
		// Given: Alice holds both corners of the main diagonal
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 1, 1}, move{bob, 1, 2}, move{alice, 3, 3}, move{bob, 1, 3})
		assert.False(t, board.IsWinner())

		// When: Alice takes the center
		play(t, board, move{alice, 2, 2})

		// Then: the diagonal wins
		assert.True(t, board.IsWinner())
	})

	t.Run("Anti-diagonal win", func(t *testing.T) {
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 3, 1}, move{bob, 1, 1}, move{alice, 2, 2}, move{bob, 2, 1}, move{alice, 1, 3})

		assert.True(t, board.IsWinner())
	})

	t.Run("Diagonal needs the center", func(t *testing.T) {
		// Given: corners taken, center empty
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 1, 1}, move{bob, 2, 1}, move{alice, 3, 3})

		// Then: no win is reported
		assert.False(t, board.IsWinner())
	})

	t.Run("No last move", func(t *testing.T) {
		board := NewBoard(alice, bob, alice)

		assert.False(t, board.IsWinner())
		assert.Equal(t, "", board.Winner())
	})

	t.Run("Query has no side effects", func(t *testing.T) {
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 1, 1}, move{bob, 2, 1}, move{alice, 1, 2}, move{bob, 2, 2}, move{alice, 1, 3})

		for range 3 {
			assert.True(t, board.IsWinner())
		}

		assert.Equal(t, Stats{}, board.Stats())
		assert.Empty(t, board.Result())
	})
}

// fillTie plays a full board with no line: X O X / X O O / O X X.
func fillTie(t *testing.T, board *Board, last bool) {
	t.Helper()

	moves := []move{
		{alice, 1, 1}, {bob, 1, 2}, {alice, 1, 3},
		{bob, 2, 2}, {alice, 2, 1}, {bob, 2, 3},
		{alice, 3, 2}, {bob, 3, 1},
	}
	if last {
		moves = append(moves, move{alice, 3, 3})
	}

	play(t, board, moves...)
}

func TestBoard_IsFull(t *testing.T) {
	t.Run("One empty slot is not full", func(t *testing.T) {
		// Given: a board with a single empty slot
		board := NewBoard(alice, bob, alice)
		fillTie(t, board, false)

		// Then: it is not full
		assert.False(t, board.IsFull())
		assert.False(t, board.IsWinner())
	})

	t.Run("Full board records exactly one tie", func(t *testing.T) {
		// Given: a fully occupied board without a line
		board := NewBoard(alice, bob, alice)
		fillTie(t, board, true)

		// When: the outcome is recorded twice
		require.True(t, board.IsFull())
		require.False(t, board.IsWinner())
		outcome, ok := board.RecordOutcome()
		_, again := board.RecordOutcome()

		// Then: the tie is counted once
		require.True(t, ok)
		assert.False(t, again)
		assert.Equal(t, OutcomeTie, outcome)
		assert.Equal(t, Stats{Ties: 1}, board.Stats())
		assert.Equal(t, TieResult, board.Result())
	})
}

func TestBoard_RecordOutcome(t *testing.T) {
	winRow := []move{{alice, 1, 1}, {bob, 2, 1}, {alice, 1, 2}, {bob, 2, 2}, {alice, 1, 3}}

	t.Run("Win from the winner's side", func(t *testing.T) {
		board := NewBoard(alice, bob, alice)
		play(t, board, winRow...)

		outcome, ok := board.RecordOutcome()

		require.True(t, ok)
		assert.Equal(t, OutcomeWin, outcome)
		assert.Equal(t, Stats{Wins: 1}, board.Stats())
		assert.Equal(t, "Alice win!", board.Result())
	})

	t.Run("Loss from the other side", func(t *testing.T) {
		board := NewBoard(alice, bob, bob)
		play(t, board, winRow...)

		outcome, ok := board.RecordOutcome()

		require.True(t, ok)
		assert.Equal(t, OutcomeLoss, outcome)
		assert.Equal(t, Stats{Losses: 1}, board.Stats())
		assert.Equal(t, "Bob lose!", board.Result())
	})

	t.Run("Nothing to record mid-round", func(t *testing.T) {
		board := NewBoard(alice, bob, alice)
		play(t, board, move{alice, 1, 1})

		outcome, ok := board.RecordOutcome()

		assert.False(t, ok)
		assert.Equal(t, OutcomeNone, outcome)
		assert.Equal(t, Stats{}, board.Stats())
	})
}

func TestBoard_Reset(t *testing.T) {
	// Given: a finished and recorded round
	board := NewBoard(alice, bob, alice)
	play(t, board, move{alice, 1, 1}, move{bob, 2, 1}, move{alice, 1, 2}, move{bob, 2, 2}, move{alice, 1, 3})
	_, ok := board.RecordOutcome()
	require.True(t, ok)

	// When: the board is reset
	board.Reset()

	// Then: the grid is clear, counters and names survive, and the next round can be recorded
	assert.Zero(t, board.MarkCount())
	assert.False(t, board.IsWinner())
	_, _, hasLast := board.LastMove()
	assert.False(t, hasLast)
	assert.Equal(t, Stats{Wins: 1}, board.Stats())
	assert.Equal(t, 1, board.GamesPlayed())
	assert.Equal(t, alice, board.PlayerA())
	assert.Equal(t, bob, board.PlayerB())

	play(t, board, move{bob, 3, 1}, move{alice, 1, 1}, move{bob, 3, 2}, move{alice, 1, 2}, move{bob, 3, 3})
	outcome, ok := board.RecordOutcome()
	require.True(t, ok)
	assert.Equal(t, OutcomeLoss, outcome)
	assert.Equal(t, 2, board.GamesPlayed())
}
