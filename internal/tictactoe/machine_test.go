package tictactoe

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair replays the same game on both sides, passing each wire message across.
type pair struct {
	t         *testing.T
	initiator *Machine
	acceptor  *Machine
}

func newPair(t *testing.T) *pair {
	return &pair{
		t:         t,
		initiator: NewMachine(entity.RoleInitiator, "Alice", "Bob"),
		acceptor:  NewMachine(entity.RoleAcceptor, "Bob", "Alice"),
	}
}

func (that *pair) alice(x, y int) {
	that.t.Helper()

	wire, err := that.initiator.LocalMove(x, y)
	require.NoError(that.t, err)
	require.NoError(that.t, that.acceptor.HandleRemote(wire))
}

func (that *pair) bob(x, y int) {
	that.t.Helper()

	wire, err := that.acceptor.LocalMove(x, y)
	require.NoError(that.t, err)
	require.NoError(that.t, that.initiator.HandleRemote(wire))
}

func (that *pair) conclude() {
	that.initiator.ConcludeRound()
	that.acceptor.ConcludeRound()
}

func TestNewMachine(t *testing.T) {
	t.Run("Initiator moves first", func(t *testing.T) {
		machine := NewMachine(entity.RoleInitiator, "Alice", "Bob")

		assert.Equal(t, entity.StateAwaitingLocalMove, machine.State())
		assert.Equal(t, "Alice", machine.Board().PlayerA())
		assert.Equal(t, "Alice's turn", machine.TurnLabel())
	})

	t.Run("Acceptor waits for the peer", func(t *testing.T) {
		machine := NewMachine(entity.RoleAcceptor, "Bob", "Alice")

		assert.Equal(t, entity.StateAwaitingRemoteMove, machine.State())
		assert.Equal(t, "Alice", machine.Board().PlayerA())
		assert.Equal(t, "Bob", machine.Board().PlayerB())
		assert.Equal(t, "Alice's turn", machine.TurnLabel())
	})
}

func TestMachine_Turns(t *testing.T) {
	t.Run("Moves alternate", func(t *testing.T) {
		// Given: a fresh game
		p := newPair(t)

		// When: Alice moves
		p.alice(1, 1)

		// Then: each side waits for the right player
		assert.Equal(t, entity.StateAwaitingRemoteMove, p.initiator.State())
		assert.Equal(t, entity.StateAwaitingLocalMove, p.acceptor.State())
		assert.Equal(t, entity.MarkA, p.acceptor.Board().Cell(1, 1))

		// When: Bob answers
		p.bob(2, 2)

		// Then: it's Alice's turn again on both sides
		assert.Equal(t, entity.StateAwaitingLocalMove, p.initiator.State())
		assert.Equal(t, entity.StateAwaitingRemoteMove, p.acceptor.State())
		assert.Equal(t, entity.MarkB, p.initiator.Board().Cell(2, 2))
	})

	t.Run("Out of turn local move is rejected", func(t *testing.T) {
		p := newPair(t)
		p.alice(1, 1)

		_, err := p.initiator.LocalMove(2, 2)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, entity.StateAwaitingRemoteMove, p.initiator.State())
		assert.Equal(t, 1, p.initiator.Board().MarkCount())
	})

	t.Run("Invalid local move leaves the state alone", func(t *testing.T) {
		p := newPair(t)
		p.alice(1, 1)
		p.bob(2, 2)

		_, err := p.initiator.LocalMove(2, 2)
		require.ErrorIs(t, err, apperror.ErrInvalidMove)

		_, err = p.initiator.LocalMove(4, 1)
		require.ErrorIs(t, err, apperror.ErrInvalidMove)

		assert.Equal(t, entity.StateAwaitingLocalMove, p.initiator.State())
	})
}

func TestMachine_RoundOver(t *testing.T) {
	t.Run("Top row win", func(t *testing.T) {
		// Given: A(1,1), B(2,1), A(1,2), B(2,2)
		p := newPair(t)
		p.alice(1, 1)
		p.bob(2, 1)
		p.alice(1, 2)
		p.bob(2, 2)

		// When: Alice completes the top row
		p.alice(1, 3)

		// Then: both sides are over, with opposite outcomes
		assert.Equal(t, entity.StateRoundOver, p.initiator.State())
		assert.Equal(t, entity.StateRoundOver, p.acceptor.State())
		assert.Equal(t, entity.OutcomeWin, p.initiator.Outcome())
		assert.Equal(t, entity.OutcomeLoss, p.acceptor.Outcome())
		assert.Equal(t, entity.Stats{Wins: 1}, p.initiator.Board().Stats())
		assert.Equal(t, entity.Stats{Losses: 1}, p.acceptor.Board().Stats())
		assert.Empty(t, p.initiator.TurnLabel())

		// When: the round is concluded
		p.conclude()

		// Then: both wait for the rematch decision
		assert.Equal(t, entity.StateAwaitingReplayDecision, p.initiator.State())
		assert.Equal(t, entity.StateAwaitingReplayDecision, p.acceptor.State())
	})

	t.Run("Tie is counted once on each side", func(t *testing.T) {
		p := newPair(t)
		p.alice(1, 1)
		p.bob(1, 2)
		p.alice(1, 3)
		p.bob(2, 2)
		p.alice(2, 1)
		p.bob(2, 3)
		p.alice(3, 2)
		p.bob(3, 1)
		p.alice(3, 3)

		assert.Equal(t, entity.OutcomeTie, p.initiator.Outcome())
		assert.Equal(t, entity.Stats{Ties: 1}, p.initiator.Board().Stats())
		assert.Equal(t, entity.Stats{Ties: 1}, p.acceptor.Board().Stats())
	})
}

func playWinningRound(p *pair) {
	p.alice(1, 1)
	p.bob(2, 1)
	p.alice(1, 2)
	p.bob(2, 2)
	p.alice(1, 3)
	p.conclude()
}

func TestMachine_Replay(t *testing.T) {
	t.Run("Play again resets both boards and keeps the counters", func(t *testing.T) {
		// Given: a finished round
		p := newPair(t)
		playWinningRound(p)

		// When: Alice asks for a rematch
		token, err := p.initiator.ReplayDecision(true)
		require.NoError(t, err)
		assert.Equal(t, protocol.ReplayRequest, token)
		require.NoError(t, p.acceptor.HandleRemote(token))

		// Then: the boards are clear, Alice moves first again, counters are intact
		assert.Equal(t, entity.StateAwaitingLocalMove, p.initiator.State())
		assert.Equal(t, entity.StateAwaitingRemoteMove, p.acceptor.State())
		assert.Zero(t, p.acceptor.Board().MarkCount())
		assert.Equal(t, entity.Stats{Losses: 1}, p.acceptor.Board().Stats())
		assert.Equal(t, entity.OutcomeNone, p.acceptor.Outcome())
	})

	t.Run("Decline terminates the initiator and frees the acceptor", func(t *testing.T) {
		p := newPair(t)
		playWinningRound(p)

		token, err := p.initiator.ReplayDecision(false)
		require.NoError(t, err)
		assert.Equal(t, protocol.ReplayDecline, token)
		require.NoError(t, p.acceptor.HandleRemote(token))

		assert.Equal(t, entity.StateTerminated, p.initiator.State())
		assert.Equal(t, entity.StateListening, p.acceptor.State())
		assert.True(t, p.initiator.State().IsFinal())
		assert.True(t, p.acceptor.State().IsFinal())
	})

	t.Run("Any other token ends the match", func(t *testing.T) {
		p := newPair(t)
		playWinningRound(p)

		require.NoError(t, p.acceptor.HandleRemote("bye"))

		assert.Equal(t, entity.StateListening, p.acceptor.State())
	})

	t.Run("Acceptor can't decide", func(t *testing.T) {
		p := newPair(t)
		playWinningRound(p)

		_, err := p.acceptor.ReplayDecision(true)

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("No decision mid-round", func(t *testing.T) {
		p := newPair(t)

		_, err := p.initiator.ReplayDecision(true)

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, entity.StateAwaitingLocalMove, p.initiator.State())
	})
}

func TestMachine_ProtocolErrors(t *testing.T) {
	t.Run("Malformed move", func(t *testing.T) {
		machine := NewMachine(entity.RoleAcceptor, "Bob", "Alice")

		err := machine.HandleRemote("a,b")

		require.ErrorIs(t, err, apperror.ErrProtocol)
		assert.Equal(t, entity.StateTerminated, machine.State())
		assert.Zero(t, machine.Board().MarkCount())
	})

	t.Run("Out of range move", func(t *testing.T) {
		machine := NewMachine(entity.RoleAcceptor, "Bob", "Alice")

		err := machine.HandleRemote("4,1")

		require.ErrorIs(t, err, apperror.ErrProtocol)
		assert.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, entity.StateTerminated, machine.State())
	})

	t.Run("Occupied slot", func(t *testing.T) {
		p := newPair(t)
		p.alice(2, 2)

		err := p.initiator.HandleRemote("2,2")

		require.ErrorIs(t, err, apperror.ErrProtocol)
		assert.Equal(t, entity.StateTerminated, p.initiator.State())
	})

	t.Run("Message during the local turn", func(t *testing.T) {
		machine := NewMachine(entity.RoleInitiator, "Alice", "Bob")

		err := machine.HandleRemote("1,1")

		require.ErrorIs(t, err, apperror.ErrProtocol)
		assert.Contains(t, err.Error(), entity.StateAwaitingLocalMove.String())
		assert.Equal(t, entity.StateTerminated, machine.State())
	})

	t.Run("Initiator does not expect a replay token", func(t *testing.T) {
		p := newPair(t)
		playWinningRound(p)

		err := p.initiator.HandleRemote(protocol.ReplayRequest)

		assert.ErrorIs(t, err, apperror.ErrProtocol)
	})
}

func TestMachine_Disconnect(t *testing.T) {
	initiator := NewMachine(entity.RoleInitiator, "Alice", "Bob")
	acceptor := NewMachine(entity.RoleAcceptor, "Bob", "Alice")

	initiator.Disconnect()
	acceptor.Disconnect()

	assert.Equal(t, entity.StateTerminated, initiator.State())
	assert.Equal(t, entity.StateListening, acceptor.State())
}
