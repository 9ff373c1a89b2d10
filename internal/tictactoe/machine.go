package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/protocol"
)

// Machine coordinates the turns of one connection. Both roles share it;
// they differ only in who moves first and who decides on a rematch.
// It is not safe for concurrent use: the session worker owns it.
type Machine struct {
	role   entity.Role
	local  string
	remote string
	board  *entity.Board
	state  entity.State

	outcome entity.Outcome
}

// NewMachine - builds the board for the two players and enters the role's first state.
// The initiator's player holds MarkA.
func NewMachine(role entity.Role, local, remote string) *Machine {
	playerA, playerB := local, remote
	if role == entity.RoleAcceptor {
		playerA, playerB = remote, local
	}

	machine := &Machine{
		role:   role,
		local:  local,
		remote: remote,
		board:  entity.NewBoard(playerA, playerB, local),
	}
	machine.state = machine.roundStart()

	return machine
}

func (that *Machine) roundStart() entity.State {
	if that.role == entity.RoleInitiator {
		return entity.StateAwaitingLocalMove
	}
	return entity.StateAwaitingRemoteMove
}

func (that *Machine) State() entity.State { return that.state }
func (that *Machine) Role() entity.Role { return that.role }
func (that *Machine) Board() *entity.Board { return that.board }
func (that *Machine) Local() string { return that.local }
func (that *Machine) Remote() string { return that.remote }
func (that *Machine) Outcome() entity.Outcome { return that.outcome }

// LocalMove - applies the local player's move and returns the text to send.
// A rejected move leaves the machine untouched and nothing must be sent.
func (that *Machine) LocalMove(x, y int) (string, error) {
	if that.state != entity.StateAwaitingLocalMove {
		return "", fmt.Errorf("%w: session is %s", apperror.ErrNotYourTurn, that.state)
	}

	if err := that.board.ApplyMove(that.local, x, y); err != nil {
		return "", fmt.Errorf("failed to apply local move: %w", err)
	}

	that.afterMove(entity.StateAwaitingRemoteMove)

	return protocol.EncodeMove(x, y), nil
}

// HandleRemote - consumes one message from the peer. Any message the current state
// does not expect is a protocol error and terminates the machine.
func (that *Machine) HandleRemote(text string) error {
	switch {
	case that.state == entity.StateAwaitingRemoteMove:
		return that.remoteMove(text)
	case that.state == entity.StateAwaitingReplayDecision && that.role == entity.RoleAcceptor:
		that.replayToken(text)
		return nil
	default:
		err := fmt.Errorf("%w: unexpected message %q while %s", apperror.ErrProtocol, text, that.state)
		that.state = entity.StateTerminated
		return err
	}
}

func (that *Machine) remoteMove(text string) error {
	move := protocol.DecodeMove(text)
	if move.IsInvalid() {
		that.state = entity.StateTerminated
		return fmt.Errorf("%w: %q is not a move", apperror.ErrProtocol, text)
	}

	if err := that.board.ApplyMove(that.remote, move.X, move.Y); err != nil {
		that.state = entity.StateTerminated
		return fmt.Errorf("%w: peer sent %s: %w", apperror.ErrProtocol, move, err)
	}

	that.afterMove(entity.StateAwaitingLocalMove)

	return nil
}

// replayToken - the acceptor learns the initiator's decision. Anything but a replay request ends the match.
func (that *Machine) replayToken(text string) {
	if text == protocol.ReplayRequest {
		that.startRound()
		return
	}

	that.state = entity.StateListening
}

func (that *Machine) afterMove(next entity.State) {
	if !that.board.IsRoundOver() {
		that.state = next
		return
	}

	that.outcome, _ = that.board.RecordOutcome()
	that.state = entity.StateRoundOver
}

// ConcludeRound - moves a decided round on to the rematch negotiation.
func (that *Machine) ConcludeRound() {
	if that.state == entity.StateRoundOver {
		that.state = entity.StateAwaitingReplayDecision
	}
}

// ReplayDecision - the initiator's answer to "play again?". It returns the token to send.
func (that *Machine) ReplayDecision(again bool) (string, error) {
	if that.role != entity.RoleInitiator || that.state != entity.StateAwaitingReplayDecision {
		return "", fmt.Errorf("%w: no replay decision is pending", apperror.ErrNotYourTurn)
	}

	if again {
		that.startRound()
		return protocol.ReplayRequest, nil
	}

	that.state = entity.StateTerminated

	return protocol.ReplayDecline, nil
}

func (that *Machine) startRound() {
	that.board.Reset()
	that.outcome = entity.OutcomeNone
	that.state = that.roundStart()
}

// Disconnect - the peer went away. The acceptor goes back to listening, the initiator is done.
func (that *Machine) Disconnect() {
	if that.role == entity.RoleAcceptor {
		that.state = entity.StateListening
		return
	}
	that.state = entity.StateTerminated
}

// Terminate - the session is being shut down.
func (that *Machine) Terminate() {
	that.state = entity.StateTerminated
}

// TurnLabel - "<name>'s turn" for whoever is expected to move, empty otherwise.
func (that *Machine) TurnLabel() string {
	switch that.state {
	case entity.StateAwaitingLocalMove:
		return that.local + "'s turn"
	case entity.StateAwaitingRemoteMove:
		return that.remote + "'s turn"
	default:
		return ""
	}
}
