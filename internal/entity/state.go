package entity

import "fmt"

// State says whose action the session waits for.
type State int

const (
	// StateListening - the acceptor has no peer and waits for one to connect.
	StateListening State = iota
	StateAwaitingLocalMove
	StateAwaitingRemoteMove
	// StateRoundOver - the round has just been decided; the outcome is recorded.
	StateRoundOver
	// StateAwaitingReplayDecision - the initiator's player chooses, the acceptor waits for the peer's token.
	StateAwaitingReplayDecision
	StateTerminated
	// StateConnecting - the initiator is dialing and exchanging names.
	StateConnecting
)

var stateNames = map[State]string{
	StateListening:              "listening",
	StateAwaitingLocalMove:      "awaiting_local_move",
	StateAwaitingRemoteMove:     "awaiting_remote_move",
	StateRoundOver:              "round_over",
	StateAwaitingReplayDecision: "awaiting_replay_decision",
	StateTerminated:             "terminated",
	StateConnecting:             "connecting",
}

func (that State) String() string {
	if name, ok := stateNames[that]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(that))
}

// IsFinal - the connection is over once the machine reaches one of these.
func (that State) IsFinal() bool {
	return that == StateTerminated || that == StateListening
}

func (that State) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*that = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}
