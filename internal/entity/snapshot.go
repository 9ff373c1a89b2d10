package entity

// Snapshot is what a display needs to draw one moment of a session.
// It is a copy; holding on to it never touches the live board.
type Snapshot struct {
	SessionID   string                     `json:"session_id,omitempty"`
	Role        Role                       `json:"role"`
	State       State                      `json:"state"`
	Grid        [BoardSize][BoardSize]Mark `json:"grid"`
	Local       string                     `json:"local"`
	Remote      string                     `json:"remote,omitempty"`
	Turn        string                     `json:"turn,omitempty"`
	Result      string                     `json:"result,omitempty"`
	Stats       Stats                      `json:"stats"`
	GamesPlayed int                        `json:"games_played"`
	Error       string                     `json:"error,omitempty"`
}

// Connected - a peer is on the other end of the session.
func (that Snapshot) Connected() bool {
	return that.Remote != "" && that.State != StateListening && that.State != StateTerminated
}

// Playable - the local player may put a mark.
func (that Snapshot) Playable() bool {
	return that.State == StateAwaitingLocalMove
}

// DecisionPending - the local player must answer "play again?".
func (that Snapshot) DecisionPending() bool {
	return that.State == StateAwaitingReplayDecision && that.Role == RoleInitiator
}
