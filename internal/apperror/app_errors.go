package apperror

import "errors"

var (
	ErrConnectFailed  = errors.New("connect failed")
	ErrBindFailed     = errors.New("bind failed")
	ErrInvalidAddress = errors.New("invalid address")
	ErrSendFailed     = errors.New("send failed")
	ErrReceiveFailed  = errors.New("receive failed")
	ErrInvalidMove    = errors.New("invalid move")
	ErrProtocol       = errors.New("protocol error")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrSessionClosed  = errors.New("session is closed")
	ErrInvalidName    = errors.New("invalid player name")

	ErrPeerDisconnected = errors.New("peer disconnected")
)

// IsSetupError - reports whether err happened while establishing the connection.
// Such errors are recoverable: the caller may retry with new parameters.
func IsSetupError(err error) bool {
	return errors.Is(err, ErrConnectFailed) ||
		errors.Is(err, ErrBindFailed) ||
		errors.Is(err, ErrInvalidAddress)
}
