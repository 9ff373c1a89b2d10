// Package protocol holds the text messages exchanged by the two players.
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
)

const (
	ReplayRequest = "Play Again"
	ReplayDecline = "Fun Times"

	// MaxMessageSize is the ceiling of a single logical message in bytes.
	MaxMessageSize = 1024
)

// Move is a slot on the board, 1-indexed.
type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InvalidMove is what DecodeMove returns for text that is not a move.
var InvalidMove = Move{X: -1, Y: -1}

func (that Move) IsInvalid() bool {
	return that == InvalidMove
}

func (that Move) String() string {
	return EncodeMove(that.X, that.Y)
}

// EncodeMove - produces the wire form "<x>,<y>".
func EncodeMove(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

// DecodeMove - parses "<x>,<y>". Range checks are left to the board.
func DecodeMove(text string) Move {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return InvalidMove
	}

	x, ok := parseDigits(parts[0])
	if !ok {
		return InvalidMove
	}

	y, ok := parseDigits(parts[1])
	if !ok {
		return InvalidMove
	}

	return Move{X: x, Y: y}
}

func parseDigits(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !isDigits(s) {
		return 0, false
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		// too many digits for an int; still not a move
		return 0, false
	}

	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// ValidateName - a name is sent as one frame, so it can't be empty, too long or span lines.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", apperror.ErrInvalidName)
	case len(name) > MaxMessageSize:
		return fmt.Errorf("%w: name is longer than %d bytes", apperror.ErrInvalidName, MaxMessageSize)
	case strings.ContainsAny(name, "\r\n"):
		return fmt.Errorf("%w: name contains a line break", apperror.ErrInvalidName)
	}

	return nil
}

// ValidatePort - a port is accepted when it consists of decimal digits only.
func ValidatePort(port string) error {
	if !isDigits(port) {
		return fmt.Errorf("%w: port %q is not a number", apperror.ErrInvalidAddress, port)
	}
	return nil
}
