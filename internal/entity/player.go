package entity

import "fmt"

// Role tells which side of the connection a player sits on.
type Role int

const (
	// RoleInitiator connects out and moves first.
	RoleInitiator Role = iota
	// RoleAcceptor listens for the peer and answers its first move.
	RoleAcceptor
)

func (that Role) String() string {
	switch that {
	case RoleInitiator:
		return "initiator"
	case RoleAcceptor:
		return "acceptor"
	default:
		return fmt.Sprintf("role(%d)", int(that))
	}
}

func (that Role) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*that = role
	return nil
}

// ParseRole - parses the config/CLI spelling of a role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "initiator", "connect", "player1":
		return RoleInitiator, nil
	case "acceptor", "listen", "player2":
		return RoleAcceptor, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

type Player struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Mark - the initiator always plays MarkA.
func (that Player) Mark() Mark {
	if that.Role == RoleInitiator {
		return MarkA
	}
	return MarkB
}
