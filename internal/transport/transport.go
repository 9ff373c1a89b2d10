// Package transport defines the byte channel the two players talk over
// and the name exchange that opens every connection.
package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/protocol"
)

// Channel carries whole logical messages in both directions.
type Channel interface {
	// Send writes one message. It fails with apperror.ErrSendFailed when the peer is gone.
	Send(msg string) error

	// Receive blocks until the next message arrives. A close by either side
	// is reported as io.EOF, hard I/O faults wrap apperror.ErrReceiveFailed.
	Receive() (string, error)

	// Close releases the connection and unblocks a pending Receive. Safe to call twice.
	Close() error

	RemoteAddr() string
}

// Dialer opens a channel as the initiator.
type Dialer interface {
	Dial(ctx context.Context, host, port string) (Channel, error)
}

// Listener accepts channels as the acceptor, one live peer at a time.
type Listener interface {
	Accept(ctx context.Context) (Channel, error)
	Addr() string
	Close() error
}

// Handshake - exchanges player names. The initiator sends first and then receives,
// the acceptor receives first and then sends, so neither side waits on a silent peer.
func Handshake(ch Channel, role entity.Role, name string) (string, error) {
	if err := protocol.ValidateName(name); err != nil {
		return "", err
	}

	if role == entity.RoleInitiator {
		if err := ch.Send(name); err != nil {
			return "", fmt.Errorf("failed to announce name: %w", err)
		}
	}

	peer, err := ch.Receive()
	if err != nil {
		return "", fmt.Errorf("failed to receive peer name: %w", err)
	}

	if err = protocol.ValidateName(peer); err != nil {
		return "", fmt.Errorf("%w: bad peer name: %w", apperror.ErrProtocol, err)
	}

	if role == entity.RoleAcceptor {
		if err = ch.Send(name); err != nil {
			return "", fmt.Errorf("failed to announce name: %w", err)
		}
	}

	return peer, nil
}

// Address - validates host and port and joins them.
func Address(host, port string, hostRequired bool) (string, error) {
	if hostRequired && host == "" {
		return "", fmt.Errorf("%w: host is empty", apperror.ErrInvalidAddress)
	}

	if err := protocol.ValidatePort(port); err != nil {
		return "", err
	}

	return net.JoinHostPort(host, port), nil
}
