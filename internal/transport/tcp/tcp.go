// Package tcp carries the game over a plain TCP stream, one message per line.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/transport"
)

const DefaultDialTimeout = 10 * time.Second

// Conn is a transport.Channel over a TCP connection. Messages are terminated by '\n'.
type Conn struct {
	conn    net.Conn
	scanner *bufio.Scanner

	closeOnce sync.Once
	closed    atomic.Bool
}

func NewConn(conn net.Conn) *Conn {
	scanner := bufio.NewScanner(conn)
	// room for the longest message plus "\r\n"
	scanner.Buffer(make([]byte, 0, 64), protocol.MaxMessageSize+2)

	return &Conn{
		conn:    conn,
		scanner: scanner,
	}
}

// Send - writes msg as one line.
func (that *Conn) Send(msg string) error {
	if strings.ContainsAny(msg, "\r\n") {
		return fmt.Errorf("%w: message contains a line break", apperror.ErrProtocol)
	}

	if _, err := io.WriteString(that.conn, msg+"\n"); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrSendFailed, err)
	}

	return nil
}

// Receive - reads the next line.
func (that *Conn) Receive() (string, error) {
	if that.scanner.Scan() {
		text := that.scanner.Text()
		if len(text) > protocol.MaxMessageSize {
			return "", fmt.Errorf("%w: message exceeds %d bytes", apperror.ErrProtocol, protocol.MaxMessageSize)
		}
		return text, nil
	}

	err := that.scanner.Err()

	switch {
	case err == nil:
		return "", io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return "", fmt.Errorf("%w: message exceeds %d bytes", apperror.ErrProtocol, protocol.MaxMessageSize)
	case errors.Is(err, net.ErrClosed) || that.closed.Load():
		return "", io.EOF
	default:
		return "", fmt.Errorf("%w: %w", apperror.ErrReceiveFailed, err)
	}
}

func (that *Conn) Close() error {
	var err error

	that.closeOnce.Do(func() {
		that.closed.Store(true)
		err = that.conn.Close()
	})

	return err
}

func (that *Conn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}

// Dialer connects to an acceptor.
type Dialer struct {
	timeout time.Duration
}

func NewDialer(timeout time.Duration) *Dialer {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	return &Dialer{timeout: timeout}
}

func (that *Dialer) Dial(ctx context.Context, host, port string) (transport.Channel, error) {
	addr, err := transport.Address(host, port, true)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: that.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrConnectFailed, err)
	}

	return NewConn(conn), nil
}

// Listener accepts acceptor-side connections. At most one accepted connection
// is alive at a time; further peers wait in the kernel queue until it closes.
type Listener struct {
	ln        net.Listener
	closeOnce sync.Once
}

// Listen - binds the port on host (empty host means every local address).
func Listen(host, port string) (*Listener, error) {
	addr, err := transport.Address(host, port, false)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrBindFailed, err)
	}

	return &Listener{ln: netutil.LimitListener(ln, 1)}, nil
}

type acceptResult struct {
	conn net.Conn
	err  error
}

// Accept - waits for the next peer. Cancelling ctx closes the listener.
func (that *Listener) Accept(ctx context.Context) (transport.Channel, error) {
	results := make(chan acceptResult, 1)

	go func() {
		conn, err := that.ln.Accept()
		results <- acceptResult{conn: conn, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, fmt.Errorf("failed to accept: %w", res.err)
		}
		return NewConn(res.conn), nil
	case <-ctx.Done():
		_ = that.Close()
		if res := <-results; res.conn != nil {
			_ = res.conn.Close()
		}
		return nil, ctx.Err()
	}
}

func (that *Listener) Addr() string {
	return that.ln.Addr().String()
}

func (that *Listener) Close() error {
	var err error

	that.closeOnce.Do(func() {
		err = that.ln.Close()
	})

	return err
}
