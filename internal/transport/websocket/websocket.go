// Package websocket carries the game over a websocket, one text message per game message.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/net/netutil"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/transport"
)

// Path is the route the acceptor upgrades on.
const Path = "/play"

const (
	defaultTimeout = 10 * time.Second
	closeWait      = time.Second
)

type Conn struct {
	ws *websocket.Conn

	closeOnce sync.Once
	closed    atomic.Bool
}

func newConn(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(protocol.MaxMessageSize)

	return &Conn{ws: ws}
}

func (that *Conn) Send(msg string) error {
	if err := that.ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrSendFailed, err)
	}

	return nil
}

func (that *Conn) Receive() (string, error) {
	msgType, data, err := that.ws.ReadMessage()
	if err != nil {
		return "", that.readError(err)
	}

	if msgType != websocket.TextMessage {
		return "", fmt.Errorf("%w: unexpected binary message", apperror.ErrProtocol)
	}

	return string(data), nil
}

func (that *Conn) readError(err error) error {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		return fmt.Errorf("%w: message exceeds %d bytes", apperror.ErrProtocol, protocol.MaxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure):
		return io.EOF
	case that.closed.Load() || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF):
		return io.EOF
	default:
		return fmt.Errorf("%w: %w", apperror.ErrReceiveFailed, err)
	}
}

// Close - says goodbye with a close frame when the peer is still there, then drops the connection.
func (that *Conn) Close() error {
	var err error

	that.closeOnce.Do(func() {
		that.closed.Store(true)

		bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = that.ws.WriteControl(websocket.CloseMessage, bye, time.Now().Add(closeWait))

		err = that.ws.Close()
	})

	return err
}

func (that *Conn) RemoteAddr() string {
	return that.ws.RemoteAddr().String()
}

type Dialer struct {
	timeout time.Duration
}

func NewDialer(timeout time.Duration) *Dialer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Dialer{timeout: timeout}
}

func (that *Dialer) Dial(ctx context.Context, host, port string) (transport.Channel, error) {
	addr, err := transport.Address(host, port, true)
	if err != nil {
		return nil, err
	}

	target := url.URL{Scheme: "ws", Host: addr, Path: Path}

	dialer := websocket.Dialer{
		NetDialContext:   (&net.Dialer{Timeout: that.timeout}).DialContext,
		HandshakeTimeout: that.timeout,
	}

	ws, resp, err := dialer.DialContext(ctx, target.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrConnectFailed, err)
	}

	return newConn(ws), nil
}

// Listener serves the upgrade route and hands upgraded peers to Accept, one live peer at a time.
type Listener struct {
	logger   *slog.Logger
	ln       net.Listener
	srv      *http.Server
	upgrader websocket.Upgrader

	conns     chan *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func Listen(logger *slog.Logger, host, port string) (*Listener, error) {
	addr, err := transport.Address(host, port, false)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrBindFailed, err)
	}

	listener := &Listener{
		logger: logger.With("component", "websocket-listener"),
		ln:     ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  protocol.MaxMessageSize,
			WriteBufferSize: protocol.MaxMessageSize,
			// peers are game clients, not browsers
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(chan *websocket.Conn),
		done:  make(chan struct{}),
	}

	router := httprouter.New()
	router.GET(Path, listener.handlePlay)

	listener.srv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: defaultTimeout,
	}

	go func() {
		if serveErr := listener.srv.Serve(netutil.LimitListener(ln, 1)); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			listener.logger.Error("websocket listener stopped", "error", serveErr)
		}
	}()

	return listener, nil
}

// handlePlay - upgrades the request and waits until Accept picks the peer up.
func (that *Listener) handlePlay(writer http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	log := that.logger.With("method", "handlePlay")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	select {
	case that.conns <- ws:
		log.Info("peer connected", "remote", ws.RemoteAddr().String())
	case <-that.done:
		_ = ws.Close()
	}
}

func (that *Listener) Accept(ctx context.Context) (transport.Channel, error) {
	select {
	case ws := <-that.conns:
		return newConn(ws), nil
	case <-that.done:
		return nil, fmt.Errorf("failed to accept: %w", net.ErrClosed)
	case <-ctx.Done():
		_ = that.Close()
		return nil, ctx.Err()
	}
}

func (that *Listener) Addr() string {
	return that.ln.Addr().String()
}

func (that *Listener) Close() error {
	var err error

	that.closeOnce.Do(func() {
		close(that.done)
		err = that.srv.Close()
	})

	return err
}
