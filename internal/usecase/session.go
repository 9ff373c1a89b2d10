package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/transport"
)

var errHandshake = errors.New("handshake failed")

// Display shows the session to somebody. Render is called from the session worker,
// in order, and must not call back into the session synchronously.
type Display interface {
	Render(snapshot entity.Snapshot)
}

// MultiDisplay - renders every snapshot on each display in turn.
type MultiDisplay []Display

func (that MultiDisplay) Render(snapshot entity.Snapshot) {
	for _, display := range that {
		if display != nil {
			display.Render(snapshot)
		}
	}
}

type eventKind int

const (
	eventMove eventKind = iota
	eventReplay
)

type event struct {
	kind  eventKind
	x, y  int
	again bool
	reply chan error
}

type connection struct {
	channel transport.Channel
	peer    string
	err     error
}

type message struct {
	text string
	err  error
}

// Session plays one role over the network. A single worker goroutine owns the
// turn machine and the board; the UI talks to it only through LocalMove,
// ReplayDecision and Shutdown.
type Session struct {
	logger  *slog.Logger
	role    entity.Role
	name    string
	display Display

	dialer     transport.Dialer
	host, port string
	listener   transport.Listener

	events   chan event
	quit     chan struct{}
	quitOnce sync.Once
	finished chan struct{}
	started  atomic.Bool
}

// NewInitiator - a session that dials host:port once and plays until the match ends.
func NewInitiator(logger *slog.Logger, dialer transport.Dialer, host, port, name string, display Display) *Session {
	session := newSession(logger, entity.RoleInitiator, name, display)
	session.dialer = dialer
	session.host = host
	session.port = port

	return session
}

// NewAcceptor - a session that serves peers from an already bound listener, one at a time,
// until it is shut down. It takes ownership of the listener.
func NewAcceptor(logger *slog.Logger, listener transport.Listener, name string, display Display) *Session {
	session := newSession(logger, entity.RoleAcceptor, name, display)
	session.listener = listener

	return session
}

func newSession(logger *slog.Logger, role entity.Role, name string, display Display) *Session {
	return &Session{
		logger:  logger.With("component", "session", "role", role.String()),
		role:    role,
		name:    name,
		display: display,

		events:   make(chan event),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (that *Session) Role() entity.Role { return that.role }
func (that *Session) Name() string { return that.name }

// Done - closed once Run has returned.
func (that *Session) Done() <-chan struct{} { return that.finished }

// Run - drives the session until it ends. A clean end (decline, peer gone, shutdown)
// returns nil; setup failures and connection faults of the initiator are returned.
// Run may be called only once.
func (that *Session) Run(ctx context.Context) error {
	if !that.started.CompareAndSwap(false, true) {
		return apperror.ErrSessionClosed
	}
	defer close(that.finished)

	if err := protocol.ValidateName(that.name); err != nil {
		if that.listener != nil {
			_ = that.listener.Close()
		}
		that.renderIdle(entity.StateTerminated, err)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-that.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	if that.role == entity.RoleInitiator {
		return that.runInitiator(ctx)
	}

	return that.runAcceptor(ctx)
}

// Shutdown - ends the session whatever it is doing. The connection is closed,
// which also releases a pending receive. Safe to call more than once.
func (that *Session) Shutdown() {
	that.quitOnce.Do(func() {
		close(that.quit)
	})
}

// LocalMove - asks the worker to play (x, y) for the local player. It returns the
// rejection reason when the move is out of turn or invalid.
func (that *Session) LocalMove(ctx context.Context, x, y int) error {
	return that.submit(ctx, event{kind: eventMove, x: x, y: y})
}

// ReplayDecision - the initiator's answer to "play again?".
func (that *Session) ReplayDecision(ctx context.Context, again bool) error {
	return that.submit(ctx, event{kind: eventReplay, again: again})
}

func (that *Session) submit(ctx context.Context, ev event) error {
	ev.reply = make(chan error, 1)

	select {
	case that.events <- ev:
	case <-that.finished:
		return apperror.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ev.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (that *Session) runInitiator(ctx context.Context) error {
	log := that.logger.With("method", "runInitiator")

	that.renderIdle(entity.StateConnecting, nil)

	conn, err := that.await(ctx, that.connect(ctx, func(ctx context.Context) (transport.Channel, error) {
		return that.dialer.Dial(ctx, that.host, that.port)
	}))
	if err != nil {
		if ctx.Err() != nil {
			that.renderIdle(entity.StateTerminated, nil)
			return nil
		}

		log.Error("failed to connect", "error", err)
		that.renderIdle(entity.StateTerminated, err)

		return fmt.Errorf("failed to connect: %w", err)
	}

	if err = that.play(ctx, conn); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	return nil
}

func (that *Session) runAcceptor(ctx context.Context) error {
	log := that.logger.With("method", "runAcceptor", "addr", that.listener.Addr())
	defer that.listener.Close()

	that.renderIdle(entity.StateListening, nil)

	for {
		log.Info("waiting for a peer")

		conn, err := that.await(ctx, that.connect(ctx, that.listener.Accept))
		switch {
		case ctx.Err() != nil:
			that.renderIdle(entity.StateTerminated, nil)
			return nil
		case errors.Is(err, errHandshake):
			log.Warn("peer rejected", "error", err)
			that.renderIdle(entity.StateListening, err)
			continue
		case err != nil:
			log.Error("failed to accept", "error", err)
			that.renderIdle(entity.StateTerminated, err)
			return fmt.Errorf("failed to accept: %w", err)
		}

		if err = that.play(ctx, conn); err != nil {
			log.Warn("connection ended with an error", "error", err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// connect - opens a channel and exchanges names in the background.
// A result nobody waits for any more is closed.
func (that *Session) connect(
	ctx context.Context,
	open func(ctx context.Context) (transport.Channel, error),
) <-chan connection {
	result := make(chan connection)

	go func() {
		conn := that.handshake(ctx, open)

		select {
		case result <- conn:
		case <-ctx.Done():
			if conn.channel != nil {
				_ = conn.channel.Close()
			}
		}
	}()

	return result
}

func (that *Session) handshake(ctx context.Context, open func(ctx context.Context) (transport.Channel, error)) connection {
	ch, err := open(ctx)
	if err != nil {
		return connection{err: err}
	}

	stop := context.AfterFunc(ctx, func() {
		_ = ch.Close()
	})
	defer stop()

	peer, err := transport.Handshake(ch, that.role, that.name)
	if err != nil {
		_ = ch.Close()
		return connection{err: fmt.Errorf("%w with %s: %w", errHandshake, ch.RemoteAddr(), err)}
	}

	return connection{channel: ch, peer: peer}
}

// await - serves UI events while no peer is connected.
func (that *Session) await(ctx context.Context, pending <-chan connection) (connection, error) {
	for {
		select {
		case <-ctx.Done():
			return connection{}, ctx.Err()
		case ev := <-that.events:
			ev.reply <- fmt.Errorf("%w: no peer connected", apperror.ErrNotYourTurn)
		case conn := <-pending:
			return conn, conn.err
		}
	}
}

// play - runs the turn machine over one connection until it reaches a final state.
// Only faults are returned; a decline or a peer leaving is a normal end.
func (that *Session) play(ctx context.Context, conn connection) error {
	sessionID := uuid.NewString()
	log := that.logger.With("method", "play", "session_id", sessionID, "peer", conn.peer)

	defer conn.channel.Close()

	done := make(chan struct{})
	defer close(done)

	inbound := pump(conn.channel, done)

	remote := conn.peer
	if remote == that.name {
		remote = conn.peer + " (2)"
	}

	machine := tictactoe.NewMachine(that.role, that.name, remote)

	log.Info("peer connected", "remote_addr", conn.channel.RemoteAddr())

	var notice, failure error

	for {
		that.render(that.snapshot(sessionID, machine, notice))

		if machine.State() == entity.StateRoundOver {
			log.Info("round over", "outcome", machine.Board().Result(), "stats", machine.Board().Stats())
			machine.ConcludeRound()
			continue
		}

		if machine.State().IsFinal() {
			log.Info("connection closed", "state", machine.State().String())
			return failure
		}

		select {
		case <-ctx.Done():
			machine.Terminate()
			notice = apperror.ErrSessionClosed

		case ev := <-that.events:
			reply, fatal := that.handleEvent(machine, conn.channel, ev)
			ev.reply <- reply
			notice = reply

			if fatal != nil {
				machine.Disconnect()
				failure = fatal
			}

		case msg := <-inbound:
			notice, failure = that.handleMessage(machine, msg)
			if notice != nil {
				machine.Disconnect()
			}
		}
	}
}

// pump - reads the channel until it fails. Each read is handed to the worker,
// the last one carries the error.
func pump(ch transport.Channel, done <-chan struct{}) <-chan message {
	out := make(chan message)

	go func() {
		for {
			text, err := ch.Receive()

			select {
			case out <- message{text: text, err: err}:
			case <-done:
				return
			}

			if err != nil {
				return
			}
		}
	}()

	return out
}

func (that *Session) handleEvent(machine *tictactoe.Machine, ch transport.Channel, ev event) (reply, fatal error) {
	var (
		text string
		err  error
	)

	switch ev.kind {
	case eventMove:
		text, err = machine.LocalMove(ev.x, ev.y)
	case eventReplay:
		text, err = machine.ReplayDecision(ev.again)
	}

	if err != nil {
		return err, nil
	}

	if err = ch.Send(text); err != nil {
		err = fmt.Errorf("failed to send %q: %w", text, err)
		return err, err
	}

	return nil, nil
}

// handleMessage - returns the reason the connection is over, if it is, and whether it was a fault.
func (that *Session) handleMessage(machine *tictactoe.Machine, msg message) (notice, failure error) {
	if errors.Is(msg.err, io.EOF) {
		return apperror.ErrPeerDisconnected, nil
	}

	if msg.err != nil {
		return msg.err, msg.err
	}

	if err := machine.HandleRemote(msg.text); err != nil {
		return err, err
	}

	return nil, nil
}

func (that *Session) snapshot(sessionID string, machine *tictactoe.Machine, notice error) entity.Snapshot {
	board := machine.Board()

	snapshot := entity.Snapshot{
		SessionID:   sessionID,
		Role:        that.role,
		State:       machine.State(),
		Grid:        board.Grid(),
		Local:       machine.Local(),
		Remote:      machine.Remote(),
		Turn:        machine.TurnLabel(),
		Result:      board.Result(),
		Stats:       board.Stats(),
		GamesPlayed: board.GamesPlayed(),
	}

	if notice != nil {
		snapshot.Error = notice.Error()
	}

	return snapshot
}

func (that *Session) renderIdle(state entity.State, notice error) {
	snapshot := entity.Snapshot{
		Role:  that.role,
		State: state,
		Local: that.name,
	}

	if notice != nil {
		snapshot.Error = notice.Error()
	}

	that.render(snapshot)
}

func (that *Session) render(snapshot entity.Snapshot) {
	if that.display != nil {
		that.display.Render(snapshot)
	}
}
