package ui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
)

// Session is what Run drives: a controller that can also be run.
type Session interface {
	Controller
	Run(ctx context.Context) error
	Done() <-chan struct{}
}

// Display forwards session snapshots to a running program.
// Snapshots rendered before Attach are dropped.
type Display struct {
	program atomic.Pointer[tea.Program]
}

func NewDisplay() *Display {
	return &Display{}
}

func (that *Display) Attach(program *tea.Program) {
	that.program.Store(program)
}

func (that *Display) Render(snapshot entity.Snapshot) {
	if program := that.program.Load(); program != nil {
		program.Send(snapshotMsg(snapshot))
	}
}

// Run - shows session in the terminal until the user quits, then shuts the session down
// and waits for it. session may be nil when setup already failed with setupErr.
// retry reports that the user asked to start over.
func Run(ctx context.Context, session Session, display *Display, setupErr error, options ...tea.ProgramOption) (bool, error) {
	var controller Controller
	if session != nil {
		controller = session
	}

	options = append(options, tea.WithContext(ctx))
	program := tea.NewProgram(NewModel(ctx, controller, setupErr), options...)
	display.Attach(program)

	if session != nil {
		go func() {
			err := session.Run(ctx)
			program.Send(EndedMsg{Err: err})
		}()
	}

	final, err := program.Run()

	if session != nil {
		session.Shutdown()
		<-session.Done()
	}

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return false, fmt.Errorf("failed to run terminal: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return false, nil
	}

	return model.Retry(), nil
}
