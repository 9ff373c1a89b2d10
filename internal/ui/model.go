// Package ui is the terminal front end: it draws session snapshots and turns
// key presses into moves and rematch decisions.
package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	lip "github.com/charmbracelet/lipgloss"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
)

// style colors
var (
	xStyle      = lip.NewStyle().Foreground(lip.Color("#8BE9FD")) // dracula cyan
	oStyle      = lip.NewStyle().Foreground(lip.Color("#FF79C6")) // dracula pink
	cellStyle   = lip.NewStyle().Foreground(lip.Color("#BD93F9")) // dracula purple
	headerStyle = lip.NewStyle().Foreground(lip.Color("#F1FA8C")).Bold(true)
	footerStyle = lip.NewStyle().Foreground(lip.Color("#6272A4")).Bold(true)
	resultStyle = lip.NewStyle().Foreground(lip.Color("#50FA7B")).Bold(true)
	errorStyle  = lip.NewStyle().Foreground(lip.Color("#FF5555"))
	cursorStyle = lip.NewStyle().Background(lip.Color("#44475a")).Foreground(lip.Color("#f8f8f2")).Bold(true)
)

// Controller is the part of a session the terminal drives.
type Controller interface {
	LocalMove(ctx context.Context, x, y int) error
	ReplayDecision(ctx context.Context, again bool) error
	Shutdown()
}

type snapshotMsg entity.Snapshot

// replyMsg carries the session's answer to a key press.
type replyMsg struct {
	err error
}

// EndedMsg - the session's Run returned.
type EndedMsg struct {
	Err error
}

type Model struct {
	ctx     context.Context
	session Controller

	snapshot         entity.Snapshot
	cursorX, cursorY int
	notice           string

	ended    bool
	setupErr error
	retry    bool
}

// NewModel - a model for session. A non-nil setupErr starts on the "try again?" prompt.
func NewModel(ctx context.Context, session Controller, setupErr error) Model {
	return Model{
		ctx:      ctx,
		session:  session,
		setupErr: setupErr,
	}
}

// Retry - the user asked for a fresh session after a setup error.
func (m Model) Retry() bool { return m.retry }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snapshot = entity.Snapshot(msg)
		m.notice = m.snapshot.Error

	case replyMsg:
		m.notice = ""
		if msg.err != nil {
			m.notice = msg.err.Error()
		}

	case EndedMsg:
		m.ended = true
		if apperror.IsSetupError(msg.Err) {
			m.setupErr = msg.Err
		} else if msg.Err != nil {
			m.notice = msg.Err.Error()
		}

	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.shutdown()
		return m, tea.Quit
	}

	if m.setupErr != nil {
		switch key {
		case "y":
			m.retry = true
			m.shutdown()
			return m, tea.Quit
		case "n":
			m.shutdown()
			return m, tea.Quit
		}
		return m, nil
	}

	if m.ended {
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.cursorY > 0 {
			m.cursorY--
		}
	case "down", "j":
		if m.cursorY < entity.BoardSize-1 {
			m.cursorY++
		}
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "right", "l":
		if m.cursorX < entity.BoardSize-1 {
			m.cursorX++
		}
	case "enter", " ":
		if m.snapshot.Playable() {
			return m, m.move(m.cursorY+1, m.cursorX+1)
		}
	case "y", "n":
		if m.snapshot.DecisionPending() {
			return m, m.decide(key == "y")
		}
	}

	return m, nil
}

func (m Model) shutdown() {
	if m.session != nil {
		m.session.Shutdown()
	}
}

// move - x is the row, y the column.
func (m Model) move(x, y int) tea.Cmd {
	session, ctx := m.session, m.ctx

	return func() tea.Msg {
		return replyMsg{err: session.LocalMove(ctx, x, y)}
	}
}

func (m Model) decide(again bool) tea.Cmd {
	session, ctx := m.session, m.ctx

	return func() tea.Msg {
		return replyMsg{err: session.ReplayDecision(ctx, again)}
	}
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Tic-Tac-Toe"))
	s.WriteString("\n\n")

	if m.setupErr != nil {
		s.WriteString(errorStyle.Render("Could not start: " + m.setupErr.Error()))
		s.WriteString("\n\n")
		s.WriteString(footerStyle.Render("Try again? (y/n)"))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(m.players())
	s.WriteString("\n\n")

	for x := range entity.BoardSize {
		s.WriteString("\t")
		for y := range entity.BoardSize {
			s.WriteString(m.renderCell(x, y))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	s.WriteString(m.status())
	s.WriteString("\n")

	stats := m.snapshot.Stats
	fmt.Fprintf(&s, "Wins: %d  Losses: %d  Ties: %d  Games: %d\n",
		stats.Wins, stats.Losses, stats.Ties, m.snapshot.GamesPlayed)

	if m.notice != "" {
		s.WriteString(errorStyle.Render(m.notice))
		s.WriteString("\n")
	}

	s.WriteString(footerStyle.Render("\narrows/hjkl move, enter plays, q quits\n"))

	return s.String()
}

func (m Model) players() string {
	local, remote := m.snapshot.Local, m.snapshot.Remote
	if remote == "" {
		remote = "?"
	}

	localMark, remoteMark := entity.MarkA, entity.MarkB
	if m.snapshot.Role == entity.RoleAcceptor {
		localMark, remoteMark = entity.MarkB, entity.MarkA
	}

	return fmt.Sprintf("%s %s  vs  %s %s",
		styledMark(localMark, localMark.String()), local,
		styledMark(remoteMark, remoteMark.String()), remote)
}

func (m Model) status() string {
	snapshot := m.snapshot

	switch {
	case m.ended:
		return footerStyle.Render("Game over. Press q to quit.")
	case snapshot.State == entity.StateConnecting:
		return "Connecting..."
	case snapshot.State == entity.StateListening:
		return "Waiting for a player to connect..."
	case snapshot.State == entity.StateRoundOver:
		return resultStyle.Render(snapshot.Result)
	case snapshot.DecisionPending():
		return resultStyle.Render(snapshot.Result) + "\nPlay again? (y/n)"
	case snapshot.State == entity.StateAwaitingReplayDecision:
		return resultStyle.Render(snapshot.Result) + "\nWaiting for " + snapshot.Remote + " to decide..."
	default:
		return snapshot.Turn
	}
}

func (m Model) renderCell(x, y int) string {
	mark := m.snapshot.Grid[x][y]

	content := mark.String()
	if content == "" {
		content = " "
	}
	fullCell := "[" + content + "]"

	if m.cursorY == x && m.cursorX == y {
		return cursorStyle.Render(fullCell)
	}

	return styledMark(mark, fullCell)
}

func styledMark(mark entity.Mark, text string) string {
	switch mark {
	case entity.MarkA:
		return xStyle.Render(text)
	case entity.MarkB:
		return oStyle.Render(text)
	default:
		return cellStyle.Render(text)
	}
}
