package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
)

type matchRepo interface {
	Save(ctx context.Context, snapshot entity.Snapshot) error
	DeleteByID(ctx context.Context, sessionID string) error
}

// MatchFeed publishes the live connection's snapshot to a repository so that others
// can watch the match. The entry is removed as soon as the connection ends.
type MatchFeed struct {
	logger  *slog.Logger
	repo    matchRepo
	timeout time.Duration

	mu      sync.Mutex
	current string
}

func NewMatchFeed(logger *slog.Logger, repo matchRepo, timeout time.Duration) *MatchFeed {
	return &MatchFeed{
		logger:  logger.With("component", "match_feed"),
		repo:    repo,
		timeout: timeout,
	}
}

// Render - saves the snapshot, or deletes the previous one when its connection is over.
// Storage failures are logged; they never stop the game.
func (that *MatchFeed) Render(snapshot entity.Snapshot) {
	log := that.logger.With("method", "Render", "session_id", snapshot.SessionID)

	that.mu.Lock()
	defer that.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), that.timeout)
	defer cancel()

	live := snapshot.SessionID != "" && !snapshot.State.IsFinal()

	if that.current != "" && (!live || snapshot.SessionID != that.current) {
		if err := that.repo.DeleteByID(ctx, that.current); err != nil {
			log.Error("failed to delete match", "error", err)
		}
		that.current = ""
	}

	if !live {
		return
	}

	if err := that.repo.Save(ctx, snapshot); err != nil {
		log.Error("failed to save match", "error", err)
		return
	}

	that.current = snapshot.SessionID
}
