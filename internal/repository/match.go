package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrNoSessionID   = errors.New("snapshot has no session id")
)

const matchKeyPrefix = "match:"

// MatchRepository keeps the latest snapshot of each live connection for observers.
type MatchRepository interface {
	Save(ctx context.Context, snapshot entity.Snapshot) error
	GetByID(ctx context.Context, sessionID string) (entity.Snapshot, error)
	DeleteByID(ctx context.Context, sessionID string) error
}

type dbMatch struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMatchRepository - entries expire after ttl unless refreshed; zero keeps them until deleted.
func NewMatchRepository(client *redis.Client, ttl time.Duration) MatchRepository {
	return &dbMatch{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbMatch) Save(ctx context.Context, snapshot entity.Snapshot) error {
	if snapshot.SessionID == "" {
		return ErrNoSessionID
	}

	matchJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	err = that.client.Set(ctx, matchKeyPrefix+snapshot.SessionID, matchJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, sessionID string) (entity.Snapshot, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+sessionID).Result()

	if errors.Is(err, redis.Nil) {
		return entity.Snapshot{}, ErrMatchNotFound
	}

	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to get match by id: %w", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return snapshot, nil
}

func (that *dbMatch) DeleteByID(ctx context.Context, sessionID string) error {
	if err := that.client.Del(ctx, matchKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete match by id: %w", err)
	}

	return nil
}
