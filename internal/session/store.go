package session

import (
	"context"
	"errors"

	"github.com/park285/Cheese-chess-coach/internal/domain"
)

var ErrDuplicateGame = errors.New("chess game already archived")

// SnapshotStore keeps the replayable record of live sessions.
type SnapshotStore interface {
	Save(ctx context.Context, rec *Record) error
	// Load returns nil, nil when nothing is stored for gameID.
	Load(ctx context.Context, gameID string) (*Record, error)
	Delete(ctx context.Context, gameID string) error
}

// Archive stores finished games.
type Archive interface {
	InsertGame(ctx context.Context, game *domain.FinishedGame) (int64, error)
	RecentGames(ctx context.Context, gameID string, limit int) ([]*domain.FinishedGame, error)
}
