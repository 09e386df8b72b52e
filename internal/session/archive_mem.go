package session

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/Cheese-chess-coach/internal/domain"
)

// MemoryArchive is the in-process archive used when no database is configured.
type MemoryArchive struct {
	mu sync.RWMutex

	nextID     int64
	byInstance map[string]*domain.FinishedGame
	byGame     map[string][]*domain.FinishedGame
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		byInstance: make(map[string]*domain.FinishedGame),
		byGame:     make(map[string][]*domain.FinishedGame),
	}
}

func (m *MemoryArchive) InsertGame(ctx context.Context, game *domain.FinishedGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(game.InstanceID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byInstance[key]; exists {
		return 0, ErrDuplicateGame
	}
	m.nextID++
	stored := *game
	stored.ID = m.nextID
	m.byInstance[key] = &stored
	m.byGame[game.GameID] = append(m.byGame[game.GameID], &stored)
	return stored.ID, nil
}

func (m *MemoryArchive) RecentGames(ctx context.Context, gameID string, limit int) ([]*domain.FinishedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byGame[gameID]
	items := make([]*domain.FinishedGame, 0, len(list))
	for _, g := range list {
		cp := *g
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
