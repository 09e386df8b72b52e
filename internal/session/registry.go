package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-coach/internal/domain"
)

const maxGameIDLength = 128

// Registry maps client game ids to live sessions. Sessions are created
// lazily and restored from the snapshot store when one is configured.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*GameSession
	opts     Options
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		sessions: make(map[string]*GameSession),
		opts:     opts.withDefaults(),
	}
}

func normalizeGameID(gameID string) (string, error) {
	id := strings.TrimSpace(gameID)
	if id == "" || len(id) > maxGameIDLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidGameID, gameID)
	}
	return id, nil
}

// Open returns the session for gameID, restoring or creating it as needed.
func (r *Registry) Open(ctx context.Context, gameID string) (*GameSession, error) {
	id, err := normalizeGameID(gameID)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		r.touch(s)
		return s, nil
	}

	var rec *Record
	if r.opts.Store != nil {
		rec, err = r.opts.Store.Load(ctx, id)
		if err != nil {
			r.opts.Logger.Warn("chess_session_load_failed", zap.String("game_id", id), zap.Error(err))
			rec = nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		r.touch(s)
		return s, nil
	}
	if rec != nil {
		restored, rerr := Restore(rec, r.opts)
		if rerr == nil {
			r.touch(restored)
			r.sessions[id] = restored
			r.opts.Logger.Info("chess_session_restored",
				zap.String("game_id", id),
				zap.Uint64("counter", rec.Counter),
				zap.Int("ply", len(rec.Moves)),
			)
			return restored, nil
		}
		r.opts.Logger.Warn("chess_session_restore_failed", zap.String("game_id", id), zap.Error(rerr))
	}
	s = New(id, r.opts)
	r.touch(s)
	r.sessions[id] = s
	r.opts.Logger.Debug("chess_session_created", zap.String("game_id", id))
	return s, nil
}

// Get returns an existing session without creating one.
func (r *Registry) Get(gameID string) (*GameSession, error) {
	id, err := normalizeGameID(gameID)
	if err != nil {
		return nil, ErrNoActiveGame
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNoActiveGame
	}
	r.touch(s)
	return s, nil
}

// Drop forgets a session and its stored record.
func (r *Registry) Drop(ctx context.Context, gameID string) error {
	id, err := normalizeGameID(gameID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.halt()
	}
	if r.opts.Store != nil {
		return r.opts.Store.Delete(ctx, id)
	}
	return nil
}

func (r *Registry) touch(s *GameSession) {
	s.lastSeen.Store(r.opts.Now().UnixNano())
}

// EvictIdle forgets sessions nobody looked up for IdleTTL and cancels their
// pending opponent move. The stored record is kept, so a later Open restores
// the game and reschedules the reply.
func (r *Registry) EvictIdle() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.Now().Add(-r.opts.IdleTTL).UnixNano()

	r.mu.Lock()
	evicted := make([]*GameSession, 0)
	for id, s := range r.sessions {
		if s.lastSeen.Load() > cutoff {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, s)
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, s := range evicted {
		s.halt()
	}
	if len(evicted) > 0 {
		r.opts.Logger.Info("chess_sessions_evicted",
			zap.Int("evicted", len(evicted)),
			zap.Int("remaining", remaining),
			zap.Duration("idle_ttl", r.opts.IdleTTL),
		)
	}
	return len(evicted)
}

// RunJanitor calls EvictIdle every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, every time.Duration) {
	if r.opts.IdleTTL <= 0 || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// History lists archived games of gameID, newest first.
func (r *Registry) History(ctx context.Context, gameID string, limit int) ([]*domain.FinishedGame, error) {
	if r.opts.Archive == nil {
		return []*domain.FinishedGame{}, nil
	}
	if limit <= 0 {
		limit = r.opts.HistoryLimit
	}
	return r.opts.Archive.RecentGames(ctx, gameID, limit)
}
