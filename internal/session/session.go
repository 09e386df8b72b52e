package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-coach/internal/chess"
	"github.com/park285/Cheese-chess-coach/internal/domain"
)

const (
	DefaultBotDelay       = 1500 * time.Millisecond
	defaultPersistTimeout = 3 * time.Second
)

type Options struct {
	// BotDelay is how long the opponent waits before replying. Zero is valid.
	BotDelay       time.Duration
	PersistTimeout time.Duration
	HistoryLimit   int
	Evaluator      *chess.Evaluator
	Scheduler      Scheduler
	Notifier       Notifier
	Store          SnapshotStore
	Archive        Archive
	Logger         *zap.Logger
	// IdleTTL is how long a registry keeps a session nobody touches. Zero
	// keeps sessions forever.
	IdleTTL        time.Duration
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BotDelay < 0 {
		o.BotDelay = DefaultBotDelay
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = defaultPersistTimeout
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 10
	}
	if o.Evaluator == nil {
		o.Evaluator = chess.NewEvaluator()
	}
	if o.Scheduler == nil {
		o.Scheduler = SystemScheduler()
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// GameSession is the turn sequencer of one board. Every event is
// serialised through mu.
type GameSession struct {
	mu   sync.Mutex
	id   string
	opts Options

	game            *chess.Game
	humanSide       nchess.Color
	opponentEnabled bool
	counter         uint64
	state           State
	instanceID      string
	result          string
	startedAt       time.Time

	pending bool
	timer   Timer

	// lastSeen is the unix-nano time of the last registry lookup.
	lastSeen atomic.Int64
}

// effects are the side effects computed under the lock and performed after it.
type effects struct {
	record   *Record
	finished *domain.FinishedGame
}

func New(gameID string, opts Options) *GameSession {
	s := &GameSession{
		id:   strings.TrimSpace(gameID),
		opts: opts.withDefaults(),
	}
	s.resetLocked()
	return s
}

// Restore rebuilds a session from its persisted record. A restored game
// whose opponent is to move gets its reply scheduled again.
func Restore(rec *Record, opts Options) (*GameSession, error) {
	if rec == nil {
		return nil, ErrNoActiveGame
	}
	game, err := chess.ReplayGame(rec.Moves)
	if err != nil {
		return nil, fmt.Errorf("replay session %s: %w", rec.GameID, err)
	}
	s := &GameSession{
		id:              rec.GameID,
		opts:            opts.withDefaults(),
		game:            game,
		humanSide:       parseSide(rec.HumanSide),
		opponentEnabled: rec.OpponentEnabled,
		counter:         rec.Counter,
		instanceID:      rec.InstanceID,
		startedAt:       rec.StartedAt,
	}
	if s.instanceID == "" {
		s.instanceID = uuid.NewString()
	}
	if s.startedAt.IsZero() {
		s.startedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case game.IsOver():
		s.state = StateGameOver
		s.result = resultText(game)
	case s.humanSide == nchess.NoColor:
		s.state = StateAwaitingFirstMove
	default:
		s.state = StateInProgress
		if s.botToMoveLocked() {
			s.scheduleBotLocked()
		}
	}
	return s, nil
}

func (s *GameSession) ID() string { return s.id }

// halt cancels a pending opponent move of a session leaving the registry.
func (s *GameSession) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
}

func (s *GameSession) resetLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.game = chess.NewGame()
	s.humanSide = nchess.NoColor
	s.opponentEnabled = false
	s.counter = 0
	s.state = StateAwaitingFirstMove
	s.instanceID = uuid.NewString()
	s.result = ""
	s.startedAt = time.Now()
}

// Submit plays a human move from the board.
func (s *GameSession) Submit(ctx context.Context, req MoveRequest) (Snapshot, error) {
	s.mu.Lock()
	snap, eff, err := s.humanMoveLocked(req.From, req.To, req.Promotion)
	s.mu.Unlock()
	s.flush(ctx, eff)
	return snap, err
}

// ApplyRecommendation plays a move the assistant offered earlier. The tag is
// checked before the rules engine sees the move.
func (s *GameSession) ApplyRecommendation(ctx context.Context, rec RecommendedMove) (Snapshot, error) {
	s.mu.Lock()
	if current := s.tagLocked(); rec.Tag != current {
		snap := s.snapshotLocked()
		s.opts.Notifier.Notify(Event{Kind: EventStale, GameID: s.id, Snapshot: &snap, Err: ErrStaleRecommendation})
		s.mu.Unlock()
		s.opts.Logger.Info("chess_recommendation_stale",
			zap.String("game_id", s.id),
			zap.String("tag", rec.Tag.String()),
			zap.String("current", current.String()),
			zap.String("notation", rec.Notation),
		)
		return snap, ErrStaleRecommendation
	}
	snap, eff, err := s.humanMoveLocked(rec.From, rec.To, rec.Promotion)
	s.mu.Unlock()
	s.flush(ctx, eff)
	return snap, err
}

// NewGame discards the current game, including a pending opponent move.
func (s *GameSession) NewGame(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.resetLocked()
	snap := s.snapshotLocked()
	s.opts.Notifier.Notify(Event{Kind: EventNewGame, GameID: s.id, Snapshot: &snap})
	eff := effects{record: s.recordLocked()}
	s.mu.Unlock()

	s.opts.Logger.Info("chess_new_game", zap.String("game_id", s.id), zap.String("instance_id", snap.Tag.InstanceID))
	s.flush(ctx, eff)
	return snap
}

func (s *GameSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *GameSession) Tag() Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tagLocked()
}

func (s *GameSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *GameSession) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Position returns a private copy of the game together with the tag it
// belongs to, for analysis and rendering outside the lock.
func (s *GameSession) Position() (*chess.Game, Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Clone(), s.tagLocked()
}

func (s *GameSession) Record() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked()
}

func (s *GameSession) humanMoveLocked(from, to, promotion string) (Snapshot, effects, error) {
	switch {
	case s.state == StateGameOver:
		return s.rejectLocked(ErrGameOver)
	case s.pending || s.botToMoveLocked():
		return s.rejectLocked(ErrMovePending)
	}

	promo, err := chess.ParsePromotion(promotion)
	if err != nil {
		return s.rejectLocked(fmt.Errorf("%w: %v", chess.ErrIllegalMove, err))
	}
	mover := s.game.Turn()
	played, err := s.game.Apply(from, to, promo)
	if err != nil {
		return s.rejectLocked(err)
	}

	first := s.state == StateAwaitingFirstMove
	if first {
		s.humanSide = mover
		s.opponentEnabled = true
		s.state = StateInProgress
	}
	s.counter++

	snap := s.snapshotLocked()
	s.opts.Notifier.Notify(Event{Kind: EventMoveUpdate, GameID: s.id, Snapshot: &snap, Move: played.SAN})
	if first {
		s.opts.Notifier.Notify(Event{Kind: EventUserColor, GameID: s.id, Color: chess.SideName(mover)})
	}
	s.opts.Logger.Debug("chess_human_move",
		zap.String("game_id", s.id),
		zap.String("move_uci", played.UCI),
		zap.Uint64("counter", s.counter),
	)

	eff := s.afterMoveLocked()
	return s.snapshotLocked(), eff, nil
}

func (s *GameSession) rejectLocked(err error) (Snapshot, effects, error) {
	snap := s.snapshotLocked()
	s.opts.Notifier.Notify(Event{Kind: EventInvalid, GameID: s.id, Snapshot: &snap, Message: err.Error(), Err: err})
	return snap, effects{}, err
}

// afterMoveLocked runs the termination check and, when the opponent is to
// move, schedules its reply.
func (s *GameSession) afterMoveLocked() effects {
	eff := effects{record: s.recordLocked()}
	if s.game.IsOver() {
		s.state = StateGameOver
		s.result = resultText(s.game)
		s.opts.Notifier.Notify(Event{Kind: EventGameOver, GameID: s.id, Result: s.result})
		eff.finished = s.finishedLocked()
		s.opts.Logger.Info("chess_game_over",
			zap.String("game_id", s.id),
			zap.String("result", s.result),
			zap.Int("ply", s.game.MoveCount()),
		)
		return eff
	}
	if s.botToMoveLocked() {
		s.scheduleBotLocked()
	}
	return eff
}

func (s *GameSession) botToMoveLocked() bool {
	return s.opponentEnabled && s.state == StateInProgress && s.game.Turn() != s.humanSide
}

func (s *GameSession) scheduleBotLocked() {
	tag := s.tagLocked()
	s.pending = true
	s.opts.Notifier.Notify(Event{Kind: EventBotThinking, GameID: s.id})
	s.timer = s.opts.Scheduler.AfterFunc(s.opts.BotDelay, func() {
		s.fireBotMove(tag)
	})
}

func (s *GameSession) fireBotMove(tag Tag) {
	s.mu.Lock()
	if current := s.tagLocked(); tag != current || !s.pending {
		s.mu.Unlock()
		s.opts.Logger.Debug("chess_bot_move_discarded",
			zap.String("game_id", s.id),
			zap.String("tag", tag.String()),
			zap.String("current", current.String()),
		)
		return
	}
	s.pending = false
	s.timer = nil

	best, err := s.opts.Evaluator.BestMove(s.game)
	if err == nil {
		err = s.game.ApplyCandidate(best.Candidate)
	}
	if err != nil {
		snap := s.snapshotLocked()
		s.opts.Notifier.Notify(Event{Kind: EventError, GameID: s.id, Snapshot: &snap, Message: err.Error()})
		s.mu.Unlock()
		s.opts.Logger.Warn("chess_bot_move_failed", zap.String("game_id", s.id), zap.Error(err))
		return
	}
	s.counter++

	snap := s.snapshotLocked()
	s.opts.Notifier.Notify(Event{Kind: EventBotMove, GameID: s.id, Snapshot: &snap, Move: best.SAN})
	s.opts.Logger.Debug("chess_bot_move",
		zap.String("game_id", s.id),
		zap.String("move_uci", best.UCI),
		zap.Float64("score", best.Score),
		zap.Uint64("counter", s.counter),
	)
	eff := s.afterMoveLocked()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
	defer cancel()
	s.flush(ctx, eff)
}

func (s *GameSession) tagLocked() Tag {
	return Tag{InstanceID: s.instanceID, Counter: s.counter}
}

func (s *GameSession) snapshotLocked() Snapshot {
	material, captured := chess.ComputeMaterial(s.game)
	snap := Snapshot{
		GameID: s.id,
		Tag:    s.tagLocked(),
		State:  s.state,
		FEN:    s.game.FEN(),
		Turn:   chess.SideName(s.game.Turn()),
		Captured: Captured{
			White: captured.Letters(nchess.White),
			Black: captured.Letters(nchess.Black),
		},
		History:      pairHistory(s.game.History()),
		MaterialDiff: material.Diff(),
		Result:       s.result,
	}
	if s.humanSide != nchess.NoColor {
		snap.HumanSide = chess.SideName(s.humanSide)
	}
	if from, to, ok := s.game.LastMove(); ok {
		snap.LastMove = &LastMove{From: from, To: to}
	}
	if s.game.MoveCount() > 0 {
		snap.OpeningCode, snap.OpeningTitle = s.game.Opening()
	}
	return snap
}

func (s *GameSession) recordLocked() *Record {
	rec := &Record{
		GameID:          s.id,
		InstanceID:      s.instanceID,
		Counter:         s.counter,
		OpponentEnabled: s.opponentEnabled,
		Moves:           s.game.UCIHistory(),
		StartedAt:       s.startedAt,
		UpdatedAt:       time.Now(),
	}
	if s.humanSide != nchess.NoColor {
		rec.HumanSide = strings.ToLower(chess.SideName(s.humanSide))
	}
	return rec
}

func (s *GameSession) finishedLocked() *domain.FinishedGame {
	now := time.Now()
	code, title := s.game.Opening()
	fg := &domain.FinishedGame{
		GameID:       s.id,
		InstanceID:   s.instanceID,
		Result:       resultFromOutcome(s.game.Outcome()),
		ResultMethod: strings.ToLower(s.game.Method().String()),
		ResultText:   s.result,
		MovesUCI:     s.game.UCIHistory(),
		MovesSAN:     s.game.History(),
		PGN:          s.game.PGN(),
		OpeningCode:  code,
		OpeningTitle: title,
		StartedAt:    s.startedAt,
		EndedAt:      now,
		Duration:     now.Sub(s.startedAt),
	}
	if s.humanSide != nchess.NoColor {
		fg.HumanSide = strings.ToLower(chess.SideName(s.humanSide))
	}
	return fg
}

func (s *GameSession) flush(ctx context.Context, eff effects) {
	if eff.record != nil && s.opts.Store != nil {
		if err := s.opts.Store.Save(ctx, eff.record); err != nil {
			s.opts.Logger.Warn("chess_session_save_failed", zap.String("game_id", s.id), zap.Error(err))
		}
	}
	if eff.finished != nil && s.opts.Archive != nil {
		id, err := s.opts.Archive.InsertGame(ctx, eff.finished)
		switch {
		case err == nil:
			s.opts.Logger.Info("chess_game_archived", zap.String("game_id", s.id), zap.Int64("archive_id", id))
		case errors.Is(err, ErrDuplicateGame):
			s.opts.Logger.Debug("chess_game_already_archived", zap.String("game_id", s.id))
		default:
			s.opts.Logger.Warn("chess_game_archive_failed", zap.String("game_id", s.id), zap.Error(err))
		}
	}
}

// resultText is the announcement shown when a game ends.
func resultText(g *chess.Game) string {
	switch {
	case g.IsCheckmate():
		winner := nchess.White
		if g.Outcome() == nchess.BlackWon {
			winner = nchess.Black
		}
		return fmt.Sprintf("Checkmate! %s wins!", chess.SideName(winner))
	case g.IsStalemate():
		return "Stalemate! Game is a draw."
	case g.IsDraw():
		return "Game ended in a draw!"
	default:
		return ""
	}
}

func resultFromOutcome(outcome nchess.Outcome) string {
	switch outcome {
	case nchess.WhiteWon:
		return "white"
	case nchess.BlackWon:
		return "black"
	case nchess.Draw:
		return "draw"
	default:
		return "unknown"
	}
}

func parseSide(s string) nchess.Color {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return nchess.White
	case "black", "b":
		return nchess.Black
	default:
		return nchess.NoColor
	}
}
