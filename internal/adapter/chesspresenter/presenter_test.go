package chesspresenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/Cheese-chess-coach/internal/assistant"
	"github.com/park285/Cheese-chess-coach/internal/chess"
	"github.com/park285/Cheese-chess-coach/internal/clock/clocktest"
	"github.com/park285/Cheese-chess-coach/internal/domain"
	"github.com/park285/Cheese-chess-coach/internal/session"
	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []chessdto.Event
}

func (c *capturePublisher) Publish(gameID string, ev chessdto.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capturePublisher) commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Command)
	}
	return out
}

func TestErrorMapping(t *testing.T) {
	f := NewFormatter(nil)
	cases := []struct {
		err       error
		code      string
		retryable bool
	}{
		{session.ErrStaleRecommendation, chessdto.CodeStaleRecommendation, true},
		{fmt.Errorf("apply e2e5: %w", chess.ErrIllegalMove), chessdto.CodeIllegalMove, true},
		{session.ErrMovePending, chessdto.CodeMovePending, true},
		{session.ErrGameOver, chessdto.CodeGameOver, false},
		{session.ErrNoActiveGame, chessdto.CodeNoActiveGame, false},
		{assistant.ErrUnknownRequestType, chessdto.CodeBadRequest, false},
		{ErrMalformedRequest, chessdto.CodeBadRequest, false},
		{errors.New("disk on fire"), chessdto.CodeInternal, true},
	}
	for _, tc := range cases {
		got := f.Error(tc.err)
		if got.Code != tc.code || got.Retryable != tc.retryable {
			t.Fatalf("%v: got %+v, want code %s retryable %v", tc.err, got, tc.code, tc.retryable)
		}
		if got.Message == "" {
			t.Fatalf("%v: empty message", tc.err)
		}
	}
	if f.Error(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
	stale := f.Error(session.ErrStaleRecommendation)
	if stale.Action != "Get New Suggestions" || !strings.Contains(stale.Message, "outdated") {
		t.Fatalf("unexpected stale mapping %+v", stale)
	}
	if internal := f.Error(errors.New("disk on fire")); internal.Message != "Error applying move: disk on fire" {
		t.Fatalf("unexpected internal message %q", internal.Message)
	}
}

func TestPresenterPublishesMoveSequence(t *testing.T) {
	pub := &capturePublisher{}
	p := NewPresenter(pub, nil)
	sched := clocktest.NewManual()
	s := session.New("board-1", session.Options{
		Notifier:  p,
		Scheduler: sched,
		Evaluator: chess.NewEvaluator(chess.WithRandomSeed(4)),
		BotDelay:  session.DefaultBotDelay,
	})

	if _, err := s.Submit(context.Background(), session.MoveRequest{From: "e2", To: "e4"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff([]string{"move-update", "user-color", "bot-thinking"}, pub.commands()); diff != "" {
		t.Fatalf("event order (-want +got):\n%s", diff)
	}

	update := pub.events[0]
	if update.GameState == nil || update.GameID != "board-1" {
		t.Fatalf("move-update should carry the board state, got %+v", update)
	}
	if update.Move != "e4" || update.LastMove == nil || update.LastMove.From != "e2" || update.LastMove.To != "e4" {
		t.Fatalf("unexpected move-update %+v", update)
	}
	if diff := cmp.Diff([]chessdto.MovePair{{White: "e4"}}, update.MoveHistory); diff != "" {
		t.Fatalf("history (-want +got):\n%s", diff)
	}
	if update.Tag.Counter != 1 {
		t.Fatalf("expected counter 1, got %d", update.Tag.Counter)
	}
	if pub.events[1].Color != "White" {
		t.Fatalf("expected user-color White, got %q", pub.events[1].Color)
	}

	sched.Advance(session.DefaultBotDelay)
	got := pub.commands()
	if got[len(got)-1] != "bot-move" {
		t.Fatalf("expected bot-move last, got %v", got)
	}
}

func TestPresenterStaleEventCarriesAction(t *testing.T) {
	pub := &capturePublisher{}
	p := NewPresenter(pub, nil)
	s := session.New("board-2", session.Options{Notifier: p, Scheduler: clocktest.NewManual()})

	_, err := s.ApplyRecommendation(context.Background(), session.RecommendedMove{
		From: "e2", To: "e4", Notation: "e4",
		Tag: session.Tag{InstanceID: "gone", Counter: 0},
	})
	if !errors.Is(err, session.ErrStaleRecommendation) {
		t.Fatalf("expected stale, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %v", pub.commands())
	}
	ev := pub.events[0]
	if ev.Command != "stale" || ev.Error == nil || ev.Error.Code != chessdto.CodeStaleRecommendation {
		t.Fatalf("unexpected stale event %+v", ev)
	}
	if ev.Message != ev.Error.Message {
		t.Fatalf("message should mirror the error text")
	}
}

func TestEventJSONShape(t *testing.T) {
	p := NewPresenter(nil, nil)
	snap := session.New("board-3", session.Options{}).Snapshot()
	b, err := json.Marshal(p.StateEvent(session.EventMoveUpdate, snap))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"command", "fen", "capturedPieces", "moveHistory", "gameStateCounter"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing %q in %s", key, b)
		}
	}
	for _, key := range []string{"result", "error", "lastMove"} {
		if _, ok := raw[key]; ok {
			t.Fatalf("unexpected %q in %s", key, b)
		}
	}

	gameOver, _ := json.Marshal(p.Event(session.Event{Kind: session.EventGameOver, GameID: "board-3", Result: "Checkmate! White wins!"}))
	if string(gameOver) != `{"command":"game-over","result":"Checkmate! White wins!"}` {
		t.Fatalf("unexpected game-over payload %s", gameOver)
	}
}

func TestRecommendationRoundTripKeepsTag(t *testing.T) {
	rec := assistant.Recommendation{
		RecommendedMove: session.RecommendedMove{
			From: "g1", To: "f3", Notation: "Nf3",
			Tag: session.Tag{InstanceID: "abc", Counter: 4},
		},
		Title: "🥇 Play Nf3",
		Score: 0.2,
	}
	dto := ToDTORecommendations([]assistant.Recommendation{rec})
	if len(dto) != 1 || dto[0].Tag.Counter != 4 || dto[0].Title != rec.Title {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if diff := cmp.Diff(rec.RecommendedMove, FromDTORecommendation(dto[0])); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestHistoryFormatting(t *testing.T) {
	ended := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	games := ToDTOGames([]*domain.FinishedGame{
		{ID: 7, HumanSide: "black", Result: "black", MovesSAN: []string{"f3", "e5", "g4", "Qh4#"},
			OpeningCode: "A00", OpeningTitle: "Barnes Opening", EndedAt: ended, Duration: 90 * time.Second},
		nil,
		{ID: 6, HumanSide: "white", Result: "draw", EndedAt: ended},
	})
	if len(games) != 2 || games[0].DurationMS != 90000 {
		t.Fatalf("unexpected games %+v", games)
	}
	text := NewFormatter(nil).History(games)
	want := "#7 2026-03-01 12:30 ✅ win · A00 Barnes Opening · 4 plies · 1m30s\n#6 2026-03-01 12:30 🤝 draw · 0 plies"
	if text != want {
		t.Fatalf("history text:\n%s\nwant:\n%s", text, want)
	}
	if got := formatResultBadge("white", "black"); got != "❌ loss" {
		t.Fatalf("unexpected badge %q", got)
	}
	if got := NewFormatter(nil).History(nil); got != "No finished games yet." {
		t.Fatalf("unexpected empty history %q", got)
	}
}
