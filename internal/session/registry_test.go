package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/park285/Cheese-chess-coach/internal/clock/clocktest"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestEvictIdleDropsUntouchedSessions(t *testing.T) {
	clk := &fakeNow{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	sched := clocktest.NewManual()
	reg := NewRegistry(Options{Scheduler: sched, BotDelay: DefaultBotDelay, IdleTTL: time.Minute, Now: clk.now})
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		if _, err := reg.Open(ctx, fmt.Sprintf("drive-by-%d", i)); err != nil {
			t.Fatalf("Open: %v", err)
		}
	}
	busy, err := reg.Open(ctx, "busy")
	if err != nil {
		t.Fatalf("Open busy: %v", err)
	}
	pending, err := reg.Open(ctx, "pending")
	if err != nil {
		t.Fatalf("Open pending: %v", err)
	}
	if _, err := pending.Submit(ctx, MoveRequest{From: "e2", To: "e4"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sched.Pending() != 1 {
		t.Fatalf("expected the opponent reply to be queued")
	}

	clk.advance(40 * time.Second)
	if n := reg.EvictIdle(); n != 0 {
		t.Fatalf("nothing is idle yet, evicted %d", n)
	}
	if _, err := reg.Get("busy"); err != nil {
		t.Fatalf("Get busy: %v", err)
	}

	clk.advance(30 * time.Second)
	if n := reg.EvictIdle(); n != 501 {
		t.Fatalf("expected 501 idle sessions evicted, got %d", n)
	}
	if reg.Len() != 1 {
		t.Fatalf("only the touched session should remain, have %d", reg.Len())
	}
	if again, err := reg.Get("busy"); err != nil || again != busy {
		t.Fatalf("busy session should survive: %v", err)
	}
	if _, err := reg.Get("drive-by-7"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected evicted session to be gone, got %v", err)
	}
	if sched.Pending() != 0 || pending.Pending() {
		t.Fatalf("eviction should cancel the queued opponent move")
	}
	if sched.RunAll() != 0 || pending.Tag().Counter != 1 {
		t.Fatalf("evicted session must not move again")
	}
}

func TestEvictIdleKeepsStoredGame(t *testing.T) {
	store, _ := newMiniredisStore(t)
	clk := &fakeNow{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	sched := clocktest.NewManual()
	reg := NewRegistry(Options{Store: store, Scheduler: sched, BotDelay: DefaultBotDelay, IdleTTL: time.Minute, Now: clk.now})
	ctx := context.Background()

	s, err := reg.Open(ctx, "board")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Submit(ctx, MoveRequest{From: "d2", To: "d4"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	tag := s.Tag()

	clk.advance(2 * time.Minute)
	if n := reg.EvictIdle(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	restored, err := reg.Open(ctx, "board")
	if err != nil {
		t.Fatalf("Open after eviction: %v", err)
	}
	if restored == s || restored.Tag() != tag {
		t.Fatalf("expected a fresh session restored at %+v, got %+v", tag, restored.Tag())
	}
	if !restored.Pending() || sched.Pending() != 1 {
		t.Fatalf("restored session should reschedule the opponent reply")
	}
}

func TestEvictIdleDisabledWithoutTTL(t *testing.T) {
	reg := NewRegistry(Options{Scheduler: clocktest.NewManual()})
	if _, err := reg.Open(context.Background(), "x"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reg.EvictIdle() != 0 || reg.Len() != 1 {
		t.Fatalf("zero IdleTTL must keep sessions")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reg.RunJanitor(ctx, time.Millisecond)
}
