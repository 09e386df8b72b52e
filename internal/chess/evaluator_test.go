package chess

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
)

const (
	// Black queen takes the undefended a1 rook with check; the king escapes via h2.
	queenTakesRookFEN = "q6k/6pp/8/8/8/8/5PP1/R5K1 b - - 0 1"
	// White mates on the back rank with Ra8.
	backRankMateFEN = "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1"
	// Black to move with no legal moves.
	stalemateFEN = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
)

func mustGame(t *testing.T, fen string) *Game {
	t.Helper()
	g, err := NewGameFromFEN(fen)
	if err != nil {
		t.Fatalf("NewGameFromFEN(%q): %v", fen, err)
	}
	return g
}

func findScored(list []ScoredMove, uci string) (ScoredMove, bool) {
	for _, sm := range list {
		if sm.UCI == uci {
			return sm, true
		}
	}
	return ScoredMove{}, false
}

func TestEvaluateRanksMonotonically(t *testing.T) {
	e := NewEvaluator(WithRandomSeed(7))
	for _, fen := range []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		queenTakesRookFEN,
		backRankMateFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	} {
		g := mustGame(t, fen)
		for _, mode := range []Mode{ModeOpponent, ModeRecommend} {
			ranked := e.Evaluate(g, g.LegalMoves(), mode)
			if len(ranked) == 0 {
				t.Fatalf("%s %s: expected non-empty ranking", fen, mode)
			}
			for i := 1; i < len(ranked); i++ {
				if ranked[i].Score > ranked[i-1].Score {
					t.Fatalf("%s %s: score increased at %d: %.3f > %.3f", fen, mode, i, ranked[i].Score, ranked[i-1].Score)
				}
			}
		}
	}
}

func TestEvaluateEmptyCandidates(t *testing.T) {
	e := NewEvaluator()
	got := e.Evaluate(NewGame(), nil, ModeRecommend)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestQueenCaptureWithCheckBeatsCenterMove(t *testing.T) {
	g := mustGame(t, queenTakesRookFEN)
	e := NewEvaluator(WithRandomSeed(42))

	ranked := e.Evaluate(g, g.LegalMoves(), ModeRecommend)
	if ranked[0].UCI != "a8a1" {
		t.Fatalf("expected Qxa1+ first, got %s (%.2f)", ranked[0].UCI, ranked[0].Score)
	}
	top := ranked[0]
	if top.Captured != nchess.Rook {
		t.Fatalf("expected captured rook, got %v", top.Captured)
	}
	if top.Score < 5.5 || top.Score >= 5.6 {
		t.Fatalf("expected score in [5.5, 5.6), got %.3f", top.Score)
	}
	if top.Explanation != "Captures R (+5). Gives check." {
		t.Fatalf("unexpected explanation %q", top.Explanation)
	}

	center, ok := findScored(ranked, "a8e4")
	if !ok {
		t.Fatalf("expected Qe4 among candidates")
	}
	if center.Score >= top.Score {
		t.Fatalf("center-only move %.3f should score below capture with check %.3f", center.Score, top.Score)
	}
	if center.Explanation != "Controls center." {
		t.Fatalf("unexpected center explanation %q", center.Explanation)
	}
}

func TestCaptureCheckDominatesQuietMoveWithoutJitter(t *testing.T) {
	g := mustGame(t, queenTakesRookFEN)
	e := NewEvaluator(WithoutJitter())

	for _, mode := range []Mode{ModeOpponent, ModeRecommend} {
		ranked := e.Evaluate(g, g.LegalMoves(), mode)
		capture, ok := findScored(ranked, "a8a1")
		if !ok {
			t.Fatalf("%s: missing a8a1", mode)
		}
		if math.Abs(capture.Score-5.5) > 1e-9 {
			t.Fatalf("%s: expected exactly 5.5 without jitter, got %.3f", mode, capture.Score)
		}
		for _, sm := range ranked {
			if sm.IsCapture() || sm.UCI == capture.UCI {
				continue
			}
			if sm.Score+0.1 >= capture.Score {
				t.Fatalf("%s: %s (%.3f) not dominated by capture-with-check", mode, sm.UCI, sm.Score)
			}
		}
	}
}

func TestRecommendRanksMateFirst(t *testing.T) {
	g := mustGame(t, backRankMateFEN)
	e := NewEvaluator(WithRandomSeed(1))

	analysis := e.Recommend(g, 0)
	if len(analysis.Moves) != 3 {
		t.Fatalf("expected top 3, got %d", len(analysis.Moves))
	}
	best := analysis.Moves[0]
	if best.UCI != "a1a8" {
		t.Fatalf("expected Ra8# first, got %s", best.UCI)
	}
	if best.Score < 10.5 {
		t.Fatalf("expected mate bonus to dominate, got %.3f", best.Score)
	}
	if !strings.Contains(best.Explanation, "Checkmate!") {
		t.Fatalf("expected checkmate in explanation, got %q", best.Explanation)
	}
	if analysis.Position.Turn != "White" {
		t.Fatalf("unexpected turn %q", analysis.Position.Turn)
	}
	wantSummary := "Found " + strconv.Itoa(analysis.Position.LegalMoves) + " legal moves. Top recommendations analyzed."
	if analysis.Summary != wantSummary {
		t.Fatalf("summary mismatch: %q vs %q", analysis.Summary, wantSummary)
	}
}

func TestOpponentModeSkipsMateAndDevelopmentBonus(t *testing.T) {
	g := mustGame(t, backRankMateFEN)
	e := NewEvaluator(WithoutJitter())

	ranked := e.Evaluate(g, g.LegalMoves(), ModeOpponent)
	mate, ok := findScored(ranked, "a1a8")
	if !ok {
		t.Fatalf("missing a1a8")
	}
	if math.Abs(mate.Score-0.5) > 1e-9 {
		t.Fatalf("opponent mode should only add the check bonus, got %.3f", mate.Score)
	}
	if mate.Explanation != "" {
		t.Fatalf("opponent mode should not explain, got %q", mate.Explanation)
	}

	start := NewGame()
	ranked = e.Evaluate(start, start.LegalMoves(), ModeOpponent)
	knight, ok := findScored(ranked, "g1f3")
	if !ok {
		t.Fatalf("missing g1f3")
	}
	if knight.Score != 0 {
		t.Fatalf("opponent mode should not reward development, got %.3f", knight.Score)
	}
}

func TestRecommendDevelopmentAndSolidMove(t *testing.T) {
	g := NewGame()
	e := NewEvaluator(WithoutJitter())
	ranked := e.Evaluate(g, g.LegalMoves(), ModeRecommend)

	knight, _ := findScored(ranked, "g1f3")
	if math.Abs(knight.Score-0.2) > 1e-9 || knight.Explanation != "Develops piece." {
		t.Fatalf("unexpected knight development score %.3f %q", knight.Score, knight.Explanation)
	}
	pawn, _ := findScored(ranked, "e2e4")
	if math.Abs(pawn.Score-0.3) > 1e-9 || pawn.Explanation != "Controls center." {
		t.Fatalf("unexpected e4 score %.3f %q", pawn.Score, pawn.Explanation)
	}
	edge, _ := findScored(ranked, "a2a3")
	if edge.Score != 0 || edge.Explanation != "Solid move." {
		t.Fatalf("unexpected a3 score %.3f %q", edge.Score, edge.Explanation)
	}
}

func TestJitterBounded(t *testing.T) {
	g := NewGame()
	plain := NewEvaluator(WithoutJitter()).Evaluate(g, g.LegalMoves(), ModeRecommend)
	base := map[string]float64{}
	for _, sm := range plain {
		base[sm.UCI] = sm.Score
	}
	e := NewEvaluator(WithRandomSeed(99))
	for round := 0; round < 20; round++ {
		for _, sm := range e.Evaluate(g, g.LegalMoves(), ModeRecommend) {
			delta := sm.Score - base[sm.UCI]
			if delta < 0 || delta >= 0.1 {
				t.Fatalf("jitter out of range for %s: %.4f", sm.UCI, delta)
			}
		}
	}
}

func TestSeededEvaluatorsAgree(t *testing.T) {
	g := mustGame(t, queenTakesRookFEN)
	a := NewEvaluator(WithRandomSeed(5)).Evaluate(g, g.LegalMoves(), ModeRecommend)
	b := NewEvaluator(WithRandomSeed(5)).Evaluate(g, g.LegalMoves(), ModeRecommend)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("seeded evaluations differ (-a +b):\n%s", diff)
	}
}

func TestBestMoveIsAlwaysLegal(t *testing.T) {
	e := NewEvaluator(WithRandomSeed(3))
	g := NewGame()
	for ply := 0; ply < 40 && !g.IsOver(); ply++ {
		best, err := e.BestMove(g)
		if err != nil {
			t.Fatalf("ply %d: BestMove: %v", ply, err)
		}
		if err := g.ApplyCandidate(best.Candidate); err != nil {
			t.Fatalf("ply %d: applying %s failed: %v", ply, best.UCI, err)
		}
	}
}

func TestNoLegalMoves(t *testing.T) {
	g := mustGame(t, stalemateFEN)
	e := NewEvaluator()
	if _, err := e.BestMove(g); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("expected ErrNoLegalMoves, got %v", err)
	}
	analysis := e.Recommend(g, 3)
	if len(analysis.Moves) != 0 || analysis.Summary != "No legal moves available." {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
}

func TestValidateWeights(t *testing.T) {
	w, err := GetWeights(ModeRecommend)
	if err != nil {
		t.Fatalf("GetWeights: %v", err)
	}
	if err := ValidateWeights(w); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	bad := w
	bad.JitterMax = 1.5
	if err := ValidateWeights(bad); err == nil {
		t.Fatalf("expected jitter >= 1 to be rejected")
	}
	bad = w
	bad.CheckBonus = -1
	if err := ValidateWeights(bad); err == nil {
		t.Fatalf("expected negative bonus to be rejected")
	}
	if _, err := GetWeights(Mode(9)); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}
