package chess

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultTopN         = 3
	solidMoveText       = "Solid move."
	noLegalMovesSummary = "No legal moves available."
)

// ScoredMove is a candidate with its heuristic score. Not persisted.
type ScoredMove struct {
	Candidate
	Score       float64
	Explanation string
}

// PositionMeta is the aggregate position information attached to recommendations.
type PositionMeta struct {
	FEN        string
	Turn       string
	InCheck    bool
	Checkmate  bool
	Stalemate  bool
	Draw       bool
	LegalMoves int
}

// Analysis is the recommendation-mode result: the top moves plus position metadata.
type Analysis struct {
	Moves    []ScoredMove
	Summary  string
	Position PositionMeta
}

// Evaluator is a one-ply heuristic move scorer. It performs no search.
type Evaluator struct {
	randMu sync.Mutex
	rand   *rand.Rand
	jitter bool
}

type EvaluatorOption func(*Evaluator)

// WithRandomSeed makes the jitter sequence reproducible.
func WithRandomSeed(seed int64) EvaluatorOption {
	return func(e *Evaluator) { e.rand = rand.New(rand.NewSource(seed)) }
}

// WithoutJitter disables the tie-break term.
func WithoutJitter() EvaluatorOption {
	return func(e *Evaluator) { e.jitter = false }
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		jitter: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) random() *rand.Rand {
	e.randMu.Lock()
	seed := e.rand.Int63()
	e.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func (e *Evaluator) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}

// Evaluate scores every candidate and returns them best first.
// An empty candidate list yields an empty result.
func (e *Evaluator) Evaluate(pos Simulator, moves []Candidate, mode Mode) []ScoredMove {
	if len(moves) == 0 {
		return []ScoredMove{}
	}
	w, err := GetWeights(mode)
	if err != nil {
		w, _ = GetWeights(ModeOpponent)
	}
	r := e.random()

	scored := make([]ScoredMove, 0, len(moves))
	for _, c := range moves {
		scored = append(scored, e.score(pos, c, w, r))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func (e *Evaluator) score(pos Simulator, c Candidate, w Weights, r *rand.Rand) ScoredMove {
	var (
		score float64
		why   []string
	)

	if c.IsCapture() {
		value := CaptureValue(c.Captured)
		score += float64(value)
		why = append(why, fmt.Sprintf("Captures %s (+%d).", PieceLetter(c.Captured), value))
	}

	if pos != nil {
		if sim, err := pos.Simulate(c); err == nil {
			if sim.Check && w.CheckBonus > 0 {
				score += w.CheckBonus
				why = append(why, "Gives check.")
			}
			if sim.Checkmate && w.MateBonus > 0 {
				score += w.MateBonus
				why = append(why, "Checkmate!")
			}
		}
	}

	if isCenterSquare(c.To) && w.CenterBonus > 0 {
		score += w.CenterBonus
		why = append(why, "Controls center.")
	}

	if w.DevelopBonus > 0 && developsPiece(c) {
		score += w.DevelopBonus
		why = append(why, "Develops piece.")
	}

	if e.jitter && w.JitterMax > 0 && r != nil {
		score += r.Float64() * w.JitterMax
	}

	out := ScoredMove{Candidate: c, Score: score}
	if w.Explain {
		out.Explanation = strings.Join(why, " ")
		if out.Explanation == "" {
			out.Explanation = solidMoveText
		}
	}
	return out
}

// BestMove picks the automated opponent's reply.
func (e *Evaluator) BestMove(g *Game) (ScoredMove, error) {
	if g == nil {
		return ScoredMove{}, ErrNoLegalMoves
	}
	ranked := e.Evaluate(g, g.LegalMoves(), ModeOpponent)
	if len(ranked) == 0 {
		return ScoredMove{}, ErrNoLegalMoves
	}
	return ranked[0], nil
}

// Recommend ranks moves for a human and keeps the best limit of them.
// limit <= 0 uses the mode's default of three.
func (e *Evaluator) Recommend(g *Game, limit int) Analysis {
	if g == nil {
		return Analysis{Moves: []ScoredMove{}, Summary: noLegalMovesSummary}
	}
	moves := g.LegalMoves()
	meta := describe(g, len(moves))
	if len(moves) == 0 {
		return Analysis{Moves: []ScoredMove{}, Summary: noLegalMovesSummary, Position: meta}
	}

	if limit <= 0 {
		limit = defaultTopN
		if w, err := GetWeights(ModeRecommend); err == nil {
			limit = w.TopN
		}
	}
	ranked := e.Evaluate(g, moves, ModeRecommend)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return Analysis{
		Moves:    ranked,
		Summary:  fmt.Sprintf("Found %d legal moves. Top recommendations analyzed.", len(moves)),
		Position: meta,
	}
}

// DescribePosition collects side to move, status flags and the legal-move count.
func DescribePosition(g *Game) PositionMeta {
	return describe(g, len(g.LegalMoves()))
}

func describe(g *Game, legal int) PositionMeta {
	return PositionMeta{
		FEN:        g.FEN(),
		Turn:       SideName(g.Turn()),
		InCheck:    g.InCheck(),
		Checkmate:  g.IsCheckmate(),
		Stalemate:  g.IsStalemate(),
		Draw:       g.IsDraw(),
		LegalMoves: legal,
	}
}
