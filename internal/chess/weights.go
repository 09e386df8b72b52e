package chess

import (
	"fmt"
	"math"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
)

// Mode selects which scoring terms apply.
type Mode int

const (
	// ModeOpponent picks a single move for the automated side.
	ModeOpponent Mode = iota
	// ModeRecommend ranks and explains moves for a human.
	ModeRecommend
)

func (m Mode) String() string {
	switch m {
	case ModeOpponent:
		return "opponent"
	case ModeRecommend:
		return "recommend"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Weights are the additive bonuses of one evaluation mode.
type Weights struct {
	Name         string
	CheckBonus   float64
	MateBonus    float64
	CenterBonus  float64
	DevelopBonus float64
	JitterMax    float64
	Explain      bool
	TopN         int
}

var (
	pieceValues = map[nchess.PieceType]int{
		nchess.Pawn:   1,
		nchess.Knight: 3,
		nchess.Bishop: 3,
		nchess.Rook:   5,
		nchess.Queen:  9,
		nchess.King:   0,
	}
	centerSquares = map[string]struct{}{
		"d4": {}, "d5": {}, "e4": {}, "e5": {},
	}
)

var weightsMu sync.RWMutex

var weightsByMode = map[Mode]Weights{
	ModeOpponent: {
		Name:        "opponent",
		CheckBonus:  0.5,
		CenterBonus: 0.3,
		JitterMax:   0.1,
		TopN:        1,
	},
	ModeRecommend: {
		Name:         "recommend",
		CheckBonus:   0.5,
		MateBonus:    10,
		CenterBonus:  0.3,
		DevelopBonus: 0.2,
		JitterMax:    0.1,
		Explain:      true,
		TopN:         3,
	},
}

// GetWeights returns a copy of the weights registered for mode.
func GetWeights(mode Mode) (Weights, error) {
	weightsMu.RLock()
	defer weightsMu.RUnlock()
	w, ok := weightsByMode[mode]
	if !ok {
		return Weights{}, fmt.Errorf("unknown evaluation mode %s", mode)
	}
	return w, nil
}

// RegisterWeights replaces the weights of a mode after validating them.
func RegisterWeights(mode Mode, w Weights) error {
	if err := ValidateWeights(w); err != nil {
		return err
	}
	weightsMu.Lock()
	weightsByMode[mode] = w
	weightsMu.Unlock()
	return nil
}

func ValidateWeights(w Weights) error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("weights name is required")
	}
	for label, v := range map[string]float64{
		"check":   w.CheckBonus,
		"mate":    w.MateBonus,
		"center":  w.CenterBonus,
		"develop": w.DevelopBonus,
		"jitter":  w.JitterMax,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weights %s: %s bonus must be a finite non-negative number", w.Name, label)
		}
	}
	if w.JitterMax >= 1 {
		return fmt.Errorf("weights %s: jitter must stay below 1", w.Name)
	}
	if w.TopN <= 0 {
		return fmt.Errorf("weights %s: top-n must be positive", w.Name)
	}
	return nil
}

// CaptureValue is the material value of a captured piece kind.
func CaptureValue(pt nchess.PieceType) int {
	return pieceValues[pt]
}

func isCenterSquare(sq string) bool {
	_, ok := centerSquares[sq]
	return ok
}

// developsPiece reports a knight or bishop leaving either back rank.
func developsPiece(c Candidate) bool {
	if c.Piece != nchess.Knight && c.Piece != nchess.Bishop {
		return false
	}
	if len(c.From) != 2 {
		return false
	}
	return c.From[1] == '1' || c.From[1] == '8'
}
