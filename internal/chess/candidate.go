package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Candidate is one legal move as produced by the rules engine. It is never
// mutated after LegalMoves returns it.
type Candidate struct {
	From      string
	To        string
	Piece     nchess.PieceType
	Captured  nchess.PieceType
	Promotion nchess.PieceType
	SAN       string
	UCI       string
}

func (c Candidate) IsCapture() bool {
	return c.Captured != nchess.NoPieceType
}

func candidateFromMove(pos *nchess.Position, mv *nchess.Move) Candidate {
	board := pos.Board()
	c := Candidate{
		From:      SquareName(mv.S1()),
		To:        SquareName(mv.S2()),
		Piece:     nchess.NoPieceType,
		Captured:  nchess.NoPieceType,
		Promotion: mv.Promo(),
		SAN:       nchess.AlgebraicNotation{}.Encode(pos, mv),
		UCI:       strings.ToLower(nchess.UCINotation{}.Encode(pos, mv)),
	}
	if p := board.Piece(mv.S1()); p != nchess.NoPiece {
		c.Piece = p.Type()
	}
	switch {
	case mv.HasTag(nchess.EnPassant):
		c.Captured = nchess.Pawn
	case mv.HasTag(nchess.Capture):
		if p := board.Piece(mv.S2()); p != nchess.NoPiece {
			c.Captured = p.Type()
		}
	}
	return c
}

// SquareName converts a square to algebraic form, e.g. "e4".
func SquareName(sq nchess.Square) string {
	return fmt.Sprintf("%c%c", 'a'+rune(sq.File()), '1'+rune(sq.Rank()))
}

// ParseSquare is the inverse of SquareName.
func ParseSquare(s string) (nchess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return nchess.NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), nil
}

// ParsePromotion accepts "q", "queen", "N" and the like. Empty input means none.
func ParsePromotion(s string) (nchess.PieceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nchess.NoPieceType, nil
	case "q", "queen":
		return nchess.Queen, nil
	case "r", "rook":
		return nchess.Rook, nil
	case "b", "bishop":
		return nchess.Bishop, nil
	case "n", "knight":
		return nchess.Knight, nil
	default:
		return nchess.NoPieceType, fmt.Errorf("invalid promotion %q", s)
	}
}

// PieceLetter is the upper-case English letter for a piece kind.
func PieceLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.King:
		return "K"
	case nchess.Queen:
		return "Q"
	case nchess.Rook:
		return "R"
	case nchess.Bishop:
		return "B"
	case nchess.Knight:
		return "N"
	case nchess.Pawn:
		return "P"
	default:
		return ""
	}
}
