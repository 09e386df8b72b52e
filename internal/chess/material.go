package chess

import (
	nchess "github.com/corentings/chess/v2"
)

var (
	initialPieceCounts = map[nchess.PieceType]int{
		nchess.Pawn:   8,
		nchess.Knight: 2,
		nchess.Bishop: 2,
		nchess.Rook:   2,
		nchess.Queen:  1,
	}
	materialBase = func() int {
		base := 0
		for pt, count := range initialPieceCounts {
			base += count * pieceValues[pt]
		}
		return base
	}()
	capturedDisplayOrder = []nchess.PieceType{nchess.Queen, nchess.Rook, nchess.Bishop, nchess.Knight, nchess.Pawn}
)

type MaterialScore struct {
	White int
	Black int
}

func (m MaterialScore) Diff() int {
	return m.White - m.Black
}

// CapturedPieces tallies what each side has taken. White holds black pieces
// captured by White; Black holds white pieces captured by Black. The order
// slices follow the move history.
type CapturedPieces struct {
	White      map[nchess.PieceType]int
	Black      map[nchess.PieceType]int
	WhiteOrder []nchess.PieceType
	BlackOrder []nchess.PieceType
}

func (c CapturedPieces) IsEmpty() bool {
	return len(c.White) == 0 && len(c.Black) == 0
}

// Letters expands the tallies into piece letters, highest value first.
// Captured black pieces are lower-case, captured white pieces upper-case.
func (c CapturedPieces) Letters(by nchess.Color) []string {
	tally := c.White
	lower := true
	if by == nchess.Black {
		tally = c.Black
		lower = false
	}
	out := make([]string, 0)
	for _, pt := range capturedDisplayOrder {
		letter := PieceLetter(pt)
		if lower {
			letter = string(letter[0] + ('a' - 'A'))
		}
		for i := 0; i < tally[pt]; i++ {
			out = append(out, letter)
		}
	}
	return out
}

func InitialMaterialScore() MaterialScore {
	return MaterialScore{White: materialBase, Black: materialBase}
}

// ComputeMaterial counts material on the board and derives captured pieces
// by comparing against the initial set, the way a promotion-unaware tally does.
func ComputeMaterial(g *Game) (MaterialScore, CapturedPieces) {
	captured := CapturedPieces{
		White:      map[nchess.PieceType]int{},
		Black:      map[nchess.PieceType]int{},
		WhiteOrder: make([]nchess.PieceType, 0),
		BlackOrder: make([]nchess.PieceType, 0),
	}
	if g == nil {
		return InitialMaterialScore(), captured
	}

	totals := map[nchess.Color]int{}
	counts := map[nchess.Color]map[nchess.PieceType]int{
		nchess.White: {},
		nchess.Black: {},
	}
	board := g.Board()
	for file := nchess.FileA; file <= nchess.FileH; file++ {
		for rank := nchess.Rank1; rank <= nchess.Rank8; rank++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			if piece == nchess.NoPiece || piece.Type() == nchess.King {
				continue
			}
			totals[piece.Color()] += pieceValues[piece.Type()]
			counts[piece.Color()][piece.Type()]++
		}
	}

	for pt, initial := range initialPieceCounts {
		if lost := initial - counts[nchess.Black][pt]; lost > 0 {
			captured.White[pt] = lost
		}
		if lost := initial - counts[nchess.White][pt]; lost > 0 {
			captured.Black[pt] = lost
		}
	}

	positions := g.g.Positions()
	for i, mv := range g.g.Moves() {
		if i >= len(positions) {
			break
		}
		if !mv.HasTag(nchess.Capture) && !mv.HasTag(nchess.EnPassant) {
			continue
		}
		pos := positions[i]
		pt := nchess.Pawn
		if !mv.HasTag(nchess.EnPassant) {
			p := pos.Board().Piece(mv.S2())
			if p == nchess.NoPiece {
				continue
			}
			pt = p.Type()
		}
		if pos.Turn() == nchess.White {
			captured.WhiteOrder = append(captured.WhiteOrder, pt)
		} else {
			captured.BlackOrder = append(captured.BlackOrder, pt)
		}
	}

	return MaterialScore{White: totals[nchess.White], Black: totals[nchess.Black]}, captured
}
