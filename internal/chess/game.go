package chess

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

var (
	ErrIllegalMove  = errors.New("illegal chess move")
	ErrNoLegalMoves = errors.New("no legal moves available")
)

// Game wraps the rules engine. All legality, check and termination
// questions are answered by corentings/chess; this type only adapts them.
type Game struct {
	g *nchess.Game
}

// Simulation reports what a candidate move would do to a disposable copy
// of the position.
type Simulation struct {
	Check     bool
	Checkmate bool
	Stalemate bool
}

// Simulator is the one-ply lookahead the evaluator needs.
type Simulator interface {
	Simulate(c Candidate) (Simulation, error)
}

func NewGame() *Game {
	return &Game{g: nchess.NewGame()}
}

func NewGameFromFEN(fen string) (*Game, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return &Game{g: nchess.NewGame(opt)}, nil
}

// ReplayGame rebuilds a game from the start position by applying UCI moves in order.
func ReplayGame(moves []string) (*Game, error) {
	game := NewGame()
	for _, mv := range moves {
		if err := game.applyUCI(mv); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", mv, err)
		}
	}
	return game, nil
}

func (g *Game) Clone() *Game {
	return &Game{g: g.g.Clone()}
}

// LegalMoves lists every legal move for the side to move.
func (g *Game) LegalMoves() []Candidate {
	pos := g.g.Position()
	moves := g.g.ValidMoves()
	out := make([]Candidate, 0, len(moves))
	for i := range moves {
		out = append(out, candidateFromMove(pos, &moves[i]))
	}
	return out
}

// Apply plays from→to. An empty promotion on a promoting move defaults to a queen.
func (g *Game) Apply(from, to string, promo nchess.PieceType) (Candidate, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == "" || to == "" {
		return Candidate{}, ErrIllegalMove
	}

	var match *Candidate
	for _, c := range g.LegalMoves() {
		if c.From != from || c.To != to {
			continue
		}
		if c.Promotion == promo || (promo == nchess.NoPieceType && c.Promotion == nchess.Queen) {
			cc := c
			match = &cc
			break
		}
	}
	if match == nil {
		return Candidate{}, ErrIllegalMove
	}
	if err := g.applyUCI(match.UCI); err != nil {
		return Candidate{}, err
	}
	return *match, nil
}

// ApplyCandidate plays a candidate previously produced by LegalMoves.
func (g *Game) ApplyCandidate(c Candidate) error {
	return g.applyUCI(c.UCI)
}

func (g *Game) applyUCI(uci string) error {
	mv := strings.ToLower(strings.TrimSpace(uci))
	if mv == "" {
		return ErrIllegalMove
	}
	if err := g.g.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, mv)
	}
	return nil
}

func (g *Game) Simulate(c Candidate) (Simulation, error) {
	clone := g.g.Clone()
	if err := clone.PushNotationMove(c.UCI, nchess.UCINotation{}, nil); err != nil {
		return Simulation{}, fmt.Errorf("%w: %s", ErrIllegalMove, c.UCI)
	}
	sim := Simulation{
		Checkmate: clone.Outcome() != nchess.NoOutcome && clone.Method() == nchess.Checkmate,
		Stalemate: clone.Outcome() == nchess.Draw && clone.Method() == nchess.Stalemate,
	}
	if last := lastMove(clone); last != nil && last.HasTag(nchess.Check) {
		sim.Check = true
	}
	if sim.Checkmate {
		sim.Check = true
	}
	return sim, nil
}

// InCheck reports whether the side to move is in check. The rules engine
// only exposes this through the tag on the move that produced the position,
// so a position loaded from FEN with no history reports check only when mated.
func (g *Game) InCheck() bool {
	if last := lastMove(g.g); last != nil {
		return last.HasTag(nchess.Check)
	}
	return g.IsCheckmate()
}

func (g *Game) IsCheckmate() bool {
	return g.g.Outcome() != nchess.NoOutcome && g.g.Method() == nchess.Checkmate
}

func (g *Game) IsStalemate() bool {
	return g.g.Outcome() == nchess.Draw && g.g.Method() == nchess.Stalemate
}

func (g *Game) IsDraw() bool {
	return g.g.Outcome() == nchess.Draw
}

func (g *Game) IsOver() bool {
	return g.g.Outcome() != nchess.NoOutcome
}

func (g *Game) Outcome() nchess.Outcome { return g.g.Outcome() }

func (g *Game) Method() nchess.Method { return g.g.Method() }

func (g *Game) Turn() nchess.Color { return g.g.Position().Turn() }

func (g *Game) FEN() string { return g.g.FEN() }

func (g *Game) Board() *nchess.Board { return g.g.Position().Board() }

// PGN renders the game with the rules engine's own PGN writer.
func (g *Game) PGN() string { return g.g.String() }

func (g *Game) MoveCount() int { return len(g.g.Moves()) }

// History returns the moves played so far in SAN.
func (g *Game) History() []string {
	positions := g.g.Positions()
	moves := g.g.Moves()
	out := make([]string, len(moves))
	notation := nchess.AlgebraicNotation{}
	for i, mv := range moves {
		if i < len(positions) {
			out[i] = notation.Encode(positions[i], mv)
		}
	}
	return out
}

// UCIHistory returns the moves played so far in UCI, the form snapshots are stored in.
func (g *Game) UCIHistory() []string {
	positions := g.g.Positions()
	moves := g.g.Moves()
	out := make([]string, len(moves))
	notation := nchess.UCINotation{}
	for i, mv := range moves {
		if i < len(positions) {
			out[i] = strings.ToLower(notation.Encode(positions[i], mv))
		}
	}
	return out
}

// LastMove returns the from/to squares of the most recent move.
func (g *Game) LastMove() (from, to string, ok bool) {
	last := lastMove(g.g)
	if last == nil {
		return "", "", false
	}
	return SquareName(last.S1()), SquareName(last.S2()), true
}

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

// ecoBookOnce parses the ECO table on first use; BookECO is safe for
// concurrent lookups.
func ecoBookOnce() *opening.BookECO {
	ecoOnce.Do(func() { ecoBook = opening.NewBookECO() })
	return ecoBook
}

// Opening returns the ECO code and title of the line played so far, if known.
func (g *Game) Opening() (string, string) {
	book := ecoBookOnce()
	if book == nil {
		return "", ""
	}
	if eco := book.Find(g.g.Moves()); eco != nil {
		return eco.Code(), eco.Title()
	}
	return "", ""
}

// ASCII draws the board rank 8 first, white pieces upper-case.
func (g *Game) ASCII() string {
	board := g.Board()
	var sb strings.Builder
	sb.WriteString("   +------------------------+\n")
	for rank := nchess.Rank8; ; rank-- {
		sb.WriteString(fmt.Sprintf(" %d |", int(rank)+1))
		for file := nchess.FileA; file <= nchess.FileH; file++ {
			piece := board.Piece(nchess.NewSquare(file, rank))
			sb.WriteString(" ")
			sb.WriteString(pieceGlyph(piece))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
		if rank == nchess.Rank1 {
			break
		}
	}
	sb.WriteString("   +------------------------+\n")
	sb.WriteString("     a  b  c  d  e  f  g  h")
	return sb.String()
}

func lastMove(game *nchess.Game) *nchess.Move {
	moves := game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

func pieceGlyph(piece nchess.Piece) string {
	if piece == nchess.NoPiece {
		return "."
	}
	letter := PieceLetter(piece.Type())
	if piece.Color() == nchess.Black {
		return strings.ToLower(letter)
	}
	return letter
}

// SideName is the display name of a color.
func SideName(c nchess.Color) string {
	switch c {
	case nchess.White:
		return "White"
	case nchess.Black:
		return "Black"
	default:
		return ""
	}
}
