package assistant

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/Cheese-chess-coach/internal/chess"
	"github.com/park285/Cheese-chess-coach/internal/session"
)

const (
	RequestMoves    = "moves"
	RequestPosition = "position"
)

var ErrUnknownRequestType = errors.New("unknown analysis request type")

// MoveInsight is one recommended move in the analysis payload.
type MoveInsight struct {
	Move        string  `json:"move"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Promotion   string  `json:"promotion,omitempty"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Piece       string  `json:"piece"`
	Captured    string  `json:"captured,omitempty"`
}

type BoardState struct {
	FEN         string `json:"fen"`
	Turn        string `json:"turn"`
	IsCheck     bool   `json:"isCheck"`
	IsCheckmate bool   `json:"isCheckmate"`
	IsStalemate bool   `json:"isStalemate"`
	IsDraw      bool   `json:"isDraw"`
	LegalMoves  int    `json:"legalMoves"`
}

type PositionDetail struct {
	MoveNumber   int      `json:"moveNumber"`
	MaterialDiff int      `json:"materialDiff"`
	CapturedByW  []string `json:"capturedByWhite"`
	CapturedByB  []string `json:"capturedByBlack"`
	RecentMoves  []string `json:"recentMoves"`
	OpeningCode  string   `json:"openingCode,omitempty"`
	OpeningTitle string   `json:"openingTitle,omitempty"`
}

// AnalysisResult answers evaluatePosition(requestType).
type AnalysisResult struct {
	RequestType string          `json:"requestType"`
	Moves       []MoveInsight   `json:"moves"`
	Analysis    string          `json:"analysis"`
	BoardState  BoardState      `json:"boardState"`
	Position    *PositionDetail `json:"position,omitempty"`
	Tag         session.Tag     `json:"-"`
}

func normalizeRequestType(requestType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(requestType)) {
	case "", RequestMoves:
		return RequestMoves, nil
	case RequestPosition:
		return RequestPosition, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRequestType, requestType)
	}
}

func (a *Assistant) analyze(game *chess.Game, tag session.Tag, requestType string) AnalysisResult {
	if requestType == RequestPosition {
		meta := chess.DescribePosition(game)
		material, captured := chess.ComputeMaterial(game)
		code, title := game.Opening()
		return AnalysisResult{
			RequestType: RequestPosition,
			Moves:       []MoveInsight{},
			Analysis:    positionSummary(meta),
			BoardState:  boardState(meta),
			Position: &PositionDetail{
				MoveNumber:   moveNumber(game),
				MaterialDiff: material.Diff(),
				CapturedByW:  captured.Letters(nchess.White),
				CapturedByB:  captured.Letters(nchess.Black),
				RecentMoves:  recentMoves(game, recentMoveWindow),
				OpeningCode:  code,
				OpeningTitle: title,
			},
			Tag: tag,
		}
	}

	rec := a.evaluator.Recommend(game, a.topN)
	out := AnalysisResult{
		RequestType: RequestMoves,
		Moves:       make([]MoveInsight, 0, len(rec.Moves)),
		Analysis:    rec.Summary,
		BoardState:  boardState(rec.Position),
		Tag:         tag,
	}
	for _, sm := range rec.Moves {
		out.Moves = append(out.Moves, insight(sm))
	}
	return out
}

func insight(sm chess.ScoredMove) MoveInsight {
	mi := MoveInsight{
		Move:        sm.SAN,
		From:        sm.From,
		To:          sm.To,
		Score:       sm.Score,
		Explanation: sm.Explanation,
		Piece:       strings.ToLower(chess.PieceLetter(sm.Piece)),
	}
	if sm.Promotion != nchess.NoPieceType {
		mi.Promotion = strings.ToLower(chess.PieceLetter(sm.Promotion))
	}
	if sm.IsCapture() {
		mi.Captured = strings.ToLower(chess.PieceLetter(sm.Captured))
	}
	return mi
}

func boardState(meta chess.PositionMeta) BoardState {
	return BoardState{
		FEN:         meta.FEN,
		Turn:        meta.Turn,
		IsCheck:     meta.InCheck,
		IsCheckmate: meta.Checkmate,
		IsStalemate: meta.Stalemate,
		IsDraw:      meta.Draw,
		LegalMoves:  meta.LegalMoves,
	}
}

func positionSummary(meta chess.PositionMeta) string {
	switch {
	case meta.Checkmate:
		return "The game is over by checkmate."
	case meta.Stalemate:
		return "The game is drawn by stalemate."
	case meta.Draw:
		return "The game is drawn."
	case meta.InCheck:
		return fmt.Sprintf("%s is in check with %d legal moves.", meta.Turn, meta.LegalMoves)
	default:
		return fmt.Sprintf("%s to move with %d legal moves.", meta.Turn, meta.LegalMoves)
	}
}

// moveNumber counts full moves played, rounding a lone white move up.
func moveNumber(game *chess.Game) int {
	return (game.MoveCount() + 1) / 2
}

func recentMoves(game *chess.Game, n int) []string {
	history := game.History()
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return append([]string{}, history...)
}
