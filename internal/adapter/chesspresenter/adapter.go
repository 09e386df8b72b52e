package chesspresenter

import (
	"github.com/park285/Cheese-chess-coach/internal/assistant"
	"github.com/park285/Cheese-chess-coach/internal/domain"
	"github.com/park285/Cheese-chess-coach/internal/session"
	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

func ToDTOTag(t session.Tag) chessdto.MoveTag {
	return chessdto.MoveTag{InstanceID: t.InstanceID, Counter: t.Counter}
}

func FromDTOTag(t chessdto.MoveTag) session.Tag {
	return session.Tag{InstanceID: t.InstanceID, Counter: t.Counter}
}

func ToDTOState(s session.Snapshot) *chessdto.GameState {
	history := make([]chessdto.MovePair, 0, len(s.History))
	for _, p := range s.History {
		history = append(history, chessdto.MovePair{White: p.White, Black: p.Black})
	}
	var last *chessdto.LastMove
	if s.LastMove != nil {
		last = &chessdto.LastMove{From: s.LastMove.From, To: s.LastMove.To}
	}
	return &chessdto.GameState{
		GameID:    s.GameID,
		Tag:       ToDTOTag(s.Tag),
		State:     s.State.String(),
		FEN:       s.FEN,
		Turn:      s.Turn,
		HumanSide: s.HumanSide,
		CapturedPieces: chessdto.CapturedPieces{
			White: nonNil(s.Captured.White),
			Black: nonNil(s.Captured.Black),
		},
		MoveHistory:  history,
		LastMove:     last,
		MaterialDiff: s.MaterialDiff,
		OpeningCode:  s.OpeningCode,
		OpeningTitle: s.OpeningTitle,
		Result:       s.Result,
	}
}

func ToDTORecommendations(list []assistant.Recommendation) []chessdto.Recommendation {
	out := make([]chessdto.Recommendation, 0, len(list))
	for _, r := range list {
		out = append(out, chessdto.Recommendation{
			From:        r.From,
			To:          r.To,
			Promotion:   r.Promotion,
			Notation:    r.Notation,
			Tag:         ToDTOTag(r.Tag),
			Title:       r.Title,
			Explanation: r.Explanation,
			Score:       r.Score,
		})
	}
	return out
}

// FromDTORecommendation keeps only what the session checks: squares,
// promotion and the tag.
func FromDTORecommendation(r chessdto.Recommendation) session.RecommendedMove {
	return session.RecommendedMove{
		From:      r.From,
		To:        r.To,
		Promotion: r.Promotion,
		Notation:  r.Notation,
		Tag:       FromDTOTag(r.Tag),
	}
}

func ToDTOAnalysis(a assistant.AnalysisResult) chessdto.AnalysisResponse {
	moves := make([]chessdto.MoveInsight, 0, len(a.Moves))
	for _, m := range a.Moves {
		moves = append(moves, chessdto.MoveInsight{
			Move:        m.Move,
			From:        m.From,
			To:          m.To,
			Promotion:   m.Promotion,
			Score:       m.Score,
			Explanation: m.Explanation,
			Piece:       m.Piece,
			Captured:    m.Captured,
		})
	}
	out := chessdto.AnalysisResponse{
		RequestType: a.RequestType,
		Moves:       moves,
		Analysis:    a.Analysis,
		BoardState: chessdto.BoardState{
			FEN:         a.BoardState.FEN,
			Turn:        a.BoardState.Turn,
			IsCheck:     a.BoardState.IsCheck,
			IsCheckmate: a.BoardState.IsCheckmate,
			IsStalemate: a.BoardState.IsStalemate,
			IsDraw:      a.BoardState.IsDraw,
			LegalMoves:  a.BoardState.LegalMoves,
		},
	}
	if p := a.Position; p != nil {
		out.Position = &chessdto.PositionDetail{
			MoveNumber:      p.MoveNumber,
			MaterialDiff:    p.MaterialDiff,
			CapturedByWhite: nonNil(p.CapturedByW),
			CapturedByBlack: nonNil(p.CapturedByB),
			RecentMoves:     nonNil(p.RecentMoves),
			OpeningCode:     p.OpeningCode,
			OpeningTitle:    p.OpeningTitle,
		}
	}
	return out
}

func ToDTOGames(list []*domain.FinishedGame) []*chessdto.FinishedGame {
	out := make([]*chessdto.FinishedGame, 0, len(list))
	for _, g := range list {
		if dto := ToDTOGame(g); dto != nil {
			out = append(out, dto)
		}
	}
	return out
}

func ToDTOGame(g *domain.FinishedGame) *chessdto.FinishedGame {
	if g == nil {
		return nil
	}
	return &chessdto.FinishedGame{
		ID:           g.ID,
		InstanceID:   g.InstanceID,
		HumanSide:    g.HumanSide,
		Result:       g.Result,
		ResultMethod: g.ResultMethod,
		ResultText:   g.ResultText,
		MovesSAN:     nonNil(g.MovesSAN),
		MovesUCI:     nonNil(g.MovesUCI),
		PGN:          g.PGN,
		OpeningCode:  g.OpeningCode,
		OpeningTitle: g.OpeningTitle,
		StartedAt:    g.StartedAt,
		EndedAt:      g.EndedAt,
		DurationMS:   g.Duration.Milliseconds(),
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
