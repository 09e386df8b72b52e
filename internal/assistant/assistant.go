package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-coach/internal/chess"
	"github.com/park285/Cheese-chess-coach/internal/llm"
	"github.com/park285/Cheese-chess-coach/internal/msgcat"
	"github.com/park285/Cheese-chess-coach/internal/session"
)

const (
	recentMoveWindow = 4
	defaultTopN      = 3
)

var (
	moveIntentKeywords = []string{"move", "suggest", "recommend", "analyze", "best", "what should", "help", "advice"}
	medals             = []string{"🥇", "🥈", "🥉"}
)

// Sessions is the lookup the assistant needs from the session registry.
type Sessions interface {
	Get(gameID string) (*session.GameSession, error)
}

type Intent string

const (
	IntentMoves    Intent = "moves"
	IntentGeneral  Intent = "general"
	IntentFallback Intent = "fallback"
	IntentNoGame   Intent = "no_game"
)

// Recommendation is a clickable move offered in a chat reply.
type Recommendation struct {
	session.RecommendedMove
	Title       string  `json:"title"`
	Explanation string  `json:"explanation"`
	Score       float64 `json:"score"`
}

type Reply struct {
	Text            string
	Intent          Intent
	Recommendations []Recommendation
}

type Assistant struct {
	sessions  Sessions
	evaluator *chess.Evaluator
	model     llm.Completer
	catalog   *msgcat.Catalog
	logger    *zap.Logger
	topN      int
}

func New(sessions Sessions, evaluator *chess.Evaluator, model llm.Completer, catalog *msgcat.Catalog, logger *zap.Logger) *Assistant {
	if evaluator == nil {
		evaluator = chess.NewEvaluator()
	}
	if catalog == nil {
		catalog = msgcat.MustDefault()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		sessions:  sessions,
		evaluator: evaluator,
		model:     model,
		catalog:   catalog,
		logger:    logger,
		topN:      defaultTopN,
	}
}

// Analyze is the evaluatePosition tool: "moves" ranks the top moves,
// "position" describes the position without ranking.
func (a *Assistant) Analyze(ctx context.Context, gameID, requestType string) (AnalysisResult, error) {
	kind, err := normalizeRequestType(requestType)
	if err != nil {
		return AnalysisResult{}, err
	}
	sess, err := a.sessions.Get(gameID)
	if err != nil {
		return AnalysisResult{}, err
	}
	game, tag := sess.Position()
	return a.analyze(game, tag, kind), nil
}

// IsMoveIntent reports whether a chat prompt asks for move advice.
func IsMoveIntent(prompt string) bool {
	p := strings.ToLower(prompt)
	for _, kw := range moveIntentKeywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return false
}

// Chat answers a free-form question. Language model failures degrade to the
// canned help text, never to an error.
func (a *Assistant) Chat(ctx context.Context, gameID, prompt string) (Reply, error) {
	sess, err := a.sessions.Get(gameID)
	if err != nil {
		return Reply{Text: a.catalog.Text("chat.no_game"), Intent: IntentNoGame}, nil
	}
	game, tag := sess.Position()
	system := a.catalog.Text("chat.system")

	if IsMoveIntent(prompt) {
		analysis := a.analyze(game, tag, RequestMoves)
		if len(analysis.Moves) > 0 {
			reply, err := a.moveReply(ctx, system, game, analysis)
			if err == nil {
				return reply, nil
			}
			a.logger.Warn("chess_chat_move_commentary_failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}

	text, err := a.complete(ctx, system, "chat.general_prompt", map[string]any{
		"Board":       game.ASCII(),
		"Turn":        chess.SideName(game.Turn()),
		"MoveNumber":  moveNumber(game),
		"Status":      a.statusText(game),
		"RecentMoves": a.recentMovesText(game),
		"Question":    prompt,
	})
	if err != nil {
		a.logger.Warn("chess_chat_failed", zap.String("game_id", gameID), zap.Error(err))
		return Reply{Text: a.catalog.Text("chat.fallback_help"), Intent: IntentFallback}, nil
	}
	return Reply{Text: text, Intent: IntentGeneral}, nil
}

func (a *Assistant) moveReply(ctx context.Context, system string, game *chess.Game, analysis AnalysisResult) (Reply, error) {
	payload, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return Reply{}, fmt.Errorf("marshal analysis: %w", err)
	}
	commentary, err := a.complete(ctx, system, "chat.move_prompt", map[string]any{
		"Board":      game.ASCII(),
		"Turn":       chess.SideName(game.Turn()),
		"MoveNumber": moveNumber(game),
		"Status":     a.statusText(game),
		"Analysis":   string(payload),
	})
	if err != nil {
		return Reply{}, err
	}

	recs := a.recommendations(analysis)
	var b strings.Builder
	b.WriteString(commentary)
	b.WriteString("\n\n")
	b.WriteString(a.catalog.Text("chat.buttons_header"))
	b.WriteString("\n\n")
	for _, r := range recs {
		b.WriteString(r.Title)
		b.WriteString("\n")
		b.WriteString(a.catalog.RenderOr("chat.button_explanation", map[string]any{"Explanation": r.Explanation}, r.Explanation))
		b.WriteString("\n\n")
	}
	b.WriteString(a.catalog.Text("chat.button_hint"))
	b.WriteString("\n")
	b.WriteString(a.catalog.Text("chat.button_note"))
	b.WriteString("\n")
	return Reply{Text: b.String(), Intent: IntentMoves, Recommendations: recs}, nil
}

// recommendations turns the top moves into buttons stamped with the tag
// current at analysis time.
func (a *Assistant) recommendations(analysis AnalysisResult) []Recommendation {
	n := len(analysis.Moves)
	if n > len(medals) {
		n = len(medals)
	}
	out := make([]Recommendation, 0, n)
	for i := 0; i < n; i++ {
		mv := analysis.Moves[i]
		score := fmt.Sprintf("%.1f", mv.Score)
		title := a.catalog.RenderOr("chat.button_title", map[string]any{
			"Medal":     medals[i],
			"SAN":       mv.Move,
			"ShowScore": mv.Score > 0,
			"Score":     score,
		}, medals[i]+" Play "+mv.Move)
		out = append(out, Recommendation{
			RecommendedMove: session.RecommendedMove{
				From:      mv.From,
				To:        mv.To,
				Promotion: mv.Promotion,
				Notation:  mv.Move,
				Tag:       analysis.Tag,
			},
			Title:       title,
			Explanation: mv.Explanation,
			Score:       mv.Score,
		})
	}
	return out
}

func (a *Assistant) complete(ctx context.Context, system, key string, data map[string]any) (string, error) {
	if a.model == nil {
		return "", llm.ErrNotConfigured
	}
	prompt, err := a.catalog.Render(key, data)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return a.model.Complete(ctx, system, prompt)
}

// ApplyRecommendation forwards a clicked recommendation to its session.
func (a *Assistant) ApplyRecommendation(ctx context.Context, gameID string, rec session.RecommendedMove) (session.Snapshot, error) {
	sess, err := a.sessions.Get(gameID)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap, err := sess.ApplyRecommendation(ctx, rec)
	if err != nil {
		a.logger.Info("chess_recommendation_rejected",
			zap.String("game_id", gameID),
			zap.String("notation", rec.Notation),
			zap.Error(err),
		)
	}
	return snap, err
}

func (a *Assistant) statusText(game *chess.Game) string {
	switch {
	case game.IsCheckmate():
		return a.catalog.Text("status.checkmate")
	case game.InCheck():
		return a.catalog.Text("status.check")
	default:
		return a.catalog.Text("status.normal")
	}
}

func (a *Assistant) recentMovesText(game *chess.Game) string {
	recent := recentMoves(game, recentMoveWindow)
	if len(recent) == 0 {
		return a.catalog.Text("chat.recent_moves_empty")
	}
	return strings.Join(recent, ", ")
}
