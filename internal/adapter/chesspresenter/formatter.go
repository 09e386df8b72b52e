package chesspresenter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-chess-coach/internal/assistant"
	"github.com/park285/Cheese-chess-coach/internal/chess"
	"github.com/park285/Cheese-chess-coach/internal/msgcat"
	"github.com/park285/Cheese-chess-coach/internal/session"
	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

// ErrMalformedRequest marks a request body or command the server could not decode.
var ErrMalformedRequest = errors.New("malformed request")

// Formatter turns domain errors and archived games into user-facing text
// from the message catalog.
type Formatter struct {
	catalog *msgcat.Catalog
}

func NewFormatter(catalog *msgcat.Catalog) *Formatter {
	if catalog == nil {
		catalog = msgcat.MustDefault()
	}
	return &Formatter{catalog: catalog}
}

// Error maps a sentinel to its wire form. Unknown errors become a retryable
// internal error.
func (f *Formatter) Error(err error) *chessdto.DomainError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrStaleRecommendation):
		return &chessdto.DomainError{
			Code:      chessdto.CodeStaleRecommendation,
			Message:   f.catalog.Text("ui.stale"),
			Retryable: true,
			Action:    f.catalog.Text("ui.stale_action"),
		}
	case errors.Is(err, chess.ErrIllegalMove):
		return f.domainError(chessdto.CodeIllegalMove, "ui.invalid", true)
	case errors.Is(err, session.ErrMovePending):
		return f.domainError(chessdto.CodeMovePending, "ui.move_pending", true)
	case errors.Is(err, session.ErrGameOver):
		return f.domainError(chessdto.CodeGameOver, "ui.game_over", false)
	case errors.Is(err, session.ErrNoActiveGame):
		return f.domainError(chessdto.CodeNoActiveGame, "ui.no_game", false)
	case errors.Is(err, assistant.ErrUnknownRequestType), errors.Is(err, ErrMalformedRequest),
		errors.Is(err, session.ErrInvalidGameID):
		return f.domainError(chessdto.CodeBadRequest, "ui.bad_request", false)
	default:
		return &chessdto.DomainError{
			Code:      chessdto.CodeInternal,
			Message:   f.catalog.RenderOr("ui.error", map[string]any{"Error": err.Error()}, "Error applying move: "+err.Error()),
			Retryable: true,
		}
	}
}

func (f *Formatter) domainError(code, key string, retryable bool) *chessdto.DomainError {
	return &chessdto.DomainError{Code: code, Message: f.catalog.Text(key), Retryable: retryable}
}

func (f *Formatter) Applied(notation string) string {
	return f.catalog.RenderOr("ui.applied", map[string]any{"Notation": notation}, "Move applied: "+notation)
}

// History lists archived games, newest first, one per line.
func (f *Formatter) History(games []*chessdto.FinishedGame) string {
	if len(games) == 0 {
		return "No finished games yet."
	}
	var sb strings.Builder
	for i, g := range games {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "#%d %s %s", g.ID, formatShortTime(g.EndedAt), formatResultBadge(g.Result, g.HumanSide))
		if g.OpeningCode != "" {
			fmt.Fprintf(&sb, " · %s %s", g.OpeningCode, g.OpeningTitle)
		}
		fmt.Fprintf(&sb, " · %d plies", len(g.MovesSAN))
		if d := formatGameDuration(time.Duration(g.DurationMS) * time.Millisecond); d != "" {
			sb.WriteString(" · " + d)
		}
	}
	return sb.String()
}

// formatResultBadge reads the result from the human's side.
func formatResultBadge(result, humanSide string) string {
	result = strings.ToLower(strings.TrimSpace(result))
	humanSide = strings.ToLower(strings.TrimSpace(humanSide))
	switch {
	case result == "draw":
		return "🤝 draw"
	case result == "" || result == "unknown" || humanSide == "":
		return "▫️ " + fallback(result, "unfinished")
	case result == humanSide:
		return "✅ win"
	default:
		return "❌ loss"
	}
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
