package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-coach/internal/adapter/chesspresenter"
	"github.com/park285/Cheese-chess-coach/internal/assistant"
	"github.com/park285/Cheese-chess-coach/internal/msgcat"
	"github.com/park285/Cheese-chess-coach/internal/render"
	"github.com/park285/Cheese-chess-coach/internal/session"
	"github.com/park285/Cheese-chess-coach/internal/uiws"
	"github.com/park285/Cheese-chess-coach/pkg/chessdto"
)

const maxBodyBytes = 64 << 10

type Deps struct {
	Registry  *session.Registry
	Assistant *assistant.Assistant
	Renderer  *render.Renderer
	Presenter *chesspresenter.Presenter
	Catalog   *msgcat.Catalog
	// Hub serves /ws and gets this handler for board commands; nil leaves
	// the route out.
	Hub    *uiws.Hub
	Logger *zap.Logger
}

type Handler struct {
	registry  *session.Registry
	assistant *assistant.Assistant
	renderer  *render.Renderer
	presenter *chesspresenter.Presenter
	formatter *chesspresenter.Formatter
	catalog   *msgcat.Catalog
	logger    *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Catalog == nil {
		d.Catalog = msgcat.MustDefault()
	}
	if d.Presenter == nil {
		d.Presenter = chesspresenter.NewPresenter(nil, chesspresenter.NewFormatter(d.Catalog))
	}
	if d.Renderer == nil {
		d.Renderer = render.New()
	}
	return &Handler{
		registry:  d.Registry,
		assistant: d.Assistant,
		renderer:  d.Renderer,
		presenter: d.Presenter,
		formatter: d.Presenter.Formatter(),
		catalog:   d.Catalog,
		logger:    d.Logger,
	}
}

// NewRouter mounts the coach API, the board websocket and the health check.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /api/games/{id}/chat", h.chat)
	mux.HandleFunc("GET /api/games/{id}/analysis", h.analysis)
	mux.HandleFunc("POST /api/games/{id}/apply", h.apply)
	mux.HandleFunc("GET /api/games/{id}/board.png", h.board)
	mux.HandleFunc("GET /api/games/{id}/history", h.history)
	if d.Hub != nil {
		d.Hub.SetHandler(h)
		mux.Handle("GET /ws", d.Hub)
	}
	return requestID(accessLog(h.logger, recoverer(h.logger, mux)))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.registry.Len(),
	})
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ChatRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, chesspresenter.ErrMalformedRequest)
		return
	}
	reply, err := h.assistant.Chat(r.Context(), r.PathValue("id"), req.Prompt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chessdto.ChatResponse{
		Text:            reply.Text,
		Intent:          string(reply.Intent),
		Recommendations: chesspresenter.ToDTORecommendations(reply.Recommendations),
	})
}

func (h *Handler) analysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.assistant.Analyze(r.Context(), r.PathValue("id"), r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOAnalysis(result))
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ApplyRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, chesspresenter.ErrMalformedRequest)
		return
	}
	rec := chesspresenter.FromDTORecommendation(req.Recommendation)
	snap, err := h.assistant.ApplyRecommendation(r.Context(), r.PathValue("id"), rec)
	if err != nil {
		de := h.formatter.Error(err)
		resp := chessdto.ApplyResponse{Message: de.Message, Error: de}
		if !errors.Is(err, session.ErrNoActiveGame) {
			resp.State = chesspresenter.ToDTOState(snap)
		}
		writeJSON(w, statusFor(de.Code), resp)
		return
	}
	writeJSON(w, http.StatusOK, chessdto.ApplyResponse{
		Message: h.formatter.Applied(rec.Notation),
		State:   chesspresenter.ToDTOState(snap),
	})
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	sess, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	game, _ := sess.Position()
	snap := sess.Snapshot()

	opts := render.Options{
		Title: h.catalog.RenderOr("render.title", map[string]any{"Side": snap.HumanSide}, "Player vs Bot"),
		Turn: h.catalog.RenderOr("render.turn", map[string]any{
			"Turn":   snap.Turn,
			"Number": game.MoveCount()/2 + 1,
		}, snap.Turn),
		Flip: snap.HumanSide == "Black",
	}
	if snap.Result != "" {
		opts.Turn = h.catalog.RenderOr("render.result", map[string]any{"Result": snap.Result}, snap.Result)
	}
	if snap.LastMove != nil {
		opts.Highlight = &render.Highlight{From: snap.LastMove.From, To: snap.LastMove.To}
	}

	png, err := h.renderer.RenderPNG(r.Context(), game, opts)
	if err != nil {
		h.logger.Warn("chess_board_render_failed", zap.String("game_id", snap.GameID), zap.Error(err))
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	gameID := r.PathValue("id")
	games, err := h.registry.History(r.Context(), gameID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chessdto.HistoryResponse{
		GameID: strings.TrimSpace(gameID),
		Games:  chesspresenter.ToDTOGames(games),
	})
}

// HandleCommand serves the inbound board commands of the websocket hub.
// Session events reach every client through the presenter, so only
// request-fen and failures are answered directly.
func (h *Handler) HandleCommand(ctx context.Context, gameID string, cmd chessdto.Command) []chessdto.Event {
	sess, err := h.registry.Open(ctx, gameID)
	if err != nil {
		return []chessdto.Event{h.presenter.ErrorEvent(gameID, err)}
	}

	switch cmd.Command {
	case chessdto.CommandMove:
		_, _ = sess.Submit(ctx, session.MoveRequest{From: cmd.From, To: cmd.To, Promotion: cmd.Promotion})
	case chessdto.CommandRequestFEN:
		return []chessdto.Event{h.presenter.StateEvent(session.EventMoveUpdate, sess.Snapshot())}
	case chessdto.CommandNewGame:
		sess.NewGame(ctx)
	case chessdto.CommandApplyMove:
		if cmd.Apply == nil {
			return []chessdto.Event{h.presenter.ErrorEvent(gameID, chesspresenter.ErrMalformedRequest)}
		}
		_, _ = sess.ApplyRecommendation(ctx, chesspresenter.FromDTORecommendation(*cmd.Apply))
	default:
		h.logger.Debug("ws_unknown_command", zap.String("game_id", gameID), zap.String("command", cmd.Command))
		return []chessdto.Event{h.presenter.ErrorEvent(gameID, chesspresenter.ErrMalformedRequest)}
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	de := h.formatter.Error(err)
	if de.Code == chessdto.CodeInternal {
		h.logger.Error("http_handler_failed", zap.Error(err))
	}
	writeJSON(w, statusFor(de.Code), de)
}

func statusFor(code string) int {
	switch code {
	case chessdto.CodeStaleRecommendation, chessdto.CodeMovePending, chessdto.CodeGameOver:
		return http.StatusConflict
	case chessdto.CodeIllegalMove:
		return http.StatusUnprocessableEntity
	case chessdto.CodeNoActiveGame:
		return http.StatusNotFound
	case chessdto.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
