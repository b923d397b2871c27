// Package httpapi exposes the arena over HTTP: a JSON API for driving games
// and a websocket stream of state snapshots for the browser.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/archive"
	"github.com/kapu/llm-chess-arena/internal/render"
	"github.com/kapu/llm-chess-arena/internal/rules"
	"github.com/kapu/llm-chess-arena/internal/session"
	"github.com/kapu/llm-chess-arena/internal/store"
	"github.com/kapu/llm-chess-arena/pkg/arenadto"
)

const (
	maxJSONBodyBytes int64 = 1 << 20
	maxRecentGames         = 100
)

// Server wires the HTTP layer to the session manager and side stores.
// Snapshots and Archive are optional; absent they are skipped.
type Server struct {
	manager   *session.Manager
	snapshots *store.Store
	archive   archive.Repository
	logger    *zap.Logger
	hub       *hub

	srvMu sync.Mutex
	srv   *http.Server
}

func NewServer(manager *session.Manager, snapshots *store.Store, repo archive.Repository, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		manager:   manager,
		snapshots: snapshots,
		archive:   repo,
		logger:    logger,
		hub:       newHub(),
	}
}

// Listen starts the HTTP server and blocks until shutdown.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.logger.Info("http listening", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts the HTTP server down.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Routes configures the mux; exported for httptest use.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/games", s.withJSON(s.handleCreate))
	mux.HandleFunc("GET /api/games/recent", s.withJSON(s.handleRecent))
	mux.HandleFunc("GET /api/games/{id}", s.withJSON(s.handleState))
	mux.HandleFunc("POST /api/games/{id}/move", s.withJSON(s.handleHumanMove))
	mux.HandleFunc("POST /api/games/{id}/ai-turn", s.withJSON(s.handleAITurn))
	mux.HandleFunc("POST /api/games/{id}/reset", s.withJSON(s.handleReset))
	mux.HandleFunc("DELETE /api/games/{id}", s.withJSON(s.handleDelete))
	mux.HandleFunc("GET /api/games/{id}/memory", s.withJSON(s.handleMemory))
	mux.HandleFunc("GET /api/games/{id}/board.png", s.handleBoardPNG)
	mux.HandleFunc("GET /api/games/{id}/ws", s.handleWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) withJSON(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg})
}

func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	id := r.PathValue("id")
	sess := s.manager.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return nil
	}
	return sess
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Create()
	snap := sess.Snapshot()
	s.persistSnapshot(r.Context(), sess, snap)
	writeJSON(w, arenadto.GameCreated{
		SessionID:  sess.ID,
		WhiteModel: sess.WhiteModel,
		BlackModel: sess.BlackModel,
		Snapshot:   arenadto.FromSnapshot(snap),
	})
}

// handleState serves the live session when one exists, and otherwise falls
// back to the persisted snapshot so a browser can re-attach to a game that
// outlived the process.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if sess := s.manager.Get(id); sess != nil {
		writeJSON(w, arenadto.GameCreated{
			SessionID:  sess.ID,
			WhiteModel: sess.WhiteModel,
			BlackModel: sess.BlackModel,
			Snapshot:   arenadto.FromSnapshot(sess.Snapshot()),
		})
		return
	}
	if s.snapshots != nil {
		rec, err := s.snapshots.Load(r.Context(), id)
		if err != nil {
			s.logger.Warn("snapshot load failed", zap.String("session", id), zap.Error(err))
		} else if rec != nil {
			writeJSON(w, arenadto.GameCreated{
				SessionID:  rec.SessionID,
				WhiteModel: rec.WhiteModel,
				BlackModel: rec.BlackModel,
				Snapshot:   arenadto.FromSnapshot(rec.Snapshot),
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "game not found")
}

// handleDelete removes the live session and its persisted snapshot.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.manager.Remove(id)
	if s.snapshots != nil {
		if err := s.snapshots.Delete(r.Context(), id); err != nil {
			s.logger.Warn("snapshot delete failed", zap.String("session", id), zap.Error(err))
		}
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

type moveBody struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func (s *Server) handleHumanMove(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	defer r.Body.Close()
	var body moveBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := sess.PlayHumanMove(r.Context(), body.From, body.To, body.Promotion)
	switch {
	case errors.Is(err, session.ErrGameOver):
		writeError(w, http.StatusConflict, "game is over")
		return
	case errors.Is(err, rules.ErrIllegalMove):
		writeError(w, http.StatusBadRequest, "illegal move")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.afterTurn(r.Context(), sess, report)
	writeJSON(w, arenadto.FromTurnReport(report))
}

func (s *Server) handleAITurn(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	report, err := sess.PlayAITurn(r.Context())
	switch {
	case errors.Is(err, session.ErrGameOver):
		writeError(w, http.StatusConflict, "game is over")
		return
	case errors.Is(err, session.ErrStaleTurn):
		writeError(w, http.StatusConflict, "game was reset")
		return
	case err != nil:
		s.logger.Error("ai turn failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "turn failed")
		return
	}

	s.afterTurn(r.Context(), sess, report)
	writeJSON(w, arenadto.FromTurnReport(report))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	sess.Reset()
	snap := sess.Snapshot()
	s.persistSnapshot(r.Context(), sess, snap)
	s.hub.publish(sess.ID, arenadto.FromSnapshot(snap))
	writeJSON(w, map[string]any{"snapshot": arenadto.FromSnapshot(snap)})
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	color := rules.Color(r.URL.Query().Get("color"))
	if color != rules.White && color != rules.Black {
		writeError(w, http.StatusBadRequest, "color must be white or black")
		return
	}
	writeJSON(w, arenadto.FromMemory(sess.Memory(color)))
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}
	opts := render.Options{}
	if size, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && size >= 8 && size <= 256 {
		opts.SquareSize = size
	}
	if from, to, ok := lastMoveSquares(sess); ok {
		opts.HighlightFrom = from
		opts.HighlightTo = to
	}

	png, err := render.RenderPNG(r.Context(), sess, opts)
	if err != nil {
		s.logger.Error("board render failed", zap.String("session", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, []arenadto.ArchivedGame{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > maxRecentGames {
		limit = maxRecentGames
	}
	games, err := s.archive.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("archive query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	out := make([]arenadto.ArchivedGame, 0, len(games))
	for _, g := range games {
		out = append(out, arenadto.FromArchivedGame(g))
	}
	writeJSON(w, out)
}

// afterTurn runs the side effects of a committed move: persist the snapshot,
// broadcast it, archive the game if it just finished.
func (s *Server) afterTurn(ctx context.Context, sess *session.Session, report *session.TurnReport) {
	s.persistSnapshot(ctx, sess, report.Snapshot)
	s.hub.publish(sess.ID, arenadto.FromSnapshot(report.Snapshot))
	if report.Snapshot.GameOver {
		s.archiveFinished(ctx, sess, report.Snapshot)
	}
}

func (s *Server) persistSnapshot(ctx context.Context, sess *session.Session, snap rules.Snapshot) {
	if s.snapshots == nil {
		return
	}
	rec := store.Record{
		SessionID:  sess.ID,
		WhiteModel: sess.WhiteModel,
		BlackModel: sess.BlackModel,
		Snapshot:   snap,
		MovesUCI:   sess.MovesUCI(),
		Fallbacks:  sess.FallbackCount(),
		UpdatedAt:  time.Now(),
	}
	if err := s.snapshots.Save(ctx, rec); err != nil {
		s.logger.Warn("snapshot persist failed", zap.String("session", sess.ID), zap.Error(err))
	}
}

func (s *Server) archiveFinished(ctx context.Context, sess *session.Session, snap rules.Snapshot) {
	if s.archive == nil {
		return
	}
	game := archive.ArenaGame{
		GameID:     sess.ID,
		WhiteModel: sess.WhiteModel,
		BlackModel: sess.BlackModel,
		Result:     resultOf(snap),
		Method:     methodOf(snap),
		MovesUCI:   sess.MovesUCI(),
		MovesSAN:   snap.HistorySAN,
		PGN:        snap.PGN,
		Fallbacks:  sess.FallbackCount(),
		StartedAt:  sess.StartedAt(),
		EndedAt:    time.Now(),
	}
	err := s.archive.Save(ctx, game)
	if errors.Is(err, archive.ErrDuplicateGame) {
		return
	}
	if err != nil {
		s.logger.Error("archive save failed", zap.String("session", sess.ID), zap.Error(err))
		return
	}
	s.logger.Info("game archived",
		zap.String("session", sess.ID),
		zap.String("result", game.Result),
		zap.String("method", game.Method),
		zap.Int("fallbacks", game.Fallbacks),
	)
}

func resultOf(snap rules.Snapshot) string {
	switch {
	case snap.Winner != nil:
		return string(*snap.Winner)
	case snap.Draw:
		return "draw"
	default:
		return ""
	}
}

func methodOf(snap rules.Snapshot) string {
	switch {
	case snap.Checkmate:
		return "checkmate"
	case snap.Draw:
		return "draw"
	default:
		return "other"
	}
}

func lastMoveSquares(sess *session.Session) (from, to string, ok bool) {
	uci := sess.MovesUCI()
	if len(uci) == 0 {
		return "", "", false
	}
	last := uci[len(uci)-1]
	if len(last) < 4 {
		return "", "", false
	}
	return last[:2], last[2:4], true
}
