package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kapu/llm-chess-arena/internal/archive"
	"github.com/kapu/llm-chess-arena/internal/llm"
	"github.com/kapu/llm-chess-arena/internal/session"
	"github.com/kapu/llm-chess-arena/internal/store"
	"github.com/kapu/llm-chess-arena/pkg/arenadto"
)

type downCompleter struct{}

func (downCompleter) Complete(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, errors.New("provider down")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	manager := session.NewManager(func(id string) *session.Session {
		return session.New(session.Options{
			ID:         id,
			WhiteModel: "gpt-4o",
			BlackModel: "gpt-4o",
			Completer:  downCompleter{},
		})
	})
	srv := NewServer(manager, nil, archive.NewMemRepository(), nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func newStoreBackedServer(t *testing.T, snapshots *store.Store) *httptest.Server {
	t.Helper()
	manager := session.NewManager(func(id string) *session.Session {
		return session.New(session.Options{
			ID:         id,
			WhiteModel: "gpt-4o",
			BlackModel: "gpt-4o",
			Completer:  downCompleter{},
		})
	})
	srv := NewServer(manager, snapshots, archive.NewMemRepository(), nil)
	return httptest.NewServer(srv.Routes())
}

func createGame(t *testing.T, ts *httptest.Server) arenadto.GameCreated {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/games", "application/json", nil)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var out arenadto.GameCreated
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestCreateAndState(t *testing.T) {
	ts := newTestServer(t)
	created := createGame(t, ts)
	if created.SessionID == "" || created.Snapshot.Turn != "white" {
		t.Fatalf("created = %+v", created)
	}

	resp, err := http.Get(ts.URL + "/api/games/" + created.SessionID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	defer resp.Body.Close()
	var state arenadto.GameCreated
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.SessionID != created.SessionID || state.Snapshot.Ply != 0 {
		t.Fatalf("state = %+v", state)
	}
}

func TestUnknownGameIs404(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/games/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHumanMoveEndpoint(t *testing.T) {
	ts := newTestServer(t)
	created := createGame(t, ts)

	body := bytes.NewBufferString(`{"from":"e2","to":"e4"}`)
	resp, err := http.Post(ts.URL+"/api/games/"+created.SessionID+"/move", "application/json", body)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d", resp.StatusCode)
	}
	var report arenadto.TurnReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Move == nil || report.Move.SAN != "e4" || report.Snapshot.Ply != 1 {
		t.Fatalf("report = %+v", report)
	}

	// illegal move rejected with 400
	resp2, err := http.Post(ts.URL+"/api/games/"+created.SessionID+"/move",
		"application/json", bytes.NewBufferString(`{"from":"e2","to":"e5"}`))
	if err != nil {
		t.Fatalf("illegal move: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("illegal move status = %d, want 400", resp2.StatusCode)
	}
}

func TestAITurnFallsBackWithDeadOracle(t *testing.T) {
	ts := newTestServer(t)
	created := createGame(t, ts)

	resp, err := http.Post(ts.URL+"/api/games/"+created.SessionID+"/ai-turn", "application/json", nil)
	if err != nil {
		t.Fatalf("ai-turn: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ai-turn status = %d", resp.StatusCode)
	}
	var report arenadto.TurnReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.Fallback || report.Move == nil || report.Snapshot.Ply != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !report.Evaluation.Degraded {
		t.Fatalf("evaluation should be degraded without an engine: %+v", report.Evaluation)
	}
}

func TestResetEndpoint(t *testing.T) {
	ts := newTestServer(t)
	created := createGame(t, ts)

	if _, err := http.Post(ts.URL+"/api/games/"+created.SessionID+"/ai-turn", "application/json", nil); err != nil {
		t.Fatalf("ai-turn: %v", err)
	}
	resp, err := http.Post(ts.URL+"/api/games/"+created.SessionID+"/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Snapshot arenadto.Snapshot `json:"snapshot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Snapshot.Ply != 0 || out.Snapshot.Turn != "white" {
		t.Fatalf("snapshot after reset = %+v", out.Snapshot)
	}
}

func TestMemoryEndpointValidatesColor(t *testing.T) {
	ts := newTestServer(t)
	created := createGame(t, ts)

	resp, err := http.Get(ts.URL + "/api/games/" + created.SessionID + "/memory?color=purple")
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/api/games/" + created.SessionID + "/memory?color=white")
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp2.StatusCode)
	}
}

func TestBoardPNGEndpoint(t *testing.T) {
	ts := newTestServer(t)
	created := createGame(t, ts)

	resp, err := http.Get(ts.URL + "/api/games/" + created.SessionID + "/board.png?size=16")
	if err != nil {
		t.Fatalf("board.png: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content-type = %q", ct)
	}
}

func TestRecentArchive(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/games/recent")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var games []arenadto.ArchivedGame
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(games) != 0 {
		t.Fatalf("expected empty archive, got %d", len(games))
	}
}

func TestStateReattachesFromSnapshotStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	snapshots := store.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	t.Cleanup(func() { snapshots.Close() })

	ts1 := newStoreBackedServer(t, snapshots)
	created := createGame(t, ts1)
	resp, err := http.Post(ts1.URL+"/api/games/"+created.SessionID+"/move",
		"application/json", bytes.NewBufferString(`{"from":"e2","to":"e4"}`))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	resp.Body.Close()
	ts1.Close()

	// a fresh process has an empty registry but shares redis
	ts2 := newStoreBackedServer(t, snapshots)
	defer ts2.Close()

	resp, err = http.Get(ts2.URL + "/api/games/" + created.SessionID)
	if err != nil {
		t.Fatalf("state after restart: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state after restart = %d, want 200", resp.StatusCode)
	}
	var state arenadto.GameCreated
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.SessionID != created.SessionID || state.Snapshot.Ply != 1 {
		t.Fatalf("reattached state = %+v", state)
	}
}

func TestDeleteRemovesSessionAndSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	snapshots := store.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	t.Cleanup(func() { snapshots.Close() })

	ts := newStoreBackedServer(t, snapshots)
	defer ts.Close()
	created := createGame(t, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/games/"+created.SessionID, nil)
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	// gone from both the registry and the snapshot store
	resp, err = http.Get(ts.URL + "/api/games/" + created.SessionID)
	if err != nil {
		t.Fatalf("state after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("state after delete = %d, want 404", resp.StatusCode)
	}
}

// limitRecordingRepo captures the limit the handler passes down.
type limitRecordingRepo struct {
	last int
}

func (r *limitRecordingRepo) Save(context.Context, archive.ArenaGame) error { return nil }
func (r *limitRecordingRepo) Recent(_ context.Context, limit int) ([]archive.ArenaGame, error) {
	r.last = limit
	return nil, nil
}
func (r *limitRecordingRepo) Close() error { return nil }

func TestRecentLimitClamped(t *testing.T) {
	repo := &limitRecordingRepo{}
	manager := session.NewManager(func(id string) *session.Session {
		return session.New(session.Options{ID: id, Completer: downCompleter{}})
	})
	srv := NewServer(manager, nil, repo, nil)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/games/recent?limit=10000")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if repo.last != 100 {
		t.Fatalf("limit passed to archive = %d, want clamped to 100", repo.last)
	}
}
