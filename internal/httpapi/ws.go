package httpapi

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kapu/llm-chess-arena/pkg/arenadto"
)

// subscriber buffers a few snapshots; a client too slow to drain its buffer
// misses intermediate states but always gets the latest.
type subscriber struct {
	ch chan arenadto.Snapshot
}

// hub fans committed-move snapshots out to the websocket clients of each
// session.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*subscriber]struct{})}
}

func (h *hub) subscribe(sessionID string) *subscriber {
	sub := &subscriber{ch: make(chan arenadto.Snapshot, 8)}
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub) unsubscribe(sessionID string, sub *subscriber) {
	h.mu.Lock()
	if set := h.subs[sessionID]; set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sessionID)
		}
	}
	h.mu.Unlock()
}

func (h *hub) publish(sessionID string, snap arenadto.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.ch <- snap:
		default:
			// full buffer: drop the oldest so the latest state wins
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snap:
			default:
			}
		}
	}
}

// handleWS upgrades the connection and streams a snapshot after every
// committed move until the client disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess == nil {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.String("session", sess.ID), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	// CloseRead surfaces client disconnects through ctx while we only write.
	ctx := conn.CloseRead(r.Context())

	sub := s.hub.subscribe(sess.ID)
	defer s.hub.unsubscribe(sess.ID, sub)

	// current state first, so a fresh client renders immediately
	if err := wsjson.Write(ctx, conn, arenadto.FromSnapshot(sess.Snapshot())); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "bye")
			return
		case snap := <-sub.ch:
			if err := wsjson.Write(ctx, conn, snap); err != nil {
				return
			}
		}
	}
}
