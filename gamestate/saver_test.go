package gamestate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

func TestFileSaver(t *testing.T) {
	f := &FileSaver{Path: filepath.Join(t.TempDir(), "saves", "slot1.yaml")}
	ctx := context.Background()

	if _, ok, err := f.Load(ctx); ok || err != nil {
		t.Fatalf("expected no save yet, got ok=%v err=%v", ok, err)
	}

	s := DefaultState()
	s.CurrentNodeID = "lunar_signal_intro"
	s.DecisionHistory["lunar_signal_intro"] = "C"
	s.HiddenPointScores["Reality"] = 105
	if err := f.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := f.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.CurrentNodeID != "lunar_signal_intro" || got.DecisionHistory["lunar_signal_intro"] != "C" || got.HiddenPointScores["Reality"] != 105 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.Indicators != s.Indicators {
		t.Fatalf("indicators lost: %+v", got.Indicators)
	}
}

// saveServer is an in-memory save endpoint speaking the remote protocol.
type saveServer struct {
	mu    sync.Mutex
	slots map[string]State
	fail  bool
}

func (s *saveServer) handle(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg saveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		s.mu.Lock()
		var reply saveMessage
		switch {
		case s.fail:
			reply = saveMessage{Type: msgError, Error: "storage offline"}
		case msg.Type == msgSave && msg.State != nil:
			s.slots[msg.Slot] = *msg.State
			reply = saveMessage{Type: msgAck}
		case msg.Type == msgLoad:
			if st, ok := s.slots[msg.Slot]; ok {
				reply = saveMessage{Type: msgState, State: &st}
			} else {
				reply = saveMessage{Type: msgEmpty}
			}
		default:
			reply = saveMessage{Type: msgError, Error: "bad request"}
		}
		s.mu.Unlock()
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func TestRemoteSaver(t *testing.T) {
	backend := &saveServer{slots: map[string]State{}}
	srv := httptest.NewServer(http.HandlerFunc(backend.handle))
	t.Cleanup(srv.Close)

	r := &RemoteSaver{URL: "ws" + strings.TrimPrefix(srv.URL, "http"), Slot: "player-1"}
	t.Cleanup(func() { r.Close() })
	ctx := context.Background()

	if _, ok, err := r.Load(ctx); ok || err != nil {
		t.Fatalf("expected empty slot, got ok=%v err=%v", ok, err)
	}

	s := DefaultState()
	s.CurrentNodeID = "path_a_result"
	s.ScenesVisited = []string{"lunar_arrival"}
	if err := r.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := r.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.CurrentNodeID != "path_a_result" || len(got.ScenesVisited) != 1 {
		t.Fatalf("unexpected remote state %+v", got)
	}

	backend.mu.Lock()
	backend.fail = true
	backend.mu.Unlock()
	if err := r.Save(ctx, s); !errors.Is(err, ErrRemote) || !strings.Contains(err.Error(), "storage offline") {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestRemoteSaverDialFailure(t *testing.T) {
	r := &RemoteSaver{URL: "ws://127.0.0.1:1/save"}
	if err := r.Save(context.Background(), DefaultState()); !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}
