package gamestate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	msgSave  = "save"
	msgLoad  = "load"
	msgAck   = "ack"
	msgState = "state"
	msgEmpty = "empty"
	msgError = "error"

	defaultRemoteTimeout = 5 * time.Second
)

// saveMessage is the wire format of the remote save protocol. Each request
// gets exactly one reply.
type saveMessage struct {
	Type  string `json:"type"`
	Slot  string `json:"slot,omitempty"`
	State *State `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

var ErrRemote = errors.New("remote save")

// RemoteSaver keeps the state on a save server over a websocket. The
// connection is opened on first use and re-dialled after a failure.
type RemoteSaver struct {
	URL     string
	Slot    string
	Timeout time.Duration
	Dialer  *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func (r *RemoteSaver) Save(ctx context.Context, s State) error {
	reply, err := r.roundTrip(ctx, saveMessage{Type: msgSave, Slot: r.Slot, State: &s})
	if err != nil {
		return err
	}
	if reply.Type != msgAck {
		return fmt.Errorf("%w: unexpected reply %q", ErrRemote, reply.Type)
	}
	return nil
}

func (r *RemoteSaver) Load(ctx context.Context) (State, bool, error) {
	reply, err := r.roundTrip(ctx, saveMessage{Type: msgLoad, Slot: r.Slot})
	if err != nil {
		return State{}, false, err
	}
	switch reply.Type {
	case msgEmpty:
		return State{}, false, nil
	case msgState:
		if reply.State == nil {
			return State{}, false, fmt.Errorf("%w: state reply without state", ErrRemote)
		}
		return *reply.State, true, nil
	default:
		return State{}, false, fmt.Errorf("%w: unexpected reply %q", ErrRemote, reply.Type)
	}
}

// Close closes the connection, if one is open.
func (r *RemoteSaver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	_ = r.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := r.conn.Close()
	r.conn = nil
	return err
}

func (r *RemoteSaver) roundTrip(ctx context.Context, req saveMessage) (saveMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, err := r.dial(ctx)
	if err != nil {
		return saveMessage{}, err
	}

	deadline := time.Now().Add(r.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if err := conn.WriteJSON(req); err != nil {
		r.drop()
		return saveMessage{}, fmt.Errorf("%w: %s: %w", ErrRemote, req.Type, err)
	}
	var reply saveMessage
	if err := conn.ReadJSON(&reply); err != nil {
		r.drop()
		return saveMessage{}, fmt.Errorf("%w: %s reply: %w", ErrRemote, req.Type, err)
	}
	if reply.Type == msgError {
		return saveMessage{}, fmt.Errorf("%w: %s: %s", ErrRemote, req.Type, reply.Error)
	}
	return reply, nil
}

func (r *RemoteSaver) dial(ctx context.Context) (*websocket.Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}
	dialer := r.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, r.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrRemote, r.URL, err)
	}
	r.conn = conn
	return conn, nil
}

func (r *RemoteSaver) drop() {
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

func (r *RemoteSaver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return defaultRemoteTimeout
}
