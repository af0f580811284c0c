package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tangentchat/tangent/internal/schema"
)

// appletFrame is one JSON message on the applet websocket. Requests carry
// id+op+arg, responses echo the id and fill names, value or error.
type appletFrame struct {
	ID    string   `json:"id"`
	Op    string   `json:"op,omitempty"`
	Arg   string   `json:"arg,omitempty"`
	Names []string `json:"names,omitempty"`
	Value string   `json:"value,omitempty"`
	Error string   `json:"error,omitempty"`
}

const (
	opObjectNames    = "objectNames"
	opObjectValue    = "objectValue"
	opExecuteCommand = "executeCommand"
	opSetMode        = "setMode"
)

// AppletEngine adapts a browser applet connected over a websocket to the
// engine interface the bridge drives. Every call becomes a request frame with
// a correlation id; the applet answers with a frame echoing the same id.
//
// When no applet is attached every call fails with ErrEngineUnavailable.
type AppletEngine struct {
	timeout time.Duration

	mu      sync.Mutex // guards conn, pending, nextID and conn writes
	conn    *websocket.Conn
	pending map[string]chan appletFrame
	nextID  uint64
}

// NewAppletEngine creates an AppletEngine with the given per-call timeout.
func NewAppletEngine(timeout time.Duration) *AppletEngine {
	return &AppletEngine{
		timeout: timeout,
		pending: make(map[string]chan appletFrame),
	}
}

// Attached reports whether an applet connection is currently bound.
func (a *AppletEngine) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}

// Attach binds conn as the live applet and starts its read loop. A previous
// connection, if any, is closed and its in-flight calls fail.
func (a *AppletEngine) Attach(conn *websocket.Conn) {
	a.mu.Lock()
	old := a.conn
	a.conn = conn
	a.failPendingLocked("applet replaced")
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	go a.readLoop(conn)
}

// Detach unbinds conn if it is still the live connection. In-flight calls
// fail immediately rather than waiting out their timeout.
func (a *AppletEngine) Detach(conn *websocket.Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != conn {
		return
	}
	a.conn = nil
	a.failPendingLocked("applet disconnected")
}

func (a *AppletEngine) failPendingLocked(reason string) {
	for id, ch := range a.pending {
		ch <- appletFrame{ID: id, Error: reason}
		delete(a.pending, id)
	}
}

func (a *AppletEngine) readLoop(conn *websocket.Conn) {
	defer a.Detach(conn)
	for {
		var frame appletFrame
		if err := conn.ReadJSON(&frame); err != nil {
			slog.Info("applet connection closed", "error", err)
			return
		}
		a.mu.Lock()
		ch, ok := a.pending[frame.ID]
		if ok {
			delete(a.pending, frame.ID)
		}
		a.mu.Unlock()
		if !ok {
			slog.Warn("applet response with unknown id dropped", "id", frame.ID)
			continue
		}
		ch <- frame
	}
}

// call sends one request frame and waits for the matching response.
func (a *AppletEngine) call(ctx context.Context, op, arg string) (appletFrame, error) {
	a.mu.Lock()
	if a.conn == nil {
		a.mu.Unlock()
		return appletFrame{}, schema.ErrEngineUnavailable
	}
	a.nextID++
	id := strconv.FormatUint(a.nextID, 10)
	ch := make(chan appletFrame, 1)
	a.pending[id] = ch

	req, err := json.Marshal(appletFrame{ID: id, Op: op, Arg: arg})
	if err == nil {
		err = a.conn.WriteMessage(websocket.TextMessage, req)
	}
	if err != nil {
		delete(a.pending, id)
		a.mu.Unlock()
		return appletFrame{}, fmt.Errorf("applet write failed: %w", err)
	}
	a.mu.Unlock()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		if resp.Error != "" {
			return appletFrame{}, fmt.Errorf("applet %s: %s", op, resp.Error)
		}
		return resp, nil
	case <-timer.C:
		a.dropPending(id)
		return appletFrame{}, fmt.Errorf("applet %s: timed out after %s", op, a.timeout)
	case <-ctx.Done():
		a.dropPending(id)
		return appletFrame{}, ctx.Err()
	}
}

func (a *AppletEngine) dropPending(id string) {
	a.mu.Lock()
	delete(a.pending, id)
	a.mu.Unlock()
}

// ObjectNames returns the names of all objects currently defined in the applet.
func (a *AppletEngine) ObjectNames(ctx context.Context) ([]string, error) {
	resp, err := a.call(ctx, opObjectNames, "")
	if err != nil {
		return nil, err
	}
	return resp.Names, nil
}

// ObjectValue returns the applet's value string for one object.
func (a *AppletEngine) ObjectValue(ctx context.Context, name string) (string, error) {
	resp, err := a.call(ctx, opObjectValue, name)
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

// ExecuteCommand runs one engine command inside the applet.
func (a *AppletEngine) ExecuteCommand(ctx context.Context, command string) error {
	_, err := a.call(ctx, opExecuteCommand, command)
	return err
}

// SetMode switches the applet view.
func (a *AppletEngine) SetMode(ctx context.Context, mode string) error {
	_, err := a.call(ctx, opSetMode, mode)
	return err
}
