package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tangentchat/tangent/internal/schema"
)

// fakeApplet runs a scripted applet on the other end of the websocket:
// it answers every request frame via the handle func.
func fakeApplet(t *testing.T, eng *AppletEngine, handle func(appletFrame) appletFrame) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		for {
			var req appletFrame
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp := handle(req)
			resp.ID = req.ID
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	eng.Attach(conn)
}

// ─── RPC round trips ───────────────────────────────────────────────────────

func TestAppletEngine_ObjectNames(t *testing.T) {
	eng := NewAppletEngine(time.Second)
	fakeApplet(t, eng, func(req appletFrame) appletFrame {
		if req.Op != opObjectNames {
			t.Errorf("unexpected op %q", req.Op)
		}
		return appletFrame{Names: []string{"a", "b"}}
	})

	names, err := eng.ObjectNames(context.Background())
	if err != nil {
		t.Fatalf("ObjectNames: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestAppletEngine_ObjectValue(t *testing.T) {
	eng := NewAppletEngine(time.Second)
	fakeApplet(t, eng, func(req appletFrame) appletFrame {
		if req.Op != opObjectValue || req.Arg != "f" {
			t.Errorf("unexpected request %+v", req)
		}
		return appletFrame{Value: "x^2"}
	})

	v, err := eng.ObjectValue(context.Background(), "f")
	if err != nil {
		t.Fatalf("ObjectValue: %v", err)
	}
	if v != "x^2" {
		t.Errorf("unexpected value %q", v)
	}
}

func TestAppletEngine_ExecuteCommandError(t *testing.T) {
	eng := NewAppletEngine(time.Second)
	fakeApplet(t, eng, func(req appletFrame) appletFrame {
		return appletFrame{Error: "syntax error"}
	})

	err := eng.ExecuteCommand(context.Background(), "nonsense(")
	if err == nil || !strings.Contains(err.Error(), "syntax error") {
		t.Fatalf("expected applet error surfaced, got %v", err)
	}
}

func TestAppletEngine_SequentialCallsCorrelate(t *testing.T) {
	eng := NewAppletEngine(time.Second)
	fakeApplet(t, eng, func(req appletFrame) appletFrame {
		return appletFrame{Value: req.Arg + "!"}
	})

	for _, name := range []string{"a", "b", "c"} {
		v, err := eng.ObjectValue(context.Background(), name)
		if err != nil {
			t.Fatalf("ObjectValue(%s): %v", name, err)
		}
		if v != name+"!" {
			t.Errorf("response misrouted: asked %q, got %q", name, v)
		}
	}
}

// ─── Availability ──────────────────────────────────────────────────────────

func TestAppletEngine_Unattached(t *testing.T) {
	eng := NewAppletEngine(time.Second)
	if eng.Attached() {
		t.Error("fresh engine must not report attached")
	}
	_, err := eng.ObjectNames(context.Background())
	if !errors.Is(err, schema.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestAppletEngine_CallTimeout(t *testing.T) {
	eng := NewAppletEngine(30 * time.Millisecond)
	// An applet that never answers.
	fakeApplet(t, eng, func(req appletFrame) appletFrame {
		select {} // block forever
	})

	start := time.Now()
	_, err := eng.ObjectNames(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("call did not respect the RPC timeout")
	}
}

func TestAppletEngine_ContextCancel(t *testing.T) {
	eng := NewAppletEngine(time.Minute)
	fakeApplet(t, eng, func(req appletFrame) appletFrame {
		select {}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := eng.ObjectNames(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
