package hub

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tangentchat/tangent/internal/bridge"
	"github.com/tangentchat/tangent/internal/bus"
	"github.com/tangentchat/tangent/internal/config"
	"github.com/tangentchat/tangent/internal/schema"
)

// fakeClient returns a scripted response.
type fakeClient struct {
	resp schema.ModelResponse
	err  error
}

func (f *fakeClient) Respond(_ context.Context, _ schema.ModelRequest) (schema.ModelResponse, error) {
	return f.resp, f.err
}

func newTestHub(t *testing.T, client schema.ModelClient) (*Hub, bus.Bus) {
	t.Helper()
	cfg := config.DefaultConfig()
	b := bus.NewMessageBus(10)
	return New(b, client, &cfg), b
}

func inbound(content string) bus.InboundMessage {
	return bus.NewInboundMessage(bus.ChannelTelegram, "42", "chat-1", content)
}

func receiveOutbound(t *testing.T, b bus.Bus) bus.OutboundMessage {
	t.Helper()
	select {
	case msg := <-b.OutboundChan():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
		return bus.OutboundMessage{}
	}
}

// ─── Message handling ──────────────────────────────────────────────────────

func TestHandleMessage_RepliesWithAssistantTurns(t *testing.T) {
	client := &fakeClient{resp: schema.ModelResponse{
		Text: "Here you go.",
		Invocations: []schema.ToolInvocation{{
			Commands:    []string{"f := x^2"},
			Explanation: "Plotted f.",
		}},
	}}
	h, b := newTestHub(t, client)

	h.handleMessage(context.Background(), inbound("plot x^2"))

	out := receiveOutbound(t, b)
	if out.ChatID() != "chat-1" {
		t.Errorf("unexpected chat id %q", out.ChatID())
	}
	if !strings.Contains(out.Content(), "Plotted f.") || !strings.Contains(out.Content(), "Here you go.") {
		t.Errorf("expected action record and prose in reply, got %q", out.Content())
	}
}

func TestHandleMessage_SilentTurnSendsNothing(t *testing.T) {
	h, b := newTestHub(t, &fakeClient{})

	h.handleMessage(context.Background(), inbound("hello"))

	select {
	case msg := <-b.OutboundChan():
		t.Fatalf("expected silence for empty response, got %+v", msg)
	default:
	}
}

func TestHandleMessage_SessionsAreIsolated(t *testing.T) {
	client := &fakeClient{resp: schema.ModelResponse{Text: "hi"}}
	h, _ := newTestHub(t, client)

	h.handleMessage(context.Background(), bus.NewInboundMessage(bus.ChannelTelegram, "1", "chat-a", "x"))
	h.handleMessage(context.Background(), bus.NewInboundMessage(bus.ChannelTelegram, "1", "chat-b", "y"))

	if got := h.Sessions(); got != 2 {
		t.Errorf("expected 2 sessions, got %d", got)
	}
}

func TestHandleMessage_BusyBridgeGetsNotice(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &blockingClient{started: started, release: release}
	h, b := newTestHub(t, client)

	go h.handleMessage(context.Background(), inbound("first"))
	<-started

	h.handleMessage(context.Background(), inbound("second"))
	out := receiveOutbound(t, b)
	if out.Content() != bridge.ResolveLocale("en").BusyNotice {
		t.Errorf("expected busy notice, got %q", out.Content())
	}

	close(release)
	// The first turn finishes and replies normally.
	out = receiveOutbound(t, b)
	if out.Content() != "done" {
		t.Errorf("expected first reply after release, got %q", out.Content())
	}
}

type blockingClient struct {
	started chan struct{}
	release chan struct{}
}

func (c *blockingClient) Respond(_ context.Context, _ schema.ModelRequest) (schema.ModelResponse, error) {
	close(c.started)
	<-c.release
	return schema.ModelResponse{Text: "done"}, nil
}

// ─── Concurrency ───────────────────────────────────────────────────────────

// All traffic targets one session key, so the post-Send bookkeeping, the
// /mode writes, and the settings closure read inside the bridge all contend
// on the same session fields. The race detector does the checking.
func TestHandleMessage_ConcurrentSendsAndModeSwitches(t *testing.T) {
	client := &fakeClient{resp: schema.ModelResponse{Text: "hi"}}
	h, b := newTestHub(t, client)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-b.OutboundChan():
			case <-done:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				h.handleMessage(context.Background(), inbound("hello"))
			} else {
				h.handleMessage(context.Background(), inbound("/mode geometry"))
			}
		}(i)
	}
	wg.Wait()
	close(done)

	if h.Sessions() != 1 {
		t.Errorf("expected a single session, got %d", h.Sessions())
	}
}

// ─── Slash commands ────────────────────────────────────────────────────────

func TestSlashNew_ResetsSession(t *testing.T) {
	client := &fakeClient{resp: schema.ModelResponse{Text: "hi"}}
	h, b := newTestHub(t, client)

	h.handleMessage(context.Background(), inbound("hello"))
	receiveOutbound(t, b)
	if h.Sessions() != 1 {
		t.Fatalf("expected 1 session, got %d", h.Sessions())
	}

	h.handleMessage(context.Background(), inbound("/new"))
	receiveOutbound(t, b)
	if h.Sessions() != 0 {
		t.Errorf("expected session dropped after /new, got %d", h.Sessions())
	}
}

func TestSlashMode_SwitchesEngineMode(t *testing.T) {
	h, b := newTestHub(t, &fakeClient{})

	h.handleMessage(context.Background(), inbound("/mode geometry"))
	out := receiveOutbound(t, b)
	if !strings.Contains(out.Content(), "Geometry") {
		t.Errorf("expected mode confirmation, got %q", out.Content())
	}

	h.handleMessage(context.Background(), inbound("/mode astrology"))
	out = receiveOutbound(t, b)
	if !strings.Contains(out.Content(), "Unknown mode") {
		t.Errorf("expected unknown-mode reply, got %q", out.Content())
	}
}

func TestSlashHelp(t *testing.T) {
	h, b := newTestHub(t, &fakeClient{})
	h.handleMessage(context.Background(), inbound("/help"))
	out := receiveOutbound(t, b)
	if !strings.Contains(out.Content(), "/mode") {
		t.Errorf("expected help text, got %q", out.Content())
	}
}

// ─── Pruning ───────────────────────────────────────────────────────────────

func TestPruneIdle(t *testing.T) {
	client := &fakeClient{resp: schema.ModelResponse{Text: "hi"}}
	h, b := newTestHub(t, client)

	h.handleMessage(context.Background(), inbound("hello"))
	receiveOutbound(t, b)

	if n := h.PruneIdle(time.Hour); n != 0 {
		t.Errorf("fresh session must survive, pruned %d", n)
	}
	if n := h.PruneIdle(0); n != 1 {
		t.Errorf("expected 1 pruned session, got %d", n)
	}
	if h.Sessions() != 0 {
		t.Errorf("expected no sessions left, got %d", h.Sessions())
	}
}
