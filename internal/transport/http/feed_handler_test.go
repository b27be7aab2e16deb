package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

func TestFeedStreamsSubmissions(t *testing.T) {
	env := newTestEnv(t, testOptions{})
	ts := httptest.NewServer(env.server.Handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/submissions"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	waitForSubscribers(t, env, 1)

	resp, err := http.Post(ts.URL+"/api/contact", "application/json",
		bytes.NewBufferString(`{"name":"Ann","email":"ann@x.com","message":"Hi"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var got store.Submission
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Name != "Ann" || got.ID == "" {
		t.Errorf("unexpected submission %+v", got)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestFeedClosesOnHubShutdown(t *testing.T) {
	env := newTestEnv(t, testOptions{})
	ts := httptest.NewServer(env.server.Handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/submissions"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	waitForSubscribers(t, env, 1)
	env.hub.Close()

	_, _, err = conn.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusGoingAway {
		t.Errorf("expected StatusGoingAway, got %v (%v)", status, err)
	}
}

func waitForSubscribers(t *testing.T, env *testEnv, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Subscribers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
