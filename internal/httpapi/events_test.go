package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"modelhub/internal/manager"
)

func dialEvents(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	return websocket.DefaultDialer.Dial(url, header)
}

func waitClients(t *testing.T, s *EventStream, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("want %d clients, have %d", n, s.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventStreamDeliversEvents(t *testing.T) {
	stream := NewEventStream()
	SetEventStream(stream)
	t.Cleanup(func() { SetEventStream(nil) })
	srv := httptest.NewServer(NewMux(newMock()))
	defer srv.Close()

	conn, _, err := dialEvents(t, srv, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, stream, 1)

	stream.Publish(manager.Event{Name: manager.EventModelLoaded, ModelID: "m", Fields: map[string]any{"format": "gguf"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev StreamEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != manager.EventModelLoaded || ev.Model != "m" || ev.Data["format"] != "gguf" || ev.Timestamp == 0 {
		t.Fatalf("unexpected event %+v", ev)
	}

	conn.Close()
	waitClients(t, stream, 0)
}

func TestEventStreamCloseDisconnectsClients(t *testing.T) {
	stream := NewEventStream()
	SetEventStream(stream)
	t.Cleanup(func() { SetEventStream(nil) })
	srv := httptest.NewServer(NewMux(newMock()))
	defer srv.Close()

	conn, _, err := dialEvents(t, srv, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, stream, 1)

	stream.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close after hub shutdown")
	}
	if stream.Clients() != 0 {
		t.Fatalf("clients remain after close")
	}
	// publishing after close is a no-op
	stream.Publish(manager.Event{Name: "x"})
}

func TestEventStreamRejectsCrossOrigin(t *testing.T) {
	SetEventStream(NewEventStream())
	t.Cleanup(func() { SetEventStream(nil) })
	srv := httptest.NewServer(NewMux(newMock()))
	defer srv.Close()

	h := http.Header{}
	h.Set("Origin", "http://evil.example")
	_, resp, err := dialEvents(t, srv, h)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("want 403, got %+v", resp)
	}
}

func TestCheckOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://hub.local:8000/api/events", nil)
	if !checkOrigin(r) {
		t.Fatalf("no origin header should be allowed")
	}
	r.Header.Set("Origin", "http://hub.local:8000")
	if !checkOrigin(r) {
		t.Fatalf("same host should be allowed")
	}
	r.Header.Set("Origin", "http://ui.local:3000")
	if checkOrigin(r) {
		t.Fatalf("other host should be rejected when CORS is off")
	}
	SetCORSOptions(true, []string{"http://ui.local:3000"}, nil, nil)
	t.Cleanup(func() { SetCORSOptions(false, nil, nil, nil) })
	if !checkOrigin(r) {
		t.Fatalf("configured CORS origin should be allowed")
	}
}
