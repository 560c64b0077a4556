package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*Server, *Registry) {
	t.Helper()
	reg, _, _ := newTestGraph(t)
	return New(reg, &Config{SendBuffer: 8}), reg
}

func TestServerList(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []NodeInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(got))
	}
	if got[0].Name != "count" || string(got[0].Value) != "1" || !got[0].Writable {
		t.Errorf("unexpected first node %+v", got[0])
	}
	if got[1].Name != "doubled" || string(got[1].Value) != "2" || got[1].Writable {
		t.Errorf("unexpected second node %+v", got[1])
	}
}

func TestServerGetPut(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"get value", http.MethodGet, "/signals/count", "", http.StatusOK},
		{"get unknown", http.MethodGet, "/signals/missing", "", http.StatusNotFound},
		{"put value", http.MethodPut, "/signals/count", "21", http.StatusNoContent},
		{"put computed", http.MethodPut, "/signals/doubled", "1", http.StatusMethodNotAllowed},
		{"put bad json", http.MethodPut, "/signals/count", "{", http.StatusBadRequest},
		{"put unknown", http.MethodPut, "/signals/missing", "1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signals/doubled", nil))
	if strings.TrimSpace(rec.Body.String()) != "42" {
		t.Errorf("expected 42 after PUT, got %q", rec.Body.String())
	}
}

func TestServerMount(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Mount("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "OK")
	}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Body.String() != "OK" {
		t.Errorf("expected OK, got %q", rec.Body.String())
	}
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return msg
}

func TestWebSocketStreamsChanges(t *testing.T) {
	srv, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts, "?signal=doubled")

	first := readMessage(t, conn)
	if first.Signal != "doubled" || string(first.Value) != "2" || first.Seq != 1 {
		t.Errorf("unexpected initial message %+v", first)
	}

	if err := reg.Set("count", []byte("4")); err != nil {
		t.Fatal(err)
	}
	next := readMessage(t, conn)
	if next.Signal != "doubled" || string(next.Value) != "8" || next.Seq != 2 {
		t.Errorf("unexpected change message %+v", next)
	}
}

func TestWebSocketSetCommand(t *testing.T) {
	srv, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts, "?signal=count")
	readMessage(t, conn)

	if err := conn.WriteJSON(Command{Op: "set", Signal: "count", Value: json.RawMessage("9")}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	msg := readMessage(t, conn)
	if string(msg.Value) != "9" {
		t.Errorf("expected 9, got %+v", msg)
	}
	if v, _ := reg.Value("doubled"); string(v) != "18" {
		t.Errorf("expected doubled 18, got %s", v)
	}

	if err := conn.WriteJSON(Command{Op: "set", Signal: "doubled", Value: json.RawMessage("1")}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); !strings.Contains(msg.Error, "read-only") {
		t.Errorf("expected read-only error, got %+v", msg)
	}

	if err := conn.WriteJSON(Command{Op: "drop"}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); !strings.Contains(msg.Error, "unknown op") {
		t.Errorf("expected unknown op error, got %+v", msg)
	}
}

func TestWebSocketUnknownSignal(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?signal=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 response, got %v", resp)
	}
}

func TestWebSocketDisconnectUnsubscribes(t *testing.T) {
	srv, reg := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts, "")
	readMessage(t, conn)
	readMessage(t, conn)

	node, _ := reg.Lookup("doubled")
	type counted interface{ Len() int }
	if node.(counted).Len() != 1 {
		t.Fatalf("expected 1 listener while connected, got %d", node.(counted).Len())
	}

	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for node.(counted).Len() != 0 || srv.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("listener not removed after disconnect (listeners=%d clients=%d)",
				node.(counted).Len(), srv.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServeShutdown(t *testing.T) {
	srv, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)
	go func() { errC <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/signals/count")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errC:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"https://example.com", true},
		{"http://evil.com", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := sameOrigin(req); got != tt.want {
			t.Errorf("origin %q: expected %v, got %v", tt.origin, tt.want, got)
		}
	}
}
