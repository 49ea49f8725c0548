package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seatserve/seatserve/internal/model"
)

func TestWSTransportStreamsEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("outletId"); got != "outlet-1" {
			t.Errorf("outletId = %q, want outlet-1", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		ev := model.UpdateEvent{Type: model.EventNewOrder, Order: &model.Order{OrderID: "ORD-W"}, Timestamp: time.Now()}
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
		// Hold the connection open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	transport := NewWSTransport(srv.URL, discardLogger())
	conn, err := transport.Open(context.Background(), "outlet-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	payload := readMessage(t, conn)
	var ev model.UpdateEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if ev.Type != model.EventNewOrder || ev.Order == nil || ev.Order.OrderID != "ORD-W" {
		t.Errorf("event = %+v", ev)
	}
}

func TestWSTransportUnsupportedServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotImplemented)
	}))
	defer srv.Close()

	transport := NewWSTransport(srv.URL, discardLogger())
	_, err := transport.Open(context.Background(), "outlet-1")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Open error = %v, want ErrUnsupported", err)
	}
}

func TestWSConnReportsStaleConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Hold the connection open without sending anything.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	transport := NewWSTransport(srv.URL, discardLogger())
	conn, err := transport.Open(context.Background(), "outlet-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	if conn.Closed() {
		t.Fatal("Closed() = true on a fresh connection")
	}

	wc := conn.(*wsConn)
	wc.lastRead.Store(time.Now().Add(-staleAfter - time.Second).UnixNano())

	if !conn.Closed() {
		t.Error("Closed() = false for a connection silent past the staleness window")
	}
	select {
	case _, ok := <-conn.Messages():
		if !ok {
			t.Error("message channel closed while the read is still blocked")
		}
	default:
	}
}

func TestWSConnPingRefreshesActivity(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ping := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		go func() {
			<-ping
			conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	transport := NewWSTransport(srv.URL, discardLogger())
	conn, err := transport.Open(context.Background(), "outlet-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	wc := conn.(*wsConn)
	wc.lastRead.Store(time.Now().Add(-staleAfter - time.Second).UnixNano())
	if !conn.Closed() {
		t.Fatal("Closed() = false for a backdated connection")
	}

	close(ping)
	waitFor(t, "ping to refresh activity", func() bool { return !conn.Closed() })
}

func TestWSTransportRewritesScheme(t *testing.T) {
	cases := map[string]string{
		"http://localhost:3000":   "ws://localhost:3000",
		"https://orders.example":  "wss://orders.example",
		"https://orders.example/": "wss://orders.example",
	}
	for in, want := range cases {
		transport := NewWSTransport(in, discardLogger())
		if transport.baseURL != want {
			t.Errorf("NewWSTransport(%q).baseURL = %q, want %q", in, transport.baseURL, want)
		}
	}
}
