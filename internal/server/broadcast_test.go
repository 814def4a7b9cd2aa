package server

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsPair returns a server-side connection and the matching client connection
func wsPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	serverConn := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConn <- conn
	}))
	t.Cleanup(ts.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return <-serverConn, client
}

func TestBroadcasterDelivers(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0))
	srv, cli := wsPair(t)

	c := b.AddClient(srv, []byte("hello"))
	if c.id == "" {
		t.Error("client should get an id")
	}
	b.Broadcast([]byte("world"))

	for _, want := range []string{"hello", "world"} {
		_ = cli.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := cli.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(data) != want {
			t.Errorf("got %q, want %q", data, want)
		}
	}

	if b.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", b.ClientCount())
	}
	b.RemoveClient(c)
	b.RemoveClient(c)
	if b.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after remove", b.ClientCount())
	}
}

func TestBroadcasterCloseAll(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0))
	srv1, _ := wsPair(t)
	srv2, _ := wsPair(t)
	b.AddClient(srv1, nil)
	b.AddClient(srv2, nil)

	b.CloseAll()
	if b.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after CloseAll", b.ClientCount())
	}
}

func TestBroadcasterRemoveDuringBroadcast(t *testing.T) {
	b := NewBroadcaster(log.New(io.Discard, "", 0))

	clients := make([]*client, 20)
	for i := range clients {
		srv, _ := wsPair(t)
		clients[i] = b.AddClient(srv, nil)
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.RemoveClient(c)
		}()
	}
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Broadcast([]byte("snapshot"))
		}()
	}
	wg.Wait()

	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount() = %d, want 0", n)
	}
}
