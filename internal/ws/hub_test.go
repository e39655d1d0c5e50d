package ws

import (
	"context"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestHubDispatchRouting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	global := &Client{id: "g", send: make(chan []byte, 4)}
	scoped := &Client{id: "s", gameID: "7", send: make(chan []byte, 4)}
	h.register <- global
	h.register <- scoped
	waitFor(t, func() bool { return h.Census() == 2 })

	h.Dispatch("7", []byte(`{"type":"match_created","game_id":7}`))
	select {
	case <-global.send:
	case <-time.After(time.Second):
		t.Fatal("global spectator missed a game event")
	}
	select {
	case <-scoped.send:
	case <-time.After(time.Second):
		t.Fatal("scoped spectator missed its own game's event")
	}

	h.Dispatch("9", []byte(`{"type":"match_created","game_id":9}`))
	select {
	case <-global.send:
	case <-time.After(time.Second):
		t.Fatal("global spectator missed another game's event")
	}
	select {
	case m := <-scoped.send:
		t.Fatalf("scoped spectator saw another game's event: %s", m)
	case <-time.After(50 * time.Millisecond):
	}

	h.unregister <- scoped
	waitFor(t, func() bool { return h.Census() == 1 })
	if _, ok := <-scoped.send; ok {
		t.Error("unregister should close the send channel")
	}
}

func TestGameRoom(t *testing.T) {
	if got := gameRoom([]byte(`{"game_id":42,"type":"x"}`)); got != "42" {
		t.Errorf("gameRoom = %q, want 42", got)
	}
	if got := gameRoom([]byte(`{"type":"announcement"}`)); got != "" {
		t.Errorf("no game id should mean the global room, got %q", got)
	}
	if got := gameRoom([]byte(`not json`)); got != "" {
		t.Errorf("garbage payload should mean the global room, got %q", got)
	}
}
