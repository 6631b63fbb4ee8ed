package relay

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"chatline/types"
)

func newTestMessage(text string) types.Message {
	return types.Message{
		ID:         1,
		Text:       text,
		SenderName: "Ana",
		Timestamp:  time.Now().UTC(),
	}
}

func drainOne(t *testing.T, client *Client) WSMessage {
	t.Helper()
	select {
	case msg := <-client.SendQueue:
		return msg
	default:
		t.Fatalf("expected a queued event")
		return WSMessage{}
	}
}

func TestBroadcastReachesRegisteredChannels(t *testing.T) {
	first := Register(&websocket.Conn{})
	second := Register(&websocket.Conn{})
	defer Unregister(first)
	defer Unregister(second)

	Broadcast(newTestMessage("hi"))

	for _, client := range []*Client{first, second} {
		msg := drainOne(t, client)
		if msg.Type != "new_message" {
			t.Fatalf("expected new_message event, got %q", msg.Type)
		}
		payload, ok := msg.Data.(NewMessage)
		if !ok {
			t.Fatalf("unexpected payload type %T", msg.Data)
		}
		if payload.Text != "hi" || payload.SenderName != "Ana" {
			t.Fatalf("unexpected payload %+v", payload)
		}
	}
}

func TestLateChannelGetsNoBacklog(t *testing.T) {
	early := Register(&websocket.Conn{})
	defer Unregister(early)

	Broadcast(newTestMessage("before"))

	late := Register(&websocket.Conn{})
	defer Unregister(late)

	if len(late.SendQueue) != 0 {
		t.Fatalf("late channel received %d replayed events", len(late.SendQueue))
	}
	if len(early.SendQueue) != 1 {
		t.Fatalf("early channel expected 1 event, got %d", len(early.SendQueue))
	}
}

func TestSlowChannelDoesNotBlockFanOut(t *testing.T) {
	slow := Register(&websocket.Conn{})
	healthy := Register(&websocket.Conn{})
	defer Unregister(slow)
	defer Unregister(healthy)

	for i := 0; i < sendQueueSize; i++ {
		safeSend(slow, WSMessage{Type: "new_message"})
	}

	done := make(chan struct{})
	go func() {
		Broadcast(newTestMessage("hi"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked on a full send queue")
	}

	if len(slow.SendQueue) != sendQueueSize {
		t.Fatalf("full queue grew to %d", len(slow.SendQueue))
	}
	if len(healthy.SendQueue) != 1 {
		t.Fatalf("healthy channel expected 1 event, got %d", len(healthy.SendQueue))
	}
}

func TestUnregisterDuringBroadcastIsSafe(t *testing.T) {
	client := Register(&websocket.Conn{})
	Unregister(client)

	// A second unregister and a send to a departed channel are both
	// no-ops rather than panics on the closed queue.
	Unregister(client)
	safeSend(client, WSMessage{Type: "new_message"})

	Broadcast(newTestMessage("hi"))

	if _, ok := <-client.SendQueue; ok {
		t.Fatalf("departed channel still received an event")
	}
}
