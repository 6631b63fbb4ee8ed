package relay

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatline/types"
)

const (
	sendQueueSize = 64
	writeTimeout  = 10 * time.Second
)

// channels is the live connection registry, the one piece of shared
// mutable relay state. Register, Unregister and the fan-out snapshot all
// go through channelsMu.
var channels = map[*websocket.Conn]*Client{}
var channelsMu sync.Mutex

// Client is one connected channel. Its lifecycle is connected then
// disconnected, terminal; a reconnecting peer gets a fresh Client with no
// backlog replay.
type Client struct {
	Conn      *websocket.Conn
	SendQueue chan WSMessage
	Done      chan struct{}
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SendMessage is the inbound send_message event. The claimed sender email
// is resolved against the user store, best effort.
type SendMessage struct {
	Text        string `json:"text"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
}

// NewMessage is the outbound new_message event fanned out to every
// connected channel.
type NewMessage struct {
	Text       string    `json:"text"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"timestamp"`
}

type ChatError struct {
	Content string `json:"error"`
}

func Register(conn *websocket.Conn) *Client {
	client := &Client{
		Conn:      conn,
		SendQueue: make(chan WSMessage, sendQueueSize),
		Done:      make(chan struct{}),
	}
	channelsMu.Lock()
	channels[conn] = client
	count := len(channels)
	channelsMu.Unlock()
	log.Printf("Channel connected. Total channels: %d", count)
	return client
}

func Unregister(client *Client) {
	channelsMu.Lock()
	_, registered := channels[client.Conn]
	if registered {
		delete(channels, client.Conn)
	}
	count := len(channels)
	channelsMu.Unlock()

	// Close only on the first unregister so a failed write racing the
	// read-loop teardown cannot close the queues twice.
	if registered {
		close(client.SendQueue)
		close(client.Done)
		log.Printf("Channel disconnected. Total channels: %d", count)
	}
}

func Count() int {
	channelsMu.Lock()
	defer channelsMu.Unlock()
	return len(channels)
}

// Broadcast fans one new_message event out to every currently registered
// channel. Delivery is at-most-once and fire-and-forget: a channel that
// cannot take the event right now is skipped, and a write failure on one
// channel never affects the others or the already persisted message.
func Broadcast(message types.Message) {
	payload := WSMessage{
		Type: "new_message",
		Data: NewMessage{
			Text:       message.Text,
			SenderName: message.SenderName,
			Timestamp:  message.Timestamp,
		},
	}

	for _, client := range snapshot() {
		safeSend(client, payload)
	}
}

func snapshot() []*Client {
	channelsMu.Lock()
	defer channelsMu.Unlock()
	clients := make([]*Client, 0, len(channels))
	for _, client := range channels {
		clients = append(clients, client)
	}
	return clients
}

// safeSend enqueues without blocking. The registry check and the enqueue
// happen under the registry lock, so a disconnect during a broadcast can
// never hit a closed queue.
func safeSend(client *Client, msg WSMessage) {
	channelsMu.Lock()
	defer channelsMu.Unlock()
	if _, ok := channels[client.Conn]; !ok {
		return
	}
	select {
	case client.SendQueue <- msg:
	default:
		log.Printf("safeSend: send queue full, dropping event for slow channel")
	}
}

// WritePump drains the client's send queue onto the wire. One slow or
// broken connection only ever stalls its own pump.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		select {
		case msg, ok := <-c.SendQueue:
			if !ok {
				return
			}
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Println("WritePump deadline error:", err)
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				log.Println("WritePump error:", err)
				return
			}
		case <-c.Done:
			return
		}
	}
}
