package relay

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chatline/messages"
	"chatline/types"
	"chatline/users"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func decodeData[T any](raw interface{}) (T, error) {
	var data T
	bytes, err := json.Marshal(raw)
	if err != nil {
		return data, err
	}
	err = json.Unmarshal(bytes, &data)
	return data, err
}

// HandleSocket upgrades the connection, registers it as a broadcast
// channel and reads inbound events until the peer goes away.
func HandleSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	conn.SetReadLimit(64 * 1024)

	client := Register(conn)
	go client.WritePump()

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(msgBytes, &wsMsg); err != nil {
			log.Println("Invalid message format:", err)
			continue
		}

		switch wsMsg.Type {
		case "send_message":
			handleSendMessage(client, wsMsg)
		default:
			log.Println("Unknown message type:", wsMsg.Type)
		}
	}

	Unregister(client)
}

// handleSendMessage resolves the claimed sender email against the user
// store. No match means the message is silently dropped: not persisted,
// not broadcast. On a match the event path and the HTTP path converge on
// the same append-then-broadcast primitive.
func handleSendMessage(client *Client, wsMsg WSMessage) {
	data, err := decodeData[SendMessage](wsMsg.Data)
	if err != nil {
		safeSend(client, WSMessage{Type: "error", Data: ChatError{Content: "Invalid send_message data"}})
		return
	}

	user, err := users.ByEmail(data.SenderEmail)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			log.Printf("send_message: no user for sender email %q, dropping", data.SenderEmail)
			return
		}
		log.Println("send_message: sender lookup failed:", err)
		safeSend(client, WSMessage{Type: "error", Data: ChatError{Content: "Failed to resolve sender"}})
		return
	}

	message, err := messages.Append(user.ID, data.Text, data.SenderName)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			safeSend(client, WSMessage{Type: "error", Data: ChatError{Content: "Message text is required"}})
			return
		}
		log.Println("send_message: append failed:", err)
		safeSend(client, WSMessage{Type: "error", Data: ChatError{Content: "Failed to save message"}})
		return
	}

	Broadcast(message)
}
