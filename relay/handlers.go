package relay

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"chatline/messages"
	"chatline/types"
	"chatline/users"
)

// HandlePostMessage is the HTTP entry into the append-then-broadcast
// primitive: it addresses the user by id directly, persists the message,
// responds with the updated user, and fans the event out without waiting
// for delivery.
func HandlePostMessage(c *gin.Context) {
	var json struct {
		Text       string `json:"text" binding:"required"`
		SenderName string `json:"senderName" binding:"required"`
	}

	if err := c.ShouldBindJSON(&json); err != nil {
		c.JSON(400, gin.H{"error": "text and senderName are required"})
		return
	}

	message, err := messages.Append(c.Param("id"), json.Text, json.SenderName)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			c.JSON(400, gin.H{"error": err.Error()})
		case errors.Is(err, types.ErrNotFound):
			c.JSON(404, gin.H{"error": "User not found"})
		default:
			log.Println("Error appending message:", err)
			c.JSON(500, gin.H{"error": "Database error inserting message"})
		}
		return
	}

	Broadcast(message)

	user, err := users.Get(message.UserID)
	if err != nil {
		log.Println("Error loading user after append:", err)
		c.JSON(500, gin.H{"error": "Database error loading user"})
		return
	}
	c.JSON(201, user)
}
