package messages

import (
	"chatline/types"
	"errors"
	"log"

	"github.com/gin-gonic/gin"
)

func HandleGetMessages(c *gin.Context) {
	messages, err := ListForUser(c.Param("id"))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}
		log.Println("Error listing messages:", err)
		c.JSON(500, gin.H{"error": "Database error extracting messages"})
		return
	}
	c.JSON(200, messages)
}
