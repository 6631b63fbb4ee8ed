package users

import (
	"chatline/types"
	"errors"
	"log"

	"github.com/gin-gonic/gin"
)

func HandleListUsers(c *gin.Context) {
	users, err := List()
	if err != nil {
		log.Println("Error listing users:", err)
		c.JSON(500, gin.H{"error": "Error fetching users"})
		return
	}
	c.JSON(200, users)
}

func HandleCreateUser(c *gin.Context) {
	var json struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Age      *int   `json:"age"`
	}

	if err := c.BindJSON(&json); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request data"})
		return
	}

	user, err := Create(json.Name, json.Username, json.Email, json.Password, json.Age)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			c.JSON(400, gin.H{"error": err.Error()})
		case errors.Is(err, types.ErrDuplicateIdentity):
			c.JSON(409, gin.H{"error": "Username is already taken"})
		default:
			log.Println("Error creating user:", err)
			c.JSON(500, gin.H{"error": "Database error inserting user"})
		}
		return
	}

	c.JSON(201, user)
}

func HandleUpdateStatus(c *gin.Context) {
	var json struct {
		Status string `json:"status"`
	}

	if err := c.BindJSON(&json); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request data"})
		return
	}

	user, err := UpdateStatus(c.Param("id"), json.Status)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidStatus):
			c.JSON(400, gin.H{"error": "Status must be online or offline"})
		case errors.Is(err, types.ErrNotFound):
			c.JSON(404, gin.H{"error": "User not found"})
		default:
			log.Println("Error updating status:", err)
			c.JSON(500, gin.H{"error": "Database error updating status"})
		}
		return
	}

	c.JSON(200, user)
}
