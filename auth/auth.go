package auth

import (
	"errors"
	"log"
	"os"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"chatline/types"
	"chatline/users"
)

func generateJWT(username string, expirationTime time.Duration) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(expirationTime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// HandleLogin checks the supplied credentials against the stored bcrypt
// hash and answers with the user plus a signed token. Bad credentials and
// unknown usernames both come back as a plain 401.
func HandleLogin(c *gin.Context) {
	var json struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BindJSON(&json); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request data"})
		return
	}

	user, err := users.Authenticate(json.Username, json.Password)
	if err != nil {
		if errors.Is(err, types.ErrInvalidCredentials) {
			c.JSON(401, gin.H{"error": "Invalid username or password"})
			return
		}
		log.Println("Error authenticating user:", err)
		c.JSON(500, gin.H{"error": "Database error during login"})
		return
	}

	token, err := generateJWT(user.Username, time.Hour*672) // 28 days
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to generate auth token"})
		return
	}

	c.JSON(200, gin.H{"user": user, "auth_token": token})
}
