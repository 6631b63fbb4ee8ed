package types

import (
	"errors"
	"time"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Store-level failures. Handlers map these onto HTTP statuses; nothing
// else inspects them.
var (
	ErrValidation         = errors.New("missing required field")
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateIdentity  = errors.New("identity already taken")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Password string    `json:"-"`
	Age      *int      `json:"age,omitempty"`
	Status   string    `json:"status"`
	Messages []Message `json:"messages"`
}

type Message struct {
	ID         int       `json:"id"`
	UserID     string    `json:"-"`
	Text       string    `json:"text"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"timestamp"`
}
