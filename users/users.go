package users

import (
	"chatline/db"
	"chatline/types"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Create validates the required fields, hashes the password and inserts a
// new user. The username pre-check gives a friendly duplicate error, but
// the UNIQUE constraint on insert is the authoritative signal since the
// check and the insert are not atomic.
func Create(name, username, email, password string, age *int) (types.User, error) {
	if name == "" {
		return types.User{}, fmt.Errorf("%w: name", types.ErrValidation)
	}
	if username == "" {
		return types.User{}, fmt.Errorf("%w: username", types.ErrValidation)
	}
	if password == "" {
		return types.User{}, fmt.Errorf("%w: password", types.ErrValidation)
	}

	var exists int
	err := db.ChatDB.QueryRow(`SELECT 1 FROM users WHERE username = ?`, username).Scan(&exists)
	if err == nil {
		return types.User{}, fmt.Errorf("%w: %s", types.ErrDuplicateIdentity, username)
	}
	if err != sql.ErrNoRows {
		return types.User{}, fmt.Errorf("duplicate pre-check failed: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hashing password failed: %w", err)
	}

	id := uuid.NewString()
	var emailValue interface{}
	if email != "" {
		emailValue = email
	}
	var ageValue interface{}
	if age != nil {
		ageValue = *age
	}

	query := `INSERT INTO users (id, name, username, email, password, age, status) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ChatDB.Exec(query, id, name, username, emailValue, hashedPassword, ageValue, types.StatusOffline)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return types.User{}, fmt.Errorf("%w: %s", types.ErrDuplicateIdentity, username)
		}
		return types.User{}, fmt.Errorf("inserting user failed: %w", err)
	}

	return types.User{
		ID:       id,
		Name:     name,
		Username: username,
		Email:    email,
		Age:      age,
		Status:   types.StatusOffline,
		Messages: []types.Message{},
	}, nil
}

// List returns every user in storage order, message history included.
func List() ([]types.User, error) {
	rows, err := db.ChatDB.Query(`SELECT id, name, username, email, password, age, status FROM users`)
	if err != nil {
		return nil, fmt.Errorf("querying users failed: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user row error: %w", err)
	}

	for i := range users {
		messages, err := loadMessages(users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Messages = messages
	}
	return users, nil
}

// Get returns one user by id, message history included.
func Get(id string) (types.User, error) {
	user, err := queryOne(`SELECT id, name, username, email, password, age, status FROM users WHERE id = ?`, id)
	if err != nil {
		return types.User{}, err
	}
	user.Messages, err = loadMessages(user.ID)
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

// ByUsername is the exact-match identity lookup used for login.
func ByUsername(username string) (types.User, error) {
	return queryOne(`SELECT id, name, username, email, password, age, status FROM users WHERE username = ?`, username)
}

// ByEmail is the exact-match lookup the relay uses to resolve a claimed
// sender. Users without a stored email are never matched.
func ByEmail(email string) (types.User, error) {
	if email == "" {
		return types.User{}, types.ErrNotFound
	}
	return queryOne(`SELECT id, name, username, email, password, age, status FROM users WHERE email = ?`, email)
}

// UpdateStatus sets the presence flag and returns the updated user.
func UpdateStatus(id, status string) (types.User, error) {
	if status != types.StatusOnline && status != types.StatusOffline {
		return types.User{}, fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}

	result, err := db.ChatDB.Exec(`UPDATE users SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return types.User{}, fmt.Errorf("updating status failed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, fmt.Errorf("updating status failed: %w", err)
	}
	if affected == 0 {
		return types.User{}, types.ErrNotFound
	}
	return Get(id)
}

// Authenticate compares the supplied password against the stored bcrypt
// hash. An unknown username and a bad password are indistinguishable to
// the caller.
func Authenticate(username, password string) (types.User, error) {
	user, err := ByUsername(username)
	if err != nil {
		if err == types.ErrNotFound {
			return types.User{}, types.ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return types.User{}, types.ErrInvalidCredentials
	}
	user.Messages, err = loadMessages(user.ID)
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var email sql.NullString
	var age sql.NullInt64
	if err := row.Scan(&user.ID, &user.Name, &user.Username, &email, &user.Password, &age, &user.Status); err != nil {
		return types.User{}, err
	}
	if email.Valid {
		user.Email = email.String
	}
	if age.Valid {
		value := int(age.Int64)
		user.Age = &value
	}
	user.Messages = []types.Message{}
	return user, nil
}

func queryOne(query string, arg interface{}) (types.User, error) {
	row := db.ChatDB.QueryRow(query, arg)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.User{}, types.ErrNotFound
		}
		return types.User{}, fmt.Errorf("querying user failed: %w", err)
	}
	return user, nil
}

func loadMessages(userID string) ([]types.Message, error) {
	rows, err := db.ChatDB.Query(
		`SELECT id, user_id, text, sender_name, timestamp FROM messages WHERE user_id = ? ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages failed: %w", err)
	}
	defer rows.Close()

	messages := []types.Message{}
	for rows.Next() {
		var message types.Message
		var timestamp string
		if err := rows.Scan(&message.ID, &message.UserID, &message.Text, &message.SenderName, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning message failed: %w", err)
		}
		message.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing message timestamp failed: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("message row error: %w", err)
	}
	return messages, nil
}
