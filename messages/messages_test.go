package messages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"chatline/db"
	"chatline/types"
	"chatline/users"
)

func openTestDB(t *testing.T) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "messages-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	database, err := db.InitDB(filepath.Join(tempDir, "messages_test.sqlite"))
	if err != nil {
		t.Fatalf("init sqlite: %v", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	prev := db.ChatDB
	db.ChatDB = database
	t.Cleanup(func() {
		db.ChatDB = prev
		_ = database.Close()
		_ = os.RemoveAll(tempDir)
	})
}

func createUser(t *testing.T) types.User {
	t.Helper()
	user, err := users.Create("Ana", "ana1", "ana@example.com", "x", nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestAppendOrderAndTimestamps(t *testing.T) {
	openTestDB(t)
	user := createUser(t)

	const n = 5
	for i := 0; i < n; i++ {
		if _, err := Append(user.ID, fmt.Sprintf("message %d", i), "Ana"); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	listed, err := ListForUser(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != n {
		t.Fatalf("expected %d messages, got %d", n, len(listed))
	}
	for i, message := range listed {
		if message.Text != fmt.Sprintf("message %d", i) {
			t.Fatalf("message %d out of append order: %q", i, message.Text)
		}
		if i > 0 && message.Timestamp.Before(listed[i-1].Timestamp) {
			t.Fatalf("timestamp %d decreased: %v < %v", i, message.Timestamp, listed[i-1].Timestamp)
		}
	}
}

func TestAppendValidation(t *testing.T) {
	openTestDB(t)
	user := createUser(t)

	if _, err := Append(user.ID, "", "Ana"); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}
	if _, err := Append("no-such-id", "hi", "Ana"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}

	listed, err := ListForUser(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("failed appends mutated the log: %d messages", len(listed))
	}
}

func TestListForUnknownUser(t *testing.T) {
	openTestDB(t)

	if _, err := ListForUser("no-such-id"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
