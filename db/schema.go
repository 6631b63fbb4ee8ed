package db

import (
	"database/sql"
	"fmt"
)

// EnsureSchema creates the chat tables if they are missing and backfills
// columns that later revisions of the schema introduced (status, age).
func EnsureSchema(database *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			username TEXT NOT NULL UNIQUE,
			email TEXT UNIQUE,
			password TEXT NOT NULL,
			age INTEGER,
			status TEXT NOT NULL DEFAULT 'offline'
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL REFERENCES users(id),
			text TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user_id ON messages(user_id)`,
	}

	for _, stmt := range statements {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("schema exec failed: %w", err)
		}
	}

	if err := ensureColumnExists(database, "users", "status",
		`ALTER TABLE users ADD COLUMN status TEXT NOT NULL DEFAULT 'offline'`); err != nil {
		return err
	}
	if err := ensureColumnExists(database, "users", "age",
		`ALTER TABLE users ADD COLUMN age INTEGER`); err != nil {
		return err
	}

	return nil
}

func ensureColumnExists(database *sql.DB, tableName, columnName, alterStmt string) error {
	rows, err := database.Query("PRAGMA table_info(" + tableName + ")")
	if err != nil {
		return fmt.Errorf("table_info query failed for %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notNull int
		var defaultValue interface{}
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return fmt.Errorf("table_info scan failed for %s: %w", tableName, err)
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("table_info row error for %s: %w", tableName, err)
	}

	if _, err := database.Exec(alterStmt); err != nil {
		return fmt.Errorf("alter table failed for %s.%s: %w", tableName, columnName, err)
	}
	return nil
}
