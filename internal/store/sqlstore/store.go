package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite3" {
		// SQLite serializes writers anyway; a single pooled connection
		// avoids lock errors and keeps :memory: databases from being
		// recreated per connection.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		password TEXT NOT NULL,
		photo_url TEXT DEFAULT '',
		phone TEXT DEFAULT '',
		role TEXT NOT NULL,
		rating REAL DEFAULT 5.0,
		total_rides INTEGER DEFAULT 0,
		bio TEXT DEFAULT '',
		vehicle_make TEXT DEFAULT '',
		vehicle_model TEXT DEFAULT '',
		vehicle_year TEXT DEFAULT '',
		vehicle_color TEXT DEFAULT '',
		vehicle_plate TEXT DEFAULT '',
		vehicle_seats INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rides (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL REFERENCES users(id),
		driver_name TEXT NOT NULL,
		driver_photo TEXT DEFAULT '',
		driver_rating REAL DEFAULT 5.0,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		depart_at DATETIME NOT NULL,
		available_seats INTEGER NOT NULL,
		price_per_seat REAL NOT NULL,
		vehicle_make TEXT DEFAULT '',
		vehicle_model TEXT DEFAULT '',
		vehicle_year TEXT DEFAULT '',
		vehicle_color TEXT DEFAULT '',
		vehicle_plate TEXT DEFAULT '',
		vehicle_seats INTEGER DEFAULT 0,
		description TEXT DEFAULT '',
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ride_passengers (
		ride_id TEXT,
		rider_id TEXT,
		PRIMARY KEY (ride_id, rider_id),
		FOREIGN KEY (ride_id) REFERENCES rides(id)
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		ride_id TEXT NOT NULL,
		rider_id TEXT NOT NULL,
		rider_name TEXT NOT NULL,
		rider_photo TEXT DEFAULT '',
		seats_booked INTEGER NOT NULL,
		total_price REAL NOT NULL,
		status TEXT NOT NULL,
		chat_id TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		UNIQUE (ride_id, rider_id)
	);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		ride_id TEXT DEFAULT '',
		last_message TEXT DEFAULT '',
		last_message_time DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_participants (
		chat_id TEXT,
		user_id TEXT,
		name TEXT NOT NULL,
		photo TEXT DEFAULT '',
		PRIMARY KEY (chat_id, user_id),
		FOREIGN KEY (chat_id) REFERENCES chats(id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		chat_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		sender_name TEXT NOT NULL,
		sender_photo TEXT DEFAULT '',
		body TEXT NOT NULL,
		sent_at DATETIME NOT NULL,
		is_read BOOLEAN DEFAULT FALSE,
		FOREIGN KEY (chat_id) REFERENCES chats(id)
	);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

// isUniqueViolation matches the constraint errors both drivers produce.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
