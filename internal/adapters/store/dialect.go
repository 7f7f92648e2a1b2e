package store

import (
	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect captures what differs between the supported SQL backends
type Dialect struct {
	Name        string
	Driver      string
	Placeholder sq.PlaceholderFormat
	Schema      []string
	// MaxOpenConns limits the pool; zero leaves the driver default
	MaxOpenConns int
}

// SQLite stores everything in a single file
var SQLite = Dialect{
	Name:         "sqlite",
	Driver:       "sqlite3",
	Placeholder:  sq.Question,
	MaxOpenConns: 1,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS schools (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			district TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			school_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			response_type TEXT NOT NULL DEFAULT '',
			last_contact TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email)`,
		`CREATE TABLE IF NOT EXISTS suppressions (
			email TEXT PRIMARY KEY,
			contact_name TEXT NOT NULL DEFAULT '',
			school_name TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			added_at TEXT NOT NULL,
			added_by TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			occurred_at TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			contact TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			assigned_to TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS outbound_messages (
			id TEXT PRIMARY KEY,
			recipient TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			sent_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbound_recipient ON outbound_messages(recipient)`,
		`CREATE INDEX IF NOT EXISTS idx_outbound_sent_at ON outbound_messages(sent_at)`,
	},
}

// MySQL keeps indexes inline since it lacks CREATE INDEX IF NOT EXISTS
var MySQL = Dialect{
	Name:        "mysql",
	Driver:      "mysql",
	Placeholder: sq.Question,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS schools (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			district VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(64) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id VARCHAR(64) PRIMARY KEY,
			school_id VARCHAR(64) NOT NULL DEFAULT '',
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL,
			status VARCHAR(64) NOT NULL DEFAULT '',
			response_type VARCHAR(64) NOT NULL DEFAULT '',
			last_contact VARCHAR(20) NOT NULL DEFAULT '',
			notes TEXT NOT NULL,
			INDEX idx_contacts_email (email)
		)`,
		`CREATE TABLE IF NOT EXISTS suppressions (
			email VARCHAR(255) PRIMARY KEY,
			contact_name VARCHAR(255) NOT NULL DEFAULT '',
			school_name VARCHAR(255) NOT NULL DEFAULT '',
			reason VARCHAR(255) NOT NULL DEFAULT '',
			added_at VARCHAR(20) NOT NULL,
			added_by VARCHAR(255) NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id VARCHAR(64) PRIMARY KEY,
			occurred_at VARCHAR(20) NOT NULL,
			activity_type VARCHAR(64) NOT NULL,
			contact VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(64) NOT NULL DEFAULT '',
			priority VARCHAR(64) NOT NULL DEFAULT '',
			assigned_to VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbound_messages (
			id VARCHAR(64) PRIMARY KEY,
			recipient VARCHAR(255) NOT NULL,
			subject VARCHAR(998) NOT NULL DEFAULT '',
			sent_at VARCHAR(20) NOT NULL,
			INDEX idx_outbound_recipient (recipient),
			INDEX idx_outbound_sent_at (sent_at)
		)`,
	},
}

// Postgres is reached through the pgx database/sql driver
var Postgres = Dialect{
	Name:        "postgres",
	Driver:      "pgx",
	Placeholder: sq.Dollar,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS schools (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			district TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			school_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			response_type TEXT NOT NULL DEFAULT '',
			last_contact TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email)`,
		`CREATE TABLE IF NOT EXISTS suppressions (
			email TEXT PRIMARY KEY,
			contact_name TEXT NOT NULL DEFAULT '',
			school_name TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			added_at TEXT NOT NULL,
			added_by TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			occurred_at TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			contact TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			assigned_to TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS outbound_messages (
			id TEXT PRIMARY KEY,
			recipient TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			sent_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbound_recipient ON outbound_messages(recipient)`,
		`CREATE INDEX IF NOT EXISTS idx_outbound_sent_at ON outbound_messages(sent_at)`,
	},
}

// DialectByName returns the dialect for a store type
func DialectByName(name string) (Dialect, bool) {
	switch name {
	case SQLite.Name:
		return SQLite, true
	case MySQL.Name:
		return MySQL, true
	case Postgres.Name:
		return Postgres, true
	}
	return Dialect{}, false
}
