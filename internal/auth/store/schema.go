package store

// Migrations creates the user and token tables for sqlite and postgres.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		date_joined   BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON users (email) WHERE email <> ''`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		token_key  TEXT PRIMARY KEY,
		user_id    BIGINT NOT NULL UNIQUE,
		created_at BIGINT NOT NULL
	)`,
}
