package store

// Migrations creates the dataset tables. Every statement is idempotent and
// valid for both sqlite and postgres.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
		id                BIGINT PRIMARY KEY,
		name              TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		uploaded_by       BIGINT NOT NULL,
		uploader_name     TEXT NOT NULL,
		uploaded_at       BIGINT NOT NULL,
		total_count       INTEGER NOT NULL,
		rejected_count    INTEGER NOT NULL,
		avg_flowrate      DOUBLE PRECISION NULL,
		avg_pressure      DOUBLE PRECISION NULL,
		avg_temperature   DOUBLE PRECISION NULL,
		type_distribution TEXT NOT NULL,
		preview_rows      TEXT NOT NULL,
		full_rows         TEXT NOT NULL,
		raw_path          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_datasets_owner_recent ON datasets (uploaded_by, uploaded_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_datasets_recent ON datasets (uploaded_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS dataset_insights (
		dataset_id BIGINT PRIMARY KEY,
		body       TEXT NOT NULL,
		model      TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
}
