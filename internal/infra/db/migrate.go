package db

import "database/sql"

// MigrateUp creates the flows and websub tables if they do not already
// exist. uuid columns store the raw 16-byte form (see repository/postgres),
// matching the teacher's CREATE-TABLE-IF-NOT-EXISTS style migration.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS flows (
    uuid    BYTEA PRIMARY KEY,
    name    TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS websub (
    uuid       BYTEA PRIMARY KEY,
    flow       TEXT NOT NULL,
    topic      TEXT NOT NULL,
    hub        TEXT NOT NULL,
    secret     TEXT NOT NULL,
    subscribed BOOLEAN NOT NULL DEFAULT FALSE,
    lease_end  TIMESTAMPTZ
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_flows_name ON flows(name)`,
		`CREATE INDEX IF NOT EXISTS idx_websub_flow ON websub(flow)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the websub table and its index, leaving flows intact.
// Flows are the durable artifact a user authored; a subscription is a
// revocable side effect of running one, so only it gets a down migration.
func MigrateDown(db *sql.DB) error {
	if _, err := db.Exec(`DROP INDEX IF EXISTS idx_websub_flow`); err != nil {
		return err
	}
	if _, err := db.Exec(`DROP TABLE IF EXISTS websub CASCADE`); err != nil {
		return err
	}
	return nil
}
