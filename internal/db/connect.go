package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:ltilogin.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/ltilogin?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// dkey is platform_id + "/" + deployment_id; the prefix range scan in the
// resolver depends on it being the primary key.
const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS deployments (
  dkey TEXT PRIMARY KEY,
  platform_id TEXT NOT NULL,
  deployment_id TEXT NOT NULL,
  client_id TEXT NOT NULL DEFAULT '',
  oidc_auth_url TEXT NOT NULL DEFAULT '',
  oauth_token_url TEXT NOT NULL DEFAULT '',
  well_known_jwks TEXT NOT NULL DEFAULT '',
  contact_name TEXT NOT NULL DEFAULT '',
  contact_email TEXT NOT NULL DEFAULT '',
  organization TEXT NOT NULL DEFAULT '',
  organization_url TEXT NOT NULL DEFAULT '',
  lms TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'auto',
  licenses_remaining INTEGER NOT NULL DEFAULT 0
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS deployments (
  dkey TEXT PRIMARY KEY,
  platform_id TEXT NOT NULL,
  deployment_id TEXT NOT NULL,
  client_id TEXT NOT NULL DEFAULT '',
  oidc_auth_url TEXT NOT NULL DEFAULT '',
  oauth_token_url TEXT NOT NULL DEFAULT '',
  well_known_jwks TEXT NOT NULL DEFAULT '',
  contact_name TEXT NOT NULL DEFAULT '',
  contact_email TEXT NOT NULL DEFAULT '',
  organization TEXT NOT NULL DEFAULT '',
  organization_url TEXT NOT NULL DEFAULT '',
  lms TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'auto',
  licenses_remaining INTEGER NOT NULL DEFAULT 0
);
`
