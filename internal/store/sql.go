package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLRepo implements DeploymentRepo over database/sql. Works with both
// the sqlite and pgx drivers; the schema lives in internal/db.
type SQLRepo struct {
	db     *sql.DB
	driver string
}

func NewSQLRepo(db *sql.DB, driver string) *SQLRepo {
	return &SQLRepo{db: db, driver: driver}
}

const deploymentCols = `dkey, platform_id, deployment_id, client_id,
  oidc_auth_url, oauth_token_url, well_known_jwks,
  contact_name, contact_email, organization, organization_url,
  lms, status, licenses_remaining`

func (r *SQLRepo) GetExact(ctx context.Context, platformID, deploymentID string) (Deployment, error) {
	key := platformID + "/" + deploymentID
	row := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT `+deploymentCols+` FROM deployments WHERE dkey = ?`), key)
	d, err := scanDeployment(row)
	if err == sql.ErrNoRows {
		return Deployment{}, ErrNotFound
	}
	if err != nil {
		return Deployment{}, fmt.Errorf("store: get %s: %w", key, err)
	}
	return d, nil
}

func (r *SQLRepo) ScanPrefix(ctx context.Context, platformID string) ([]Deployment, error) {
	lo := platformID + "/"
	hi := platformID + "/~"
	rows, err := r.db.QueryContext(ctx,
		r.rebind(`SELECT `+deploymentCols+` FROM deployments WHERE dkey >= ? AND dkey < ? ORDER BY dkey`), lo, hi)
	if err != nil {
		return nil, fmt.Errorf("store: scan %s: %w", platformID, err)
	}
	defer rows.Close()

	var out []Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", platformID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLRepo) Put(ctx context.Context, d Deployment) error {
	_, err := r.db.ExecContext(ctx, r.rebind(`
INSERT INTO deployments (`+deploymentCols+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (dkey) DO UPDATE SET
  client_id=excluded.client_id,
  oidc_auth_url=excluded.oidc_auth_url,
  oauth_token_url=excluded.oauth_token_url,
  well_known_jwks=excluded.well_known_jwks,
  contact_name=excluded.contact_name,
  contact_email=excluded.contact_email,
  organization=excluded.organization,
  organization_url=excluded.organization_url,
  lms=excluded.lms,
  status=excluded.status,
  licenses_remaining=excluded.licenses_remaining`),
		d.Key(), d.PlatformID, d.DeploymentID, d.ClientID,
		d.OIDCAuthURL, d.OAuthTokenURL, d.WellKnownJWKS,
		d.ContactName, d.ContactEmail, d.Organization, d.OrganizationURL,
		d.LMS, d.Status, d.LicensesRemaining)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", d.Key(), err)
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanDeployment(row rowScanner) (Deployment, error) {
	var d Deployment
	var key string
	err := row.Scan(&key, &d.PlatformID, &d.DeploymentID, &d.ClientID,
		&d.OIDCAuthURL, &d.OAuthTokenURL, &d.WellKnownJWKS,
		&d.ContactName, &d.ContactEmail, &d.Organization, &d.OrganizationURL,
		&d.LMS, &d.Status, &d.LicensesRemaining)
	return d, err
}

// rebind rewrites "?" placeholders to $1..$n for postgres.
func (r *SQLRepo) rebind(q string) string {
	if r.driver != "postgres" {
		return q
	}
	var b []byte
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b = append(b, fmt.Sprintf("$%d", n)...)
			continue
		}
		b = append(b, q[i])
	}
	return string(b)
}
