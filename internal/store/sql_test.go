package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/lti-login/internal/db"
	"github.com/mind-engage/lti-login/internal/store"
)

// newSQLRepo opens a fresh in-memory sqlite database with the real
// schema so the rebind/scan/upsert SQL runs as it does in production.
func newSQLRepo(t *testing.T) *store.SQLRepo {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return store.NewSQLRepo(dbh, "sqlite")
}

func TestSQLRepoExactMissAndHit(t *testing.T) {
	repo := newSQLRepo(t)
	ctx := context.Background()

	if _, err := repo.GetExact(ctx, "https://p.com", "d1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	want := store.Deployment{
		PlatformID:        "https://p.com",
		DeploymentID:      "d1",
		ClientID:          "c1",
		OIDCAuthURL:       "https://p.com/auth",
		OAuthTokenURL:     "https://p.com/token",
		WellKnownJWKS:     "https://p.com/jwks",
		ContactName:       "Pat",
		ContactEmail:      "pat@example.com",
		Organization:      "Example U",
		OrganizationURL:   "https://example.edu",
		LMS:               "canvas",
		Status:            store.StatusActive,
		LicensesRemaining: 40,
	}
	if err := repo.Put(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetExact(ctx, "https://p.com", "d1")
	if err != nil {
		t.Fatal(err)
	}
	// Every column must survive the round trip.
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSQLRepoPutIsUpsert(t *testing.T) {
	repo := newSQLRepo(t)
	ctx := context.Background()

	d := store.Deployment{PlatformID: "https://p.com", DeploymentID: "d1", Status: store.StatusAuto}
	if err := repo.Put(ctx, d); err != nil {
		t.Fatal(err)
	}
	d.Status = store.StatusActive
	d.LicensesRemaining = 30
	if err := repo.Put(ctx, d); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetExact(ctx, "https://p.com", "d1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != store.StatusActive || got.LicensesRemaining != 30 {
		t.Fatalf("got %+v", got)
	}
	recs, err := repo.ScanPrefix(ctx, "https://p.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("upsert duplicated the record: %d", len(recs))
	}
}

func TestSQLRepoScanPrefixBounds(t *testing.T) {
	repo := newSQLRepo(t)
	ctx := context.Background()

	for _, d := range []store.Deployment{
		{PlatformID: "https://p.com", DeploymentID: "a"},
		{PlatformID: "https://p.com", DeploymentID: "b"},
		{PlatformID: "https://p.community.org", DeploymentID: "x"},
		{PlatformID: "https://q.com", DeploymentID: "c"},
	} {
		if err := repo.Put(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := repo.ScanPrefix(ctx, "https://p.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].DeploymentID != "a" || recs[1].DeploymentID != "b" {
		t.Fatalf("got %+v", recs)
	}

	recs, err = repo.ScanPrefix(ctx, "https://nobody.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("empty prefix scan returned %d records", len(recs))
	}
}
