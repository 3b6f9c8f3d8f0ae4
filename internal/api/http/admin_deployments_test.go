package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/lti-login/internal/api/http"
	"github.com/mind-engage/lti-login/internal/store"
)

func adminRouter(t *testing.T, repo store.DeploymentRepo) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	mux.Handle("/admin/deployments", api.ListDeploymentsHandler(repo))
	mux.Handle("/admin/deployments/promote", api.PromoteDeploymentHandler(repo))
	return api.BasicAuth("admin", string(hash))(mux)
}

func TestAdminRequiresAuth(t *testing.T) {
	h := adminRouter(t, store.NewMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/admin/deployments?platform=https://p.com", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no creds: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/deployments?platform=https://p.com", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d", rec.Code)
	}
}

func TestAdminListRequiresPlatform(t *testing.T) {
	// Listing runs on the repository's per-platform prefix scan, so the
	// platform parameter is part of the contract.
	h := adminRouter(t, store.NewMemoryRepo())
	req := httptest.NewRequest(http.MethodGet, "/admin/deployments", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "platform") {
		t.Fatalf("body does not name the missing parameter: %q", rec.Body.String())
	}
}

func TestAdminListFiltersStatus(t *testing.T) {
	repo := store.NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Put(ctx, store.Deployment{PlatformID: "https://p.com", DeploymentID: "d1", Status: store.StatusActive})
	_ = repo.Put(ctx, store.Deployment{PlatformID: "https://p.com", DeploymentID: "d2", Status: store.StatusAuto})
	h := adminRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/admin/deployments?platform=https://p.com&status=auto", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	var got []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0]["deployment_id"] != "d2" {
		t.Fatalf("got %v", got)
	}
}

func TestAdminPromote(t *testing.T) {
	repo := store.NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Put(ctx, store.Deployment{PlatformID: "https://p.com", DeploymentID: "d1", Status: store.StatusAuto})
	h := adminRouter(t, repo)

	body := `{"platform_id":"https://p.com","deployment_id":"d1","licenses":25}`
	req := httptest.NewRequest(http.MethodPost, "/admin/deployments/promote", strings.NewReader(body))
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	d, err := repo.GetExact(ctx, "https://p.com", "d1")
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != store.StatusActive || d.LicensesRemaining != 25 {
		t.Fatalf("deployment = %+v", d)
	}
}

func TestAdminPromoteUnknownDeployment(t *testing.T) {
	h := adminRouter(t, store.NewMemoryRepo())
	body := `{"platform_id":"https://p.com","deployment_id":"nope","licenses":1}`
	req := httptest.NewRequest(http.MethodPost, "/admin/deployments/promote", strings.NewReader(body))
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
