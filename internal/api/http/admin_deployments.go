// internal/api/http/admin_deployments.go
package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/lti-login/internal/store"
)

// Deployment records are created by the login flow with status "auto"
// and zero licenses; these handlers are the administrative process that
// reviews them, promotes status and allocates licenses.

// BasicAuth guards the admin routes with a bcrypt-hashed password.
func BasicAuth(user, passHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(passHash), []byte(p)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type deploymentView struct {
	PlatformID        string `json:"platform_id"`
	DeploymentID      string `json:"deployment_id"`
	ClientID          string `json:"client_id"`
	LMS               string `json:"lms"`
	Status            string `json:"status"`
	LicensesRemaining int    `json:"licenses_remaining"`
	ContactEmail      string `json:"contact_email,omitempty"`
	Organization      string `json:"organization,omitempty"`
}

// ListDeploymentsHandler serves GET /admin/deployments?platform=...[&status=auto].
func ListDeploymentsHandler(repo store.DeploymentRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := r.URL.Query().Get("platform")
		if platform == "" {
			http.Error(w, "platform query parameter required", http.StatusBadRequest)
			return
		}
		recs, err := repo.ScanPrefix(r.Context(), platform)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		status := r.URL.Query().Get("status")
		out := make([]deploymentView, 0, len(recs))
		for _, d := range recs {
			if status != "" && d.Status != status {
				continue
			}
			out = append(out, deploymentView{
				PlatformID:        d.PlatformID,
				DeploymentID:      d.DeploymentID,
				ClientID:          d.ClientID,
				LMS:               d.LMS,
				Status:            d.Status,
				LicensesRemaining: d.LicensesRemaining,
				ContactEmail:      d.ContactEmail,
				Organization:      d.Organization,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// PromoteDeploymentHandler serves POST /admin/deployments/promote.
// Body: {"platform_id": "...", "deployment_id": "...", "licenses": N}.
func PromoteDeploymentHandler(repo store.DeploymentRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlatformID   string `json:"platform_id"`
			DeploymentID string `json:"deployment_id"`
			Licenses     int    `json:"licenses"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.PlatformID == "" || req.DeploymentID == "" {
			http.Error(w, "platform_id and deployment_id required", http.StatusBadRequest)
			return
		}
		d, err := repo.GetExact(r.Context(), req.PlatformID, req.DeploymentID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "deployment not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		d.Status = store.StatusActive
		d.LicensesRemaining = req.Licenses
		if err := repo.Put(r.Context(), d); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": d.Status})
	}
}
