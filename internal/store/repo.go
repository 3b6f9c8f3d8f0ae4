package store

import (
	"context"
	"errors"
)

// Deployment is one tenant's registration with one LMS platform.
type Deployment struct {
	// PlatformID is the normalized issuer URL (https, no trailing slash).
	PlatformID   string
	DeploymentID string

	ClientID string

	OIDCAuthURL   string
	OAuthTokenURL string
	WellKnownJWKS string

	ContactName     string
	ContactEmail    string
	Organization    string
	OrganizationURL string

	LMS    string // platform family label, e.g. "canvas"
	Status string // "active" once vetted, "auto" when self-registered

	LicensesRemaining int
}

const (
	StatusActive = "active"
	StatusAuto   = "auto"
)

// Key is the composite repository key, platform_id + "/" + deployment_id.
func (d Deployment) Key() string { return d.PlatformID + "/" + d.DeploymentID }

// ErrNotFound is returned by GetExact when no record exists at the key.
var ErrNotFound = errors.New("store: deployment not found")

// DeploymentRepo is the keyed store the resolver runs against.
//
// Put must be an idempotent upsert: two concurrent first-contact
// registrations for the same key collapse to last-write-wins.
type DeploymentRepo interface {
	// GetExact returns the record at platformID + "/" + deploymentID.
	GetExact(ctx context.Context, platformID, deploymentID string) (Deployment, error)
	// ScanPrefix returns every record whose key lies in the half-open
	// range [platformID+"/", platformID+"/~"). The "~" sentinel bounds
	// the lexicographic scan.
	ScanPrefix(ctx context.Context, platformID string) ([]Deployment, error)
	Put(ctx context.Context, d Deployment) error
}
