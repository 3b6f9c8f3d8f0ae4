package lti

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/mind-engage/lti-login/internal/notify"
	"github.com/mind-engage/lti-login/internal/store"
)

var (
	// ErrInvalidPlatform means the issuer was not an https URL. This is
	// a configuration/security error, not a lookup miss.
	ErrInvalidPlatform = errors.New("lti: platform issuer must be an https URL")
	// ErrNoDeployment means every resolution tier came up empty.
	ErrNoDeployment = errors.New("lti: no deployment registered for this platform; contact support to register your LMS")
	// ErrClientIDRequired means first-contact registration was possible
	// but the request carried no client_id to register with.
	ErrClientIDRequired = errors.New("lti: client_id is required to register a new deployment")
)

// Resolver turns a login request's platform/deployment identifiers into
// a single Deployment record, auto-registering first-contact
// deployments from known platform families.
type Resolver struct {
	Repo   store.DeploymentRepo
	Notify notify.Notifier

	// EnvName appears in failure-notice subjects, e.g. "Production".
	EnvName string

	Log zerolog.Logger
}

// Resolve runs the tiers in strict order: exact key match, sole-tenant
// prefix fallback, auto-registration, failure. rawParams is carried
// only for notices.
func (r *Resolver) Resolve(ctx context.Context, iss, deploymentID, clientID string, rawParams map[string]string) (store.Deployment, error) {
	platformID := normalizePlatformID(iss)
	if !strings.HasPrefix(platformID, "https://") {
		return store.Deployment{}, fmt.Errorf("%w: %q", ErrInvalidPlatform, iss)
	}

	// Tier 1: exact composite key.
	d, err := r.Repo.GetExact(ctx, platformID, deploymentID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Deployment{}, err
	}

	// Tier 2: a platform that has registered exactly one tenant wins
	// even when the supplied discriminator differs. Some platform
	// conventions omit the deployment id entirely; this is the only
	// strategy that still identifies them. Two or more records is
	// ambiguous and yields nothing.
	recs, err := r.Repo.ScanPrefix(ctx, platformID)
	if err != nil {
		return store.Deployment{}, err
	}
	if len(recs) == 1 {
		return recs[0], nil
	}

	// Tier 3: first contact from a known platform family provisions a
	// degraded record pending manual review.
	if profile, ok := LookupPlatform(platformID); ok {
		return r.autoRegister(ctx, profile, platformID, deploymentID, clientID, rawParams)
	}

	r.Log.Warn().Str("platform", platformID).Str("deployment", deploymentID).Msg("deployment resolution failed")
	if err := r.Notify.Send(ctx, "AuthToken Request Failure ("+r.EnvName+")", dumpParams(rawParams, "=")); err != nil {
		r.Log.Error().Err(err).Msg("failure notice not delivered")
	}
	return store.Deployment{}, ErrNoDeployment
}

func (r *Resolver) autoRegister(ctx context.Context, profile PlatformProfile, platformID, deploymentID, clientID string, rawParams map[string]string) (store.Deployment, error) {
	if strings.TrimSpace(clientID) == "" {
		return store.Deployment{}, ErrClientIDRequired
	}
	d := store.Deployment{
		PlatformID:        platformID,
		DeploymentID:      deploymentID,
		ClientID:          clientID,
		OIDCAuthURL:       profile.OIDCAuthURL,
		OAuthTokenURL:     profile.OAuthTokenURL,
		WellKnownJWKS:     profile.WellKnownJWKS,
		LMS:               profile.LMS,
		Status:            store.StatusAuto,
		LicensesRemaining: 0,
	}
	if err := r.Repo.Put(ctx, d); err != nil {
		return store.Deployment{}, err
	}
	r.Log.Info().Str("platform", platformID).Str("deployment", deploymentID).Str("lms", profile.LMS).Msg("auto-registered deployment")

	body := dumpParams(rawParams, "=")
	// Canvas packs its instance domain inside the opaque message hint;
	// surface it for the operator when it decodes. Purely informational.
	if profile.LMS == "canvas" {
		if domain := canvasDomainFromHint(rawParams["lti_message_hint"]); domain != "" {
			body += "canvas_domain=" + domain + "; "
		}
	}
	if err := r.Notify.Send(ctx, "Automatic "+profile.Name+" Registration", body); err != nil {
		r.Log.Error().Err(err).Msg("registration notice not delivered")
	}
	return d, nil
}

// canvasDomainFromHint best-effort extracts the canvas_domain claim from
// an unverified lti_message_hint JWT. Any failure returns "".
func canvasDomainFromHint(hint string) string {
	if hint == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(hint, claims); err != nil {
		return ""
	}
	domain, _ := claims["canvas_domain"].(string)
	return domain
}
