package lti

// PlatformProfile is compiled-in knowledge of one LMS platform family:
// its fixed issuer URL and OIDC endpoint triple. The set is closed;
// adding a platform means registering a new profile value here.
type PlatformProfile struct {
	PlatformID    string // issuer URL, https, no trailing slash
	Name          string // human label used in notice subjects, e.g. "Canvas"
	LMS           string // family label stored on deployments
	OIDCAuthURL   string
	OAuthTokenURL string
	WellKnownJWKS string
}

var knownPlatforms = map[string]PlatformProfile{
	"https://canvas.instructure.com": {
		PlatformID:    "https://canvas.instructure.com",
		Name:          "Canvas",
		LMS:           "canvas",
		OIDCAuthURL:   "https://sso.canvaslms.com/api/lti/authorize_redirect",
		OAuthTokenURL: "https://sso.canvaslms.com/login/oauth2/token",
		WellKnownJWKS: "https://sso.canvaslms.com/api/lti/security/jwks",
	},
	"https://schoology.schoology.com": {
		PlatformID:    "https://schoology.schoology.com",
		Name:          "Schoology",
		LMS:           "schoology",
		OIDCAuthURL:   "https://lti-service.svc.schoology.com/lti-service/authorize-redirect",
		OAuthTokenURL: "https://lti-service.svc.schoology.com/lti-service/access-token",
		WellKnownJWKS: "https://lti-service.svc.schoology.com/lti-service/.well-known/jwks",
	},
	"https://api.brightspace.com": {
		PlatformID:    "https://api.brightspace.com",
		Name:          "Brightspace",
		LMS:           "brightspace",
		OIDCAuthURL:   "https://auth.brightspace.com/oauth2/auth",
		OAuthTokenURL: "https://auth.brightspace.com/core/connect/token",
		WellKnownJWKS: "https://auth.brightspace.com/core/connect/jwks",
	},
}

// LookupPlatform returns the profile for a normalized platform ID.
func LookupPlatform(platformID string) (PlatformProfile, bool) {
	p, ok := knownPlatforms[platformID]
	return p, ok
}
