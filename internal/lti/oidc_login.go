package lti

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

/*
OIDC third-party-initiated login endpoint (Tool side) for LTI 1.3.

The platform opens this endpoint with iss/login_hint/target_link_uri;
we resolve which registered deployment the request belongs to, mint an
HMAC-signed state token binding that deployment to the request, and
bounce the user agent to the platform's authorization endpoint. The
platform answers on target_link_uri (the launch endpoint, which
verifies state/nonce; it lives outside this service).

Mount under your public base for both methods:

	r.Get("/lti/login", srv.Handler())
	r.Post("/lti/login", srv.Handler())
*/

// LoginServer handles login initiation requests.
type LoginServer struct {
	Resolver *Resolver
	Signer   *StateSigner

	// ToolIssuer becomes the `iss` claim of issued state tokens.
	ToolIssuer string

	Log zerolog.Logger
}

// Handler returns the http.HandlerFunc for the login-initiation route.
// Platforms vary in whether they GET or POST; both are accepted and
// handled identically.
func (s *LoginServer) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeLoginErr(w, "malformed request body", nil)
			return
		}
		params := flattenParams(r.Form)

		iss := params["iss"]
		loginHint := params["login_hint"]
		targetLinkURI := params["target_link_uri"]
		for _, p := range [][2]string{{"iss", iss}, {"login_hint", loginHint}, {"target_link_uri", targetLinkURI}} {
			if strings.TrimSpace(p[1]) == "" {
				writeLoginErr(w, "missing required parameter "+p[0], params)
				return
			}
		}

		// Platform families disagree on where the deployment
		// discriminator travels; try the LTI field, the plain field,
		// then fall back to the login hint.
		deploymentID := params["lti_deployment_id"]
		if deploymentID == "" {
			deploymentID = params["deployment_id"]
		}
		if deploymentID == "" {
			deploymentID = loginHint
		}

		dep, err := s.Resolver.Resolve(r.Context(), iss, deploymentID, params["client_id"], params)
		if err != nil {
			s.Log.Warn().Err(err).Str("iss", iss).Msg("login rejected")
			writeLoginErr(w, err.Error(), params)
			return
		}
		clientID := dep.ClientID
		if clientID == "" {
			clientID = params["client_id"]
		}

		nonce := NewNonce()
		state, err := s.Signer.Sign(s.ToolIssuer, loginHint, dep.PlatformID, dep.DeploymentID, clientID, targetLinkURI, nonce)
		if err != nil {
			s.Log.Error().Err(err).Msg("state signing failed")
			writeLoginErr(w, err.Error(), params)
			return
		}

		authURL := BuildAuthRedirectURL(dep.OIDCAuthURL, loginHint, targetLinkURI, params["lti_message_hint"], clientID, state, nonce)
		s.Log.Info().
			Str("platform", dep.PlatformID).
			Str("deployment", dep.DeploymentID).
			Str("status", dep.Status).
			Msg("login redirect issued")
		writeScriptRedirect(w, authURL)
	}
}

// BuildAuthRedirectURL assembles the platform authorization URL. The
// parameter order is fixed so responses are stable under test.
func BuildAuthRedirectURL(oidcAuthURL, loginHint, redirectURI, messageHint, clientID, state, nonce string) string {
	pairs := [][2]string{
		{"response_type", "id_token"},
		{"response_mode", "form_post"},
		{"scope", "openid"},
		{"prompt", "none"},
		{"login_hint", loginHint},
		{"redirect_uri", redirectURI},
	}
	if messageHint != "" {
		pairs = append(pairs, [2]string{"lti_message_hint", messageHint})
	}
	pairs = append(pairs,
		[2]string{"client_id", clientID},
		[2]string{"state", state},
		[2]string{"nonce", nonce},
	)
	var q strings.Builder
	for i, p := range pairs {
		if i > 0 {
			q.WriteByte('&')
		}
		q.WriteString(p[0])
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(p[1]))
	}
	return oidcAuthURL + "?" + q.String()
}

// flattenParams keeps the first value per key; LTI login params are
// single-valued.
func flattenParams(form url.Values) map[string]string {
	out := make(map[string]string, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// writeScriptRedirect answers 200 with a script-based redirect instead
// of a 302 so error text can ride the same content type and
// intermediaries do not cache the hop.
func writeScriptRedirect(w http.ResponseWriter, authURL string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	const tpl = `<!doctype html>
<html><head><meta charset="utf-8"><title>LTI Login</title></head>
<body>
<script>window.location.replace({{.URL}});</script>
<noscript><a href="{{.URL}}">Continue</a></noscript>
</body></html>`
	t := template.Must(template.New("redir").Parse(tpl))
	_ = t.Execute(w, map[string]string{"URL": authURL})
}

// writeLoginErr emits the 401 diagnostic shape. The parameter echo is a
// deliberate operability trade; no secret material ever appears in it.
func writeLoginErr(w http.ResponseWriter, msg string, params map[string]string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	body := "Failed Auth Token. " + msg + "\n" + dumpParams(params, ":")
	_, _ = w.Write([]byte(body))
}
