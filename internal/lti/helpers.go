package lti

import (
	"crypto/rand"
	"encoding/base64"
	"sort"
	"strings"
)

// NewNonce returns a fresh high-entropy value, base64url without padding.
// Uniqueness tracking happens downstream at launch verification.
func NewNonce() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// normalizePlatformID strips one trailing slash so that
// "https://x.com/" and "https://x.com" resolve identically.
func normalizePlatformID(iss string) string {
	return strings.TrimSuffix(strings.TrimSpace(iss), "/")
}

// dumpParams renders a parameter map as "name:value; " pairs for
// diagnostic bodies and admin notices. Keys are sorted so the output is
// stable.
func dumpParams(params map[string]string, sep string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(sep)
		b.WriteString(params[k])
		b.WriteString("; ")
	}
	return b.String()
}
