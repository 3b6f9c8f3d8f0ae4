package lti

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateTTL is how long a state token stays valid after issuance.
const StateTTL = 5 * time.Minute

// StateClaims is the claim set round-tripped through the platform. The
// platform only echoes the token back; integrity, not confidentiality,
// is the protected property.
type StateClaims struct {
	Nonce        string `json:"nonce"`
	DeploymentID string `json:"deployment_id"`
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	jwt.RegisteredClaims
}

// StateSigner mints and verifies HMAC-signed state tokens with a
// process-wide symmetric secret.
type StateSigner struct {
	hmac []byte

	// Now overrides wall clock in tests.
	Now func() time.Time
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{hmac: []byte(secret)}
}

// Sign builds the state token for one login request. sub is the
// platform-supplied login hint; aud is the normalized platform ID.
func (s *StateSigner) Sign(issuer, sub, aud, deploymentID, clientID, redirectURI, nonce string) (string, error) {
	now := s.now()
	claims := &StateClaims{
		Nonce:        nonce,
		DeploymentID: deploymentID,
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub,
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok, err := t.SignedString(s.hmac)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return tok, nil
}

// Verify parses a state token and checks its signature and expiry. The
// launch endpoint calls this when the platform posts the token back.
func (s *StateSigner) Verify(tokenStr string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &StateClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.hmac, nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify state: %w", err)
	}
	c, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("verify state: invalid token")
	}
	return c, nil
}

func (s *StateSigner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
