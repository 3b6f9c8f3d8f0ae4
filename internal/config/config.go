package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	// ToolIssuer is the `iss` claim placed in outgoing state tokens.
	// Defaults to PublicURL.
	ToolIssuer string

	// StateSecret is the HMAC key used to sign state tokens.
	StateSecret string

	// EnvName appears in failure-notice subjects, e.g. "Production".
	EnvName string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	AdminUser     string
	AdminPassHash string // bcrypt
	AdminEmail    string

	SMTPAddr string // host:port; empty disables mail, notices go to the log
	SMTPFrom string

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	pub := strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/")
	return Config{
		HTTPAddr:      addr,
		PublicURL:     pub,
		ToolIssuer:    envOr("TOOL_ISSUER", pub),
		StateSecret:   envOr("STATE_SECRET", "supersecret-dev-key"),
		EnvName:       envOr("ENV_NAME", "Production"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		AdminEmail:    envOr("ADMIN_EMAIL", ""),
		SMTPAddr:      envOr("SMTP_ADDR", ""),
		SMTPFrom:      envOr("SMTP_FROM", ""),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
