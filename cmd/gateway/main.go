package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	api "github.com/mind-engage/lti-login/internal/api/http"
	"github.com/mind-engage/lti-login/internal/config"
	"github.com/mind-engage/lti-login/internal/db"
	"github.com/mind-engage/lti-login/internal/lti"
	"github.com/mind-engage/lti-login/internal/notify"
	"github.com/mind-engage/lti-login/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.FromEnv()
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("svc", "lti-login").Logger()

	// --- Repository ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.DeploymentRepo
	var dbh *sql.DB
	if cfg.DBDriver == "memory" {
		repo = store.NewMemoryRepo()
	} else {
		var err error
		dbh, err = db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("db open failed")
		}
		repo = store.NewSQLRepo(dbh, cfg.DBDriver)
	}

	// --- Notices ---
	var sink notify.Notifier
	if cfg.SMTPAddr != "" && cfg.AdminEmail != "" {
		sink = &notify.SMTPNotifier{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, To: cfg.AdminEmail}
	} else {
		sink = &notify.LogNotifier{Log: logger}
	}
	sink = notify.NewDeduper(sink, time.Hour)

	// --- Login flow ---
	resolver := &lti.Resolver{
		Repo:    repo,
		Notify:  sink,
		EnvName: cfg.EnvName,
		Log:     logger,
	}
	login := &lti.LoginServer{
		Resolver:   resolver,
		Signer:     lti.NewStateSigner(cfg.StateSecret),
		ToolIssuer: cfg.ToolIssuer,
		Log:        logger,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := login.Handler()
	r.Get("/lti/login", h)
	r.Post("/lti/login", h)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if dbh != nil {
			if err := dbh.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(ar chi.Router) {
		ar.Use(api.BasicAuth(cfg.AdminUser, cfg.AdminPassHash))
		ar.Get("/admin/deployments", api.ListDeploymentsHandler(repo))
		ar.Post("/admin/deployments/promote", api.PromoteDeploymentHandler(repo))
	})

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
