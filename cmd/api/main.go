package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/vireo-pm/vireo/internal/config"
	"github.com/vireo-pm/vireo/internal/db"
	"github.com/vireo-pm/vireo/internal/digest"
	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogFormat)

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Run(cfg.DatabaseURL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		log.Fatal("JWT_SECRET must be set in prod")
	}

	seedAdmin(cfg, repo.NewUserRepo(database))

	if cfg.DigestCron != "" {
		job := &digest.Job{
			Projects: repo.NewProjectRepo(database),
			Bugs:     repo.NewBugRepo(database),
			Messages: repo.NewMessageRepo(database),
		}
		c, err := job.Start(cfg.DigestCron)
		if err != nil {
			log.Fatalf("Failed to start digest job: %v", err)
		}
		defer c.Stop()
	}

	r := newRouter(database, cfg)

	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		slog.Info("starting server with TLS", "addr", addr)
		err = http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		slog.Info("starting server", "addr", addr)
		err = http.ListenAndServe(addr, r)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func setupLogging(format string) {
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

// seedAdmin creates the default admin account when no admin exists yet.
// Skipped when ADMIN_PASSWORD is unset so CI and dev setups opt in explicitly.
func seedAdmin(cfg config.Config, users *repo.UserRepo) {
	if cfg.AdminPassword == "" {
		return
	}
	ctx := context.Background()

	n, err := users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		slog.Error("admin seed: count admins", "error", err)
		return
	}
	if n > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("admin seed: hash password", "error", err)
		return
	}
	if _, err := users.Create(ctx, cfg.AdminUsername, string(hash), models.RoleAdmin); err != nil {
		slog.Error("admin seed: create user", "error", err)
		return
	}
	slog.Info("seeded default admin", "username", cfg.AdminUsername)
}
