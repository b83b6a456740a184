package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vireo-pm/vireo/internal/audit"
	"github.com/vireo-pm/vireo/internal/config"
	"github.com/vireo-pm/vireo/internal/handlers"
	"github.com/vireo-pm/vireo/internal/middleware"
	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

// newRouter wires repositories, the audit core, and handlers into the chi
// router. Kept separate from main so the integration tests can build the full
// stack against a mock DB.
func newRouter(db *sql.DB, cfg config.Config) http.Handler {
	userRepo := repo.NewUserRepo(db)
	projectRepo := repo.NewProjectRepo(db)
	phaseRepo := repo.NewPhaseRepo(db)
	bugRepo := repo.NewBugRepo(db)
	auditRepo := repo.NewAuditRepo(db)
	messageRepo := repo.NewMessageRepo(db)

	recorder := audit.NewRecorder(auditRepo)
	resolver := audit.NewResolver(projectRepo, auditRepo)

	authH := &handlers.AuthHandler{UserRepo: userRepo, Secret: []byte(cfg.JWTSecret), ExpireHours: cfg.JWTExpireHours}
	userH := &handlers.UserHandler{Repo: userRepo}
	projectH := &handlers.ProjectHandler{Repo: projectRepo, Recorder: recorder}
	phaseH := &handlers.PhaseHandler{Repo: phaseRepo, Projects: projectRepo, Recorder: recorder}
	bugH := &handlers.BugHandler{Repo: bugRepo, Projects: projectRepo, Recorder: recorder}
	auditH := &handlers.AuditHandler{Resolver: resolver}
	messageH := &handlers.MessageHandler{Repo: messageRepo, Users: userRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))

		r.Get("/me", authH.Me)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/", userH.ListUsers)
			r.Post("/", userH.CreateUser)
			r.Get("/{id}", userH.GetUser)
			r.Put("/{id}", userH.UpdateUser)
			r.Delete("/{id}", userH.DeleteUser)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectH.ListProjects)
			r.Post("/", projectH.CreateProject)
			r.Get("/{id}", projectH.GetProject)
			r.Put("/{id}", projectH.UpdateProject)
			r.Delete("/{id}", projectH.DeleteProject)
			r.Put("/{id}/assignees", projectH.ReplaceAssignees)
			r.Get("/{id}/phases", phaseH.ListPhases)
			r.Post("/{id}/phases", phaseH.CreatePhase)
		})

		r.Route("/phases", func(r chi.Router) {
			r.Put("/{id}", phaseH.UpdatePhase)
			r.Delete("/{id}", phaseH.DeletePhase)
		})

		r.Route("/bugs", func(r chi.Router) {
			r.Get("/", bugH.ListBugs)
			r.Post("/", bugH.CreateBug)
			r.Get("/{id}", bugH.GetBug)
			r.Put("/{id}", bugH.UpdateBug)
			r.Delete("/{id}", bugH.DeleteBug)
		})

		r.Get("/audit", auditH.ListAudit)

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messageH.ListMessages)
			r.Post("/", messageH.SendMessage)
			r.Post("/{id}/read", messageH.MarkRead)
		})
	})

	return r
}
