package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	api "github.com/coursepilot/coursepilot-lms/internal/api/http"
	"github.com/coursepilot/coursepilot-lms/internal/auth"
	authmw "github.com/coursepilot/coursepilot-lms/internal/auth/middleware"
	"github.com/coursepilot/coursepilot-lms/internal/config"
	"github.com/coursepilot/coursepilot-lms/internal/course"
	"github.com/coursepilot/coursepilot-lms/internal/db"
	"github.com/coursepilot/coursepilot-lms/internal/rbac"
	"github.com/coursepilot/coursepilot-lms/internal/session"
	"github.com/coursepilot/coursepilot-lms/internal/storage"
	"github.com/coursepilot/coursepilot-lms/internal/store"
)

func main() {
	cfg := config.FromEnv()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	users := store.NewUserStore(dbh)
	progress := store.NewProgressStore(dbh)
	results := store.NewResultStore(dbh)
	events := store.NewEventLog(dbh)

	if err := users.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("ensure admin user: %v", err)
	}

	// --- Catalog ---
	crs, err := course.Load(cfg.CourseFile)
	if err != nil {
		log.Fatalf("load course %s: %v (run cmd/seed to create one)", cfg.CourseFile, err)
	}
	catalog := course.NewCatalog(crs, cfg.CourseFile)

	// --- Sessions ---
	mgr := session.NewManager(catalog, progress, results, events,
		time.Duration(cfg.TestTimeLimitMin)*time.Minute, log)

	// --- Auth ---
	authSvc := auth.NewService(users, log)
	tokens := authmw.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", authmw.LoginHandler(tokens, authSvc))
	r.Post("/auth/register", authmw.RegisterHandler(tokens, authSvc))
	r.Post("/auth/guest", authmw.GuestLoginHandler(tokens, cfg.EnableGuestAuth))

	bs, err := storage.NewFSStore(cfg.AssetBasePath)
	if err != nil {
		log.Fatalf("asset store: %v", err)
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(tokens))

		pr.Post("/auth/logout", api.LogoutHandler(mgr))

		pr.With(rbac.Require("topic:view")).Get("/topics", api.ListTopicsHandler(catalog))
		pr.With(rbac.Require("topic:view")).Get("/topics/{index}", api.GetTopicHandler(catalog))

		// Relearn flow
		pr.With(rbac.Require("session:run")).
			Post("/session/topics/{index}/start", api.StartTopicHandler(mgr))
		pr.With(rbac.Require("session:run")).Get("/session", api.SessionStateHandler(mgr))
		pr.With(rbac.Require("session:run")).Get("/session/question", api.SessionQuestionHandler(mgr))
		pr.With(rbac.Require("session:run")).Post("/session/answers", api.SubmitAnswerHandler(mgr))

		// Timed tests
		pr.With(rbac.Require("test:run")).Post("/tests", api.StartTestHandler(mgr))
		pr.With(rbac.Require("test:run")).Get("/tests/active", api.TestStatusHandler(mgr))
		pr.With(rbac.Require("test:run")).Post("/tests/active/answers", api.TestAnswerHandler(mgr))
		pr.With(rbac.Require("test:run")).Post("/tests/active/finish", api.TestFinishHandler(mgr))
		pr.With(rbac.Require("test:run")).Get("/tests/active/ws", api.TestTickerHandler(mgr, log))
		pr.With(rbac.Require("test:run")).Get("/tests/last", api.LastTestReportHandler(mgr))

		// Profile
		pr.With(rbac.Require("profile:view")).Get("/profile", api.ProfileHandler())
		pr.With(rbac.Require("results:view-own")).Get("/profile/stats", api.ProfileStatsHandler(results))
		pr.With(rbac.Require("results:view-own")).Get("/profile/results", api.ProfileResultsHandler(results))

		// Assets: uploads are an editing operation, reads are open to learners.
		pr.With(rbac.Require("course:edit")).Post("/assets", api.UploadAssetHandler(bs))
		pr.With(rbac.RequireAny("asset:view", "course:edit")).Get("/assets/*", api.GetAssetHandler(bs))

		// Admin
		pr.With(rbac.Require("users:list")).Get("/admin/users", api.ListUsersHandler(users))
		pr.With(rbac.Require("results:view-all")).Get("/admin/results", api.AllResultsHandler(results))
		pr.With(rbac.Require("results:delete")).
			Delete("/admin/users/{userID}/results", api.DeleteUserResultsHandler(results))

		pr.With(rbac.Require("course:edit")).Post("/admin/topics", api.AddTopicHandler(catalog))
		pr.With(rbac.Require("course:edit")).Put("/admin/topics/{index}", api.UpdateTopicHandler(catalog))
		pr.With(rbac.Require("course:edit")).Delete("/admin/topics/{index}", api.DeleteTopicHandler(catalog))
		pr.With(rbac.Require("course:edit")).
			Post("/admin/topics/{index}/questions", api.AddQuestionHandler(catalog))
		pr.With(rbac.Require("course:edit")).
			Put("/admin/topics/{index}/questions/{qindex}", api.UpdateQuestionHandler(catalog))
		pr.With(rbac.Require("course:edit")).
			Delete("/admin/topics/{index}/questions/{qindex}", api.DeleteQuestionHandler(catalog))
		pr.With(rbac.Require("course:edit")).Post("/admin/course/save", api.SaveCourseHandler(catalog))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.WithFields(logrus.Fields{
		"addr": cfg.HTTPAddr, "db": cfg.DBDriver, "course": cfg.CourseFile,
		"topics": len(catalog.Snapshot().Topics),
	}).Info("listening")
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
