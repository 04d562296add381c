package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studypath-backend/internal/handlers"
	"studypath-backend/internal/middleware"
	"studypath-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	courseHandler *handlers.CourseHandler,
	studySessionHandler *handlers.StudySessionHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	jobHandler *handlers.JobHandler,
	trackingServer *websocket.TrackingServer,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Course Routes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", courseHandler.Create)
			r.Get("/", courseHandler.ListMine)
			r.Post("/validate-video", courseHandler.ValidateVideo)
			r.Get("/{courseID}", courseHandler.Get)
			r.Put("/{courseID}/publish", courseHandler.Publish)
			r.Get("/{courseID}/chapters/{chapterNum}", courseHandler.GetChapter)
			r.Post("/{courseID}/chapters/{chapterNum}/complete", courseHandler.CompleteChapter)
		})

		// ──── Study Session Routes ────
		r.Route("/study-sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", studySessionHandler.Start)
			r.Get("/active", studySessionHandler.Active)
			r.Put("/{id}/duration", studySessionHandler.UpdateDuration)
			r.Post("/{id}/stop", studySessionHandler.Stop)
		})

		// ──── Analytics Routes ────
		r.Route("/analytics", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/summary", analyticsHandler.Summary)
			r.Get("/study-time", analyticsHandler.StudyTime)
			r.Get("/chapter-progress", analyticsHandler.ChapterProgress)
			r.Get("/course-progress", analyticsHandler.CourseProgress)
			r.Get("/distribution", analyticsHandler.Distribution)
			r.Get("/sessions", analyticsHandler.Sessions)
			r.Get("/insights", analyticsHandler.Insights)
			r.Get("/patterns", analyticsHandler.Patterns)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{jobID}", jobHandler.Get)
		})

		// ──── WebSocket ────
		r.Get("/ws/track", trackingServer.Handle)
	})

	return r
}
