package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studypath-backend/internal/analytics"
	"studypath-backend/internal/config"
	"studypath-backend/internal/database"
	"studypath-backend/internal/handlers"
	"studypath-backend/internal/middleware"
	"studypath-backend/internal/repository"
	"studypath-backend/internal/router"
	"studypath-backend/internal/services"
	"studypath-backend/internal/tracker"
	"studypath-backend/internal/websocket"
	"studypath-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting StudyPath Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	studySessionRepo := repository.NewStudySessionRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	courseGenService, err := services.NewCourseGenService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer courseGenService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	videoService := services.NewVideoService()
	authService := services.NewAuthService(userRepo, redisClients.Cache, jwtAuth)

	// ──── Step 6: Start Session Tracker ────
	trackerManager := tracker.NewManager(
		courseRepo,
		studySessionRepo,
		time.Duration(cfg.TrackerIntervalSecs)*time.Second,
	)
	log.Printf("✓ Session tracker ready (%ds interval)", cfg.TrackerIntervalSecs)

	// ──── Step 7: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		courseGenService,
		jobRepo,
		courseRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Initialize Handlers ────
	insights := analytics.StaticInsights{}
	authHandler := handlers.NewAuthHandler(authService)
	courseHandler := handlers.NewCourseHandler(courseRepo, progressRepo, jobRepo, videoService, redisClients.Queue)
	studySessionHandler := handlers.NewStudySessionHandler(studySessionRepo, courseRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(studySessionRepo, progressRepo, insights, insights, redisClients.Cache)
	jobHandler := handlers.NewJobHandler(jobRepo)
	trackingServer := websocket.NewTrackingServer(jwtAuth, trackerManager)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		courseHandler,
		studySessionHandler,
		analyticsHandler,
		jobHandler,
		trackingServer,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: stop workers, close open study sessions, drain HTTP
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		trackerManager.StopAll()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyPath Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws/track", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
