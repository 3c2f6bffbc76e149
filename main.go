package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillForgeAPI/handlers"
	"skillForgeAPI/internal/metrics"
	"skillForgeAPI/internal/notification"
	"skillForgeAPI/internal/points"
	"skillForgeAPI/middleware"
	"skillForgeAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	courseService       *services.CourseService
	progressService     *services.ProgressService
	pointsService       *services.PointsService
	badgeService        *services.BadgeService
	certificateService  *services.CertificateService
	streakService       *services.StreakService
	goalService         *services.GoalService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
	chatRelay           *services.ChatRelay
)

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		log.Printf("Invalid %s=%q, using default %d", name, raw, fallback)
		return fallback
	}
	return parsed
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	levelStep := envInt("LEVEL_STEP_SIZE", points.DefaultLevelStep)
	chapterPoints := envInt("CHAPTER_POINTS", points.DefaultChapterPoints)
	coursePoints := envInt("COURSE_POINTS", points.DefaultCoursePoints)
	verifyBaseURL := os.Getenv("VERIFY_BASE_URL")
	if verifyBaseURL == "" {
		verifyBaseURL = "http://localhost:3333"
	}

	notificationService = services.NewNotificationService(dbPool)
	pointsService = services.NewPointsService(dbPool, levelStep)
	streakService = services.NewStreakService(dbPool)
	certificateService = services.NewCertificateService(dbPool, verifyBaseURL)
	badgeService = services.NewBadgeService(dbPool, pointsService, streakService)
	progressService = services.NewProgressService(dbPool, pointsService, badgeService, chapterPoints, coursePoints)
	userService = services.NewUserService(dbPool, streakService, pointsService)
	courseService = services.NewCourseService(dbPool)
	goalService = services.NewGoalService(dbPool)
	chatRelay = services.NewChatRelay()
	chatRelay.Start()

	pointsService.SetCertificateService(certificateService)
	certificateService.SetNotificationService(notificationService)
	badgeService.SetNotificationService(notificationService)
	progressService.SetNotificationService(notificationService)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	metrics.Init()
	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	courseHandler := handlers.NewCourseHandler(courseService, userService)
	progressHandler := handlers.NewProgressHandler(progressService, courseService, userService)
	gamificationHandler := handlers.NewGamificationHandler(pointsService, badgeService, streakService, userService)
	certificateHandler := handlers.NewCertificateHandler(certificateService, userService)
	goalHandler := handlers.NewGoalHandler(goalService, userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, userService)
	adminHandler := handlers.NewAdminHandler(userService, courseService, badgeService, certificateService, pointsService)
	webhookHandler := handlers.NewWebhookHandler(userService)
	chatHandler := handlers.NewChatHandler(chatRelay, userService)

	r := mux.NewRouter()

	// Websocket route bypasses the rate limiter, connections are long lived.
	chatRoute := r.PathPrefix("/api/v1/chat/ws").Subrouter()
	chatRoute.Use(middleware.ClerkAuthMiddleware)
	chatRoute.HandleFunc("", chatHandler.ServeChat)

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "skillForge-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// Public routes, no auth required
	api.HandleFunc("/courses", courseHandler.ListCourses).Methods("GET")
	api.HandleFunc("/competence-areas", courseHandler.ListCompetenceAreas).Methods("GET")
	api.HandleFunc("/certificates/verify/{code}", certificateHandler.VerifyCertificate).Methods("GET")
	api.HandleFunc("/certificates/verify/{code}/qr", certificateHandler.CertificateQR).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/user/leaderboard", userHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/user/stats", userHandler.GetUserStats).Methods("GET")
	protected.HandleFunc("/user/stats/days", userHandler.GetDaysStat).Methods("GET")

	protected.HandleFunc("/courses/{courseId}", courseHandler.GetCourse).Methods("GET")
	protected.HandleFunc("/courses/{courseId}/notes", courseHandler.GetNotes).Methods("GET")
	protected.HandleFunc("/courses/{courseId}/notes", courseHandler.SaveNote).Methods("POST")
	protected.HandleFunc("/notes/{noteId}", courseHandler.DeleteNote).Methods("DELETE")

	protected.HandleFunc("/progress", progressHandler.ListUserProgress).Methods("GET")
	protected.HandleFunc("/progress/{courseId}", progressHandler.GetCourseProgress).Methods("GET")
	protected.HandleFunc("/progress/{courseId}/chapters", progressHandler.MarkChapterComplete).Methods("POST")

	protected.HandleFunc("/points", gamificationHandler.GetTotalPoints).Methods("GET")
	protected.HandleFunc("/points/history", gamificationHandler.GetPointsHistory).Methods("GET")
	protected.HandleFunc("/badges", gamificationHandler.ListBadges).Methods("GET")
	protected.HandleFunc("/badges/check", gamificationHandler.CheckBadges).Methods("POST")
	protected.HandleFunc("/streak", gamificationHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/streak/activity", gamificationHandler.RecordStudyActivity).Methods("POST")

	protected.HandleFunc("/certificates", certificateHandler.ListMyCertificates).Methods("GET")

	protected.HandleFunc("/goals", goalHandler.ListGoals).Methods("GET")
	protected.HandleFunc("/goals", goalHandler.CreateGoal).Methods("POST")
	protected.HandleFunc("/goals/{goalId}", goalHandler.UpdateGoalProgress).Methods("PUT")
	protected.HandleFunc("/goals/{goalId}", goalHandler.DeleteGoal).Methods("DELETE")

	protected.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{notificationId}/read", notificationHandler.MarkRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods("PUT")
	protected.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/admin/courses", adminHandler.ListAllCourses).Methods("GET")
	protected.HandleFunc("/admin/courses", adminHandler.CreateCourse).Methods("POST")
	protected.HandleFunc("/admin/courses/{courseId}", adminHandler.UpdateCourse).Methods("PUT")
	protected.HandleFunc("/admin/courses/{courseId}/active", adminHandler.SetCourseActive).Methods("PUT")
	protected.HandleFunc("/admin/badges", adminHandler.CreateBadge).Methods("POST")
	protected.HandleFunc("/admin/badges/{badgeId}/active", adminHandler.SetBadgeActive).Methods("PUT")
	protected.HandleFunc("/admin/badges/{badgeId}/grant", adminHandler.GrantBadge).Methods("POST")
	protected.HandleFunc("/admin/certificates", adminHandler.CreateCertificate).Methods("POST")
	protected.HandleFunc("/admin/certificates/{certificateId}/active", adminHandler.SetCertificateActive).Methods("PUT")
	protected.HandleFunc("/admin/user-certificates/{userCertificateId}/revoke", adminHandler.RevokeCertificate).Methods("POST")
	protected.HandleFunc("/admin/users/{userId}/role", adminHandler.SetUserRole).Methods("PUT")
	protected.HandleFunc("/admin/points/grant", adminHandler.GrantPoints).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
