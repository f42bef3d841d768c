package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"greenMuensterAPI/handlers"
	"greenMuensterAPI/internal/config"
	"greenMuensterAPI/internal/directions"
	"greenMuensterAPI/internal/geocoding"
	"greenMuensterAPI/internal/logger"
	"greenMuensterAPI/internal/meteo"
	"greenMuensterAPI/internal/metrics"
	"greenMuensterAPI/internal/notification"
	"greenMuensterAPI/internal/realtime"
	"greenMuensterAPI/internal/store"
	"greenMuensterAPI/middleware"
	"greenMuensterAPI/services"

	_ "net/http/pprof"
)

const serviceName = "green-muenster-api"

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		logger.New(serviceName, os.Getenv("LOG_LEVEL")).WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(serviceName, cfg.LogLevel)
	if !dotenv {
		log.Info("No .env file found")
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Info("Clerk initialized successfully")

	dbPool, err := openPool(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		log.Info("Closing database connection pool...")
		dbPool.Close()
	}()
	log.Info("Successfully connected to database")

	metrics.Register()
	middleware.InitPrometheus()

	httpClient := &http.Client{Timeout: 10 * time.Second}

	nominatim, err := geocoding.NewNominatimClient(cfg.NominatimBaseURL, httpClient, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create geocoder")
	}
	ors := directions.NewORSClient(cfg.ORSBaseURL, cfg.ORSAPIKey, httpClient, log)
	if cfg.ORSAPIKey == "" {
		log.Warn("ORS_API_KEY not set, route estimates will fail")
	}

	db := store.New(dbPool)

	routeService := services.NewRouteService(nominatim, ors, log)
	tripService := services.NewTripService(db, log)
	challengeService := services.NewChallengeService(db, log)
	leaderboardService := services.NewLeaderboardService(db)
	profileService := services.NewProfileService(db, log)
	weatherService := services.NewWeatherService(meteo.NewOpenMeteoClient(cfg.OpenMeteoBaseURL, httpClient), log)
	notificationService := services.NewNotificationService(db)

	dispatcher := services.NewNotificationDispatcher(db, log)
	defer dispatcher.Stop()

	fcmService, err := notification.NewFCMService(context.Background(), cfg.FCMServiceAccountFile, log)
	if err != nil {
		log.WithError(err).Warn("Could not initialize FCM, medal pushes are disabled")
	} else {
		dispatcher.SetPushProvider(fcmService)
		tripService.SetTierNotifier(dispatcher)
		log.Info("FCM Push Provider initialized successfully")
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	hub := realtime.NewHub(log)
	go hub.Run(bgCtx)
	go realtime.NewListener(dbPool, hub, log).Run(bgCtx)

	tripHandler := handlers.NewTripHandler(routeService, tripService, profileService, log)
	challengeHandler := handlers.NewChallengeHandler(challengeService, leaderboardService, profileService, log)
	profileHandler := handlers.NewProfileHandler(profileService, tripService, weatherService, log)
	notificationHandler := handlers.NewNotificationHandler(notificationService, profileService, log)
	realtimeHandler := handlers.NewRealtimeHandler(hub, profileService, log)
	webhookHandler := handlers.NewWebhookHandler(profileService, cfg.ClerkWebhookSecret, log)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "` + serviceName + `"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public lookups used before sign-in
	api.HandleFunc("/places/suggest", tripHandler.SuggestPlaces).Methods("GET")
	api.HandleFunc("/weather", profileHandler.GetWeather).Methods("GET")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuth(middleware.VerifyClerkToken, log))

	protected.HandleFunc("/routes/estimate", tripHandler.EstimateRoute).Methods("POST")
	protected.HandleFunc("/trips", tripHandler.SaveTrip).Methods("POST")
	protected.HandleFunc("/trips", tripHandler.ListTrips).Methods("GET")

	protected.HandleFunc("/dashboard", profileHandler.GetDashboard).Methods("GET")
	protected.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/profile", profileHandler.CreateProfile).Methods("POST")
	protected.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/profile", profileHandler.DeleteProfile).Methods("DELETE")

	protected.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	protected.HandleFunc("/challenges/{id}/start", challengeHandler.StartChallenge).Methods("POST")
	protected.HandleFunc("/leaderboard", challengeHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/devices", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/devices", notificationHandler.UnregisterDevice).Methods("DELETE")

	protected.HandleFunc("/realtime/challenges", realtimeHandler.SubscribeChallenges).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret", middleware.RequestIDHeader}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", middleware.RequestIDHeader}),
		gorillaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Error starting server")
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}
	stopBackground()

	log.Info("Server shutdown complete")
}

func openPool(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = cfg.Pool.MaxConns
	poolConfig.MinConns = cfg.Pool.MinConns
	poolConfig.MaxConnLifetime = cfg.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.Pool.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
