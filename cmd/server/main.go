package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/niranjanbala/remoteinbound-claims/internal/claim"      // Claim service and state machine
	"github.com/niranjanbala/remoteinbound-claims/internal/config"     // Internal config loader
	"github.com/niranjanbala/remoteinbound-claims/internal/database"   // MySQL connector
	"github.com/niranjanbala/remoteinbound-claims/internal/handler"    // HTTP handlers
	"github.com/niranjanbala/remoteinbound-claims/internal/middleware" // Cache and rate-limit middleware
	"github.com/niranjanbala/remoteinbound-claims/internal/queue"      // Claim event consumer
	"github.com/niranjanbala/remoteinbound-claims/internal/repository" // Persistence gateway
	"github.com/niranjanbala/remoteinbound-claims/internal/router"     // Route registration
	queue_publisher "github.com/niranjanbala/remoteinbound-claims/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}

	// Persistence gateway, constructed once and injected into the claim
	// service; no package-level database state anywhere.
	claimRepo := repository.NewClaimRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	speakerRepo := repository.NewSpeakerRepo(db)

	svc := claim.NewService(claimRepo, sessionRepo, speakerRepo, queue_publisher.NewPublisher(), cfg.EventStartDate)
	claimHandler := handler.NewClaimHandler(svc, cfg.EventYear)

	e := echo.New()

	// Redis-backed rate limiting and response caching; both degrade to
	// pass-through when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; caching and rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterClaims(e, claimHandler, cfg.JWTSecret)

	// Background consumer turning claim events into the audit log.
	go func() {
		if err := queue.StartClaimConsumer(); err != nil {
			log.Printf("claim consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
