package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"civicchat/backend/internal/api/handler"
	"civicchat/backend/internal/chathub"
	"civicchat/backend/internal/config"
	"civicchat/backend/internal/livechat"
	"civicchat/backend/internal/models"
	"civicchat/backend/internal/notify"
	"civicchat/backend/internal/ratelimit"
	"civicchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ChatMessage{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting CivicChat Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewService(db, rdb)

	// Events flow: service -> Redis Pub/Sub -> hub -> WebSocket clients, so
	// every instance behind the load balancer delivers the same events.
	hub := chathub.NewManagerService(chathub.NewRedisEventSource(s))
	go hub.Run()

	var notifier livechat.Notifier
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, hub)
		if err != nil {
			log.Fatalf("Failed to start telegram notifier: %v", err)
		}
		notifier = tg
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, admin notifications disabled")
	}

	svc := livechat.NewService(s, notifier)

	limiter := ratelimit.NewLimiter(time.Now)
	// The sweep runs for the life of the process; the server only ever
	// exits through log.Fatal below.
	go limiter.Run(make(chan struct{}))

	var messageLimiter ratelimit.Admitter = limiter
	if cfg.RateLimitBackend == "redis" {
		messageLimiter = ratelimit.NewRedisLimiter(rdb)
		log.Println("ratelimit: redis backend for message windows")
	}

	r := gin.Default()
	h := handler.NewHandler(svc, hub, limiter, messageLimiter, []byte(cfg.JWTSecret), cfg.DevMode)
	if cfg.RateLimitBackend == "memory" {
		// Only the in-memory limiter can report window usage.
		h.StatusReporter = limiter
	}
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("Listening on %s", cfg.ListenAddr)
	log.Fatal(server.ListenAndServe())
}
