package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/noteduco342/wavechat-backend/internal/cache"
	"github.com/noteduco342/wavechat-backend/internal/handlers"
	"github.com/noteduco342/wavechat-backend/internal/handlers/ws"
	"github.com/noteduco342/wavechat-backend/internal/httpx"
	"github.com/noteduco342/wavechat-backend/internal/middleware"
	"github.com/noteduco342/wavechat-backend/internal/presence"
	"github.com/noteduco342/wavechat-backend/internal/storage"
	"github.com/noteduco342/wavechat-backend/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "WaveChat Backend",
		// Support attachment uploads up to 10MB + overhead.
		BodyLimit: 12 * 1024 * 1024, // 12MB
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Durable state: two JSON collections reloaded on boot.
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	snapshots, err := store.NewSnapshotStore(dataDir)
	if err != nil {
		log.Fatal("Failed to open data dir:", err)
	}
	collections, err := snapshots.Load()
	if err != nil {
		log.Fatal("Failed to load snapshots:", err)
	}

	groups := store.NewGroupStore(collections.Groups, snapshots)
	groups.EnsureDefaultGroup()
	accounts := store.NewAccountRegistry(collections.Accounts, snapshots)

	// Initialize Redis presence cache (optional)
	var redisCache *cache.RedisCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisPassword := os.Getenv("REDIS_PASSWORD")
		redisDB := 0
		if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
			if parsedDB, err := strconv.Atoi(dbStr); err == nil {
				redisDB = parsedDB
			}
		}
		redisCache = cache.NewRedisCache(redisAddr, redisPassword, redisDB)
		if err := redisCache.Ping(); err != nil {
			log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
			redisCache = nil
		} else {
			log.Println("Redis cache connected successfully")
		}
	}
	presenceCache := cache.NewPresenceCache(redisCache)

	// Attachment storage: S3/MinIO when configured, local disk otherwise.
	var blobs storage.BlobStore
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		uploadDir := os.Getenv("UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = "./uploads"
		}
		local, err := storage.NewLocalStorage(uploadDir)
		if err != nil {
			log.Fatal("Failed to open upload dir:", err)
		}
		blobs = local
		log.Printf("Using local attachment storage (dir=%s)", uploadDir)
		app.Static("/uploads", uploadDir)
	} else if s3Store, err = storage.NewS3Storage(cfg); err != nil {
		log.Fatal("Failed to initialize S3 storage:", err)
	} else {
		blobs = s3Store
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
		mediaHandler := handlers.NewMediaHandler(s3Store)
		app.Get("/uploads/*", mediaHandler.GetAttachment)
	}

	// Socket engine
	engine := ws.NewEngine(ws.EngineConfig{
		Groups:           groups,
		Accounts:         accounts,
		Presence:         presence.NewTable(),
		Cache:            presenceCache,
		IssueUploadToken: middleware.IssueUploadToken,
		Debug:            os.Getenv("WS_DEBUG") == "true",
	})
	wsHandler := handlers.NewWebSocketHandler(engine)
	uploadHandler := handlers.NewUploadHandler(blobs)

	// Optional server-side typing timeout.
	if ttStr := os.Getenv("TYPING_TIMEOUT_SECONDS"); ttStr != "" {
		if secs, err := strconv.Atoi(ttStr); err == nil && secs > 0 {
			stop := engine.StartTypingSweeper(time.Duration(secs) * time.Second)
			defer stop()
			log.Printf("Typing sweeper enabled (timeout=%ds)", secs)
		}
	}

	allowedOrigins := middleware.AllowedOrigins()

	// Frontend assets
	app.Static("/", "./public")

	// Attachment upload, authorized by the token minted on auth_success
	// The limiter runs after auth so it can key on the connection id the
	// token carries; unauthenticated requests never reach it.
	app.Post(
		"/upload",
		middleware.OriginAllowed(allowedOrigins),
		middleware.UploadAuthRequired(),
		limiter.New(limiter.Config{
			Max:        30,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if connID, err := httpx.LocalString(c, "connID"); err == nil {
					return "upload:" + connID
				}
				return c.IP()
			},
		}),
		uploadHandler.UploadAttachment,
	)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(allowedOrigins),
		func(c *fiber.Ctx) error {
			// Upgrade to WebSocket
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"connections": engine.Hub().Count(),
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	// Flush both collections before exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Printf("Received %s, shutting down...", sig)
		engine.Shutdown()
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
