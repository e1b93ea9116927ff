package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pharma-exchange/internal/cache"
	"go-pharma-exchange/internal/config"
	"go-pharma-exchange/internal/handler"
	"go-pharma-exchange/internal/lock"
	"go-pharma-exchange/internal/middleware"
	"go-pharma-exchange/internal/model"
	"go-pharma-exchange/internal/repository"
	"go-pharma-exchange/internal/service"
	"go-pharma-exchange/internal/storage"
	"go-pharma-exchange/internal/webhook"
	"go-pharma-exchange/internal/ws"
	"go-pharma-exchange/pkg/database"
	"go-pharma-exchange/pkg/jwt"
	"go-pharma-exchange/pkg/logger"
	"go-pharma-exchange/pkg/tracing"

	"github.com/bsm/redislock"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	log := logger.GetLogger()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	logger.SetLevel(cfg.LogLevel)
	jwt.SetSecretKey(cfg.JWTSecret)

	ctx := context.Background()
	shutdownTracing, err := tracing.Setup(ctx, "go-pharma-exchange", cfg.TraceEndpoint)
	if err != nil {
		log.WithError(err).Fatal("setup tracing")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(database.Options{DSN: cfg.DatabaseURL, Tracing: cfg.TraceEndpoint != ""}, log)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	if err := db.AutoMigrate(
		&model.Pharmacy{}, &model.Credential{}, &model.Admin{},
		&model.CatalogDrug{}, &model.PendingItem{},
		&model.Offer{}, &model.Request{}, &model.ArchiveRecord{},
		&model.Rating{}, &model.LegalContent{},
	); err != nil {
		log.WithError(err).Fatal("auto migrate")
	}

	// 3. Cache and locks: redis when configured, in-process otherwise
	reputation := cache.NewLocalReputation()
	locker := lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, rdb); err != nil {
			log.WithError(err).Warn("redis unreachable, using in-process cache and locks")
		} else {
			reputation = cache.NewRedisReputation(rdb)
			locker = lock.NewRedisLocker(redislock.New(rdb))
		}
	}

	// 4. Repositories
	pharmacyRepo := repository.NewPharmacyRepo(db)
	credentialRepo := repository.NewCredentialRepo(db)
	adminRepo := repository.NewAdminRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	archiveRepo := repository.NewArchiveRepo(db)
	ratingRepo := repository.NewRatingRepo(db)
	legalRepo := repository.NewLegalRepo(db)

	var workflows webhook.Dispatcher
	if cfg.Webhook.BaseURL != "" {
		workflows = webhook.NewClient(cfg.Webhook.BaseURL, cfg.Webhook.Timeout)
	} else {
		workflows = webhook.NewDirectWriter(pharmacyRepo, credentialRepo, inventoryRepo)
	}

	var store storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		store, err = storage.NewGCS(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsJSON)
		if err != nil {
			log.WithError(err).Fatal("open avatar bucket")
		}
	} else {
		store = storage.NewLocal(cfg.Storage.AvatarDir, cfg.Storage.PublicBaseURL+"/uploads")
	}

	// 5. Setup WebSocket Hub
	hub := ws.NewHub(log)
	go hub.Run()

	// 6. Services
	seed := service.SeedAdmin{Email: cfg.SeedAdmin.Email, UID: cfg.SeedAdmin.UID, Password: cfg.SeedAdmin.Password}

	authService := service.NewAuthService(pharmacyRepo, credentialRepo, adminRepo, workflows, locker, seed, log)
	catalogService := service.NewCatalogService(catalogRepo, cfg.Search.Limit, log)
	inventoryService := service.NewInventoryService(inventoryRepo, catalogRepo, workflows, reputation, hub, log)
	marketplaceService := service.NewMarketplaceService(inventoryRepo, pharmacyRepo, ratingRepo, archiveRepo, reputation, hub, log)
	ratingService := service.NewRatingService(ratingRepo, reputation, log)
	profileService := service.NewProfileService(pharmacyRepo, ratingRepo, archiveRepo, reputation, workflows, store, log)
	dashboardService := service.NewDashboardService(inventoryRepo, archiveRepo, ratingRepo, log)
	reportService := service.NewReportService(archiveRepo)
	adminService := service.NewAdminService(service.AdminDeps{
		Pharmacies:  pharmacyRepo,
		Credentials: credentialRepo,
		Admins:      adminRepo,
		Catalog:     catalogRepo,
		Inventory:   inventoryRepo,
		Archive:     archiveRepo,
		Ratings:     ratingRepo,
		Legal:       legalRepo,
		Reputation:  reputation,
	}, seed, hub, log)

	if err := adminService.Seed(ctx); err != nil {
		log.WithError(err).Warn("seed defaults")
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Pharma Exchange v1.0",
		BodyLimit: 6 * 1024 * 1024,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	if cfg.Storage.Bucket == "" {
		app.Static("/uploads", cfg.Storage.AvatarDir)
	}

	handler.Register(app, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Catalog:     handler.NewCatalogHandler(catalogService, cfg.Search.Debounce, log),
		Inventory:   handler.NewInventoryHandler(inventoryService),
		Marketplace: handler.NewMarketplaceHandler(marketplaceService, ratingService),
		Profile:     handler.NewProfileHandler(profileService),
		Dashboard:   handler.NewDashboardHandler(dashboardService, reportService),
		Admin:       handler.NewAdminHandler(adminService),
	}, authService)

	// Live change feed; browsers pass the session token as ?token=
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", middleware.RequireAuth(authService), websocket.New(func(c *websocket.Conn) {
		hub.Register <- c
		defer func() { hub.Unregister <- c }()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	hub.Stop()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.WithError(err).Warn("flush traces")
	}

	log.Info("Server exited")
}
