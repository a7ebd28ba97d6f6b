package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-catalog-admin/config"
	"go-catalog-admin/internal/cache"
	"go-catalog-admin/internal/events"
	"go-catalog-admin/internal/handler"
	"go-catalog-admin/internal/metrics"
	"go-catalog-admin/internal/middleware"
	"go-catalog-admin/internal/model"
	"go-catalog-admin/internal/notify"
	"go-catalog-admin/internal/repository"
	"go-catalog-admin/internal/service"
	"go-catalog-admin/internal/storage"
	"go-catalog-admin/internal/ws"
	"go-catalog-admin/pkg/database"
	"go-catalog-admin/pkg/jwt"
	"go-catalog-admin/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()
	cfg := config.LoadEnv()

	log := logger.New(&logger.Config{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.ConnectDB(&cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 3. Seed privileges, roles, the default admin and categories
	seedDefaults(ctx, db, &cfg.Admin, log)

	// 4. Notification fan-out: log, websocket hub, kafka
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	notifiers := notify.Multi{notify.NewLogNotifier(log), wsHub}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewPublisher(&cfg.Kafka, log)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn("Failed to close kafka writer", zap.Error(err))
			}
		}()
		notifiers = append(notifiers, publisher)
	}

	categoryCache := cache.NewNopCategoryCache()
	if cfg.Redis.Addr != "" {
		rdb, err := cache.InitRedis(&cfg.Redis, log)
		if err != nil {
			log.Warn("Redis unavailable, category cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			categoryCache = cache.NewRedisCategoryCache(rdb, cfg.Redis.CategoryTTL, log)
			// seeding may have added categories since the list was cached
			categoryCache.InvalidateCategories(ctx)
		}
	}

	store := storage.NewSupabaseStorage(&cfg.Storage, &fasthttp.Client{
		Name:                "go-catalog-admin",
		MaxConnsPerHost:     64,
		ReadTimeout:         cfg.Storage.Timeout,
		WriteTimeout:        cfg.Storage.Timeout,
		MaxIdleConnDuration: time.Minute,
	})

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	links := repository.NewAssociationWriter(db)
	userRepo := repository.NewUserRepo(db)
	statsRepo := repository.NewStatsRepo(db)
	tokens := jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.TTL)

	catalogService := service.NewCatalogService(productRepo, categoryRepo, links, store, categoryCache,
		notifiers, cfg.Catalog, cfg.Storage.Bucket, log)
	uploadService := service.NewUploadService(store, cfg.Storage.Bucket, log)
	authService := service.NewAuthService(userRepo, tokens, log)
	dashService := service.NewDashboardService(statsRepo, cfg.Catalog.LowStockThreshold)

	productHandler := handler.NewProductHandler(catalogService)
	categoryHandler := handler.NewCategoryHandler(catalogService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	authHandler := handler.NewAuthHandler(authService)
	dashHandler := handler.NewDashboardHandler(dashService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Catalog Admin v1.0",
		BodyLimit: cfg.Server.BodyLimit,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(metrics.Middleware())

	app.Get("/metrics", metrics.Handler())
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	// 7. Routes
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)

	protected := api.Group("", middleware.RequireAuth(tokens, userRepo))

	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetDashboardStats)
	protected.Get("/categories", middleware.RequirePrivilege(model.PrivCategoryView), categoryHandler.GetCategories)
	protected.Post("/uploads",
		middleware.RequireAnyPrivilege(model.PrivProductCreate, model.PrivProductUpdate), uploadHandler.Upload)

	products := protected.Group("/products")
	products.Get("/", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetProducts)
	products.Post("/import", middleware.RequirePrivilege(model.PrivCatalogImport), productHandler.ImportProducts)
	products.Get("/:id", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetProduct)
	products.Post("/", middleware.RequirePrivilege(model.PrivProductCreate), productHandler.CreateProduct)
	products.Put("/:id", middleware.RequirePrivilege(model.PrivProductUpdate), productHandler.UpdateProduct)
	products.Patch("/:id/stock", middleware.RequirePrivilege(model.PrivProductUpdate), productHandler.UpdateStock)
	products.Delete("/:id", middleware.RequirePrivilege(model.PrivProductDelete), productHandler.DeleteProduct)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Graceful Shutdown
	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited")
}

// seedDefaults creates privileges, roles, the default admin and categories
// when they don't exist yet. Failures are logged and never stop the server.
func seedDefaults(ctx context.Context, db *gorm.DB, adminCfg *config.AdminConfig, log *zap.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)

	if err := privilegeRepo.SeedDefaults(ctx); err != nil {
		log.Warn("Failed to seed privileges", zap.Error(err))
	}
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		log.Warn("Failed to seed roles", zap.Error(err))
	}
	if err := categoryRepo.SeedDefaults(ctx); err != nil {
		log.Warn("Failed to seed categories", zap.Error(err))
	}

	// CATALOG_ADMIN gets every privilege, EDITOR the editing subset
	allPrivileges, err := privilegeRepo.FindAll(ctx)
	if err != nil {
		log.Warn("Failed to load privileges", zap.Error(err))
		return
	}
	adminRole, err := roleRepo.FindByCode(ctx, model.RoleCatalogAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		if err := roleRepo.AssignPrivileges(ctx, adminRole, allPrivileges); err != nil {
			log.Warn("Failed to assign admin privileges", zap.Error(err))
		}
	}
	editorRole, err := roleRepo.FindByCode(ctx, model.RoleEditor)
	if err == nil && len(editorRole.Privileges) == 0 {
		editorPrivileges, err := privilegeRepo.FindByCodes(ctx, model.EditorPrivileges)
		if err == nil {
			err = roleRepo.AssignPrivileges(ctx, editorRole, editorPrivileges)
		}
		if err != nil {
			log.Warn("Failed to assign editor privileges", zap.Error(err))
		}
	}

	adminEmail := adminCfg.Email
	if _, err := userRepo.FindByEmail(ctx, adminEmail); !errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if adminRole == nil {
		log.Warn("Admin role missing, skipping admin user")
		return
	}
	admin := &model.User{
		Email:    adminEmail,
		FullName: "Catalog Administrator",
		RoleID:   &adminRole.ID,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(adminCfg.Password); err != nil {
		log.Warn("Failed to hash admin password", zap.Error(err))
		return
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Warn("Failed to create admin user", zap.Error(err))
		return
	}
	log.Info("Admin user created", zap.String("email", adminEmail), zap.String("role", model.RoleCatalogAdmin))
}
