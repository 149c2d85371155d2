package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"quest-hub-system/chain"
	"quest-hub-system/handlers"
	"quest-hub-system/middleware"
	"quest-hub-system/models"
	"quest-hub-system/services"
	"quest-hub-system/utils"
	"quest-hub-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, badge icons are the largest upload
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.LevelThreshold{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Expedition{},
		&models.Mission{},
		&models.MissionStatus{},
		&models.UserProfile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	levels, err := services.LoadLevelTable(db)
	if err != nil {
		log.Fatal("failed to load level table:", err)
	}

	if err := utils.SeedCatalogFromEnv(db); err != nil {
		log.Fatal("failed to import catalog seed:", err)
	}

	chainClient := chain.NewAlchemyClientFromEnv()

	catalogService := services.NewCatalogService(db)
	progressionService := services.NewProgressionService(db, levels)
	verificationEngine := services.NewVerificationEngine(catalogService, progressionService, chainClient)
	missionService := services.NewMissionService(db, catalogService, progressionService, verificationEngine)

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	questServiceToken := os.Getenv("QUEST_SERVICE_TOKEN")
	if questServiceToken == "" {
		log.Fatal("QUEST_SERVICE_TOKEN environment variable not set")
	}
	authClient := services.NewAuthServiceClient(authServiceURL, questServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewProfileSyncWorker(db, authServiceURL, "/api/v1/public/profiles", questServiceToken)
	syncWorker.Start(ctx)

	catalogService.StartPublishScheduler()

	// ✅ Setup routes — enforced Gateway auth + user context per group
	handlers.SetupMissionRoutes(app, missionService)
	handlers.SetupProgressionRoutes(app, progressionService, authClient)
	handlers.SetupAdminRoutes(app, catalogService, missionService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Publish scheduler running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
