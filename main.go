package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/config"
	"github.com/yeremiapane/hostel-meals/router"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/tracking"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/gorm"
)

func main() {
	utils.InitLogger()

	// Load .env + environment
	cfg := config.Load()
	utils.SetLogLevel(cfg.LogLevel)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	seed(db, cfg)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Pending purchase store
	var store services.PurchaseStore
	var sweeper *services.PurchaseSweeper
	switch cfg.PurchaseStore {
	case "redis":
		redisStore, err := services.NewRedisPurchaseStore(cfg.RedisURL)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
	default:
		sqlStore := services.NewSQLPurchaseStore(db)
		sweeper = services.NewPurchaseSweeper(sqlStore)
		sweeper.Start()
		defer sweeper.Stop()
		store = sqlStore
	}

	r, _ := router.SetupRouter(db, router.Options{
		Config:        cfg,
		PurchaseStore: store,
		Hub:           tracking.NewHub(),
	})
	r.SetTrustedProxies([]string{"127.0.0.1"})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
}

func seed(db *gorm.DB, cfg *config.Config) {
	if cfg.SeedFile != "" {
		file, err := config.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to load seed file: %v", err)
		}
		if err := config.Seed(db, file); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed: %v", err)
		}
		utils.InfoLogger.Printf("Seeded %d meal types and %d plans", len(file.MealTypes), len(file.Plans))
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		utils.InfoLogger.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seeding")
		return
	}
	auth := services.NewAuthService(db)
	if _, err := auth.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed admin: %v", err)
	}
}
