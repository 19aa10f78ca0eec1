package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/database"
	"github.com/yeremiapane/restaurant-booking/realtime"
	"github.com/yeremiapane/restaurant-booking/router"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/storage"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Log.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		utils.Log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.Log.Fatalf("Failed to migrate: %v", err)
	}

	ctx := context.Background()

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	authSvc := services.NewAuthService(db, tokens)
	if err := authSvc.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.Log.WithError(err).Error("Failed to seed admin account")
	}

	rules, err := services.NewBookingRules(cfg.Booking, cfg.Timezone)
	if err != nil {
		utils.Log.Fatalf("Invalid booking rules: %v", err)
	}

	store, err := storage.New(ctx, cfg.Upload)
	if err != nil {
		utils.Log.Fatalf("Failed to init upload storage: %v", err)
	}

	hub := realtime.NewHub()
	r := router.SetupRouter(router.Deps{
		Config:       cfg,
		DB:           db,
		Tokens:       tokens,
		Hub:          hub,
		Storage:      store,
		Reservations: services.NewReservationService(db, rules, cfg.Booking, hub),
		Auth:         authSvc,
		Chatbot:      services.NewChatbotService(db, cfg.AI.Timeout, rules, services.NewChatProviders(cfg.AI)...),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Log.WithFields(map[string]interface{}{"port": cfg.Port, "env": cfg.Env}).Info("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Log.WithError(err).Error("Forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
