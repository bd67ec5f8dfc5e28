package main

import (
	"log"
	"time"

	"campusboard/internal/config"
	"campusboard/internal/db"
	"campusboard/internal/middleware"
	"campusboard/internal/nickname"
	"campusboard/internal/router"
	"campusboard/internal/services"
	"campusboard/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load .env file
	config.LoadEnvFiles()
	cfg := config.Load()

	// Initialize Database
	db.Init(cfg.DatabaseURL)

	svc := services.New(db.DB, cfg, utils.NewCache(cfg.CacheSize), nickname.NewSource(time.Now().UnixNano()))

	// Initialize Gin
	r := gin.New()
	r.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
	}

	router.RegisterRoutes(r, svc)

	log.Printf("campusboard server starting on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
