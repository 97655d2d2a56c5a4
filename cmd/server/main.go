package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medetov/tutorhub/internal/app"
	"github.com/medetov/tutorhub/internal/config"
	"github.com/medetov/tutorhub/internal/database"
	"github.com/medetov/tutorhub/internal/handler"
	"github.com/medetov/tutorhub/internal/middleware"
	"github.com/medetov/tutorhub/internal/queue"
	"github.com/medetov/tutorhub/internal/repository"
	"github.com/medetov/tutorhub/internal/router"
	"github.com/medetov/tutorhub/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	log := app.NewLogger(cfg.Env)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatal("migrate database", zap.Error(err))
	}
	cancel()

	assets, err := storage.NewStore(cfg.UploadDir, log)
	if err != nil {
		log.Fatal("init asset store", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	courses := repository.NewCourseRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	reviews := repository.NewReviewRepo(db)
	catalog := repository.NewCatalogRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	courseH := handler.NewCourseHandler(courses, assets, log)
	catalogH := handler.NewCatalogHandler(courses, catalog, reviews)
	enrollH := handler.NewEnrollmentHandler(enrollments, courses)
	reviewH := handler.NewReviewHandler(cfg, reviews, courses, log)
	dashH := handler.NewDashboardHandler(catalog)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(rateMW)
	e.Static("/uploads", assets.Dir())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, catalogH, cacheMW)
	router.RegisterStudent(e, enrollH, reviewH, cfg.JWTSecret)
	router.RegisterTutor(e, courseH, dashH, cfg.JWTSecret)

	// Review activity consumer: audit log + aggregate repair.
	go queue.StartReviewConsumer(cfg.AMQPURL, reviews, log)

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
