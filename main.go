package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"devevents/config"
	"devevents/db"
	"devevents/middlewares"
	"devevents/models"
	"devevents/routes"
	"devevents/services"
	"devevents/utils"
)

func main() {
	cfg := config.Load()
	utils.SetSecretKey(cfg.JWTSecret)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Postgres
	sqldb, err := db.OpenPostgres(cfg.PGDSN)
	if err != nil {
		log.Fatal("postgres: ", err)
	}

	// Mongo：第一次用到才連線，index 在背景建到成功為止
	mg := db.NewMongo(cfg.MongoURI, cfg.MongoDB)
	go ensureIndexes(mg)

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis ping: %v (cache and quota degrade to pass-through)", err)
	}

	events := models.NewMongoEventRepository(mg)
	bookings := models.NewMongoBookingRepository(mg)
	users := models.NewSQLUserRepository(sqldb)

	// Gin + middlewares
	server := gin.New()
	server.Use(gin.Logger(), gin.Recovery())
	server.Use(middlewares.ResponseCache(rdb, cfg.CacheTTL))

	limiters := routes.RegisterRoutes(server, routes.Deps{
		Events:   services.NewEventService(events),
		Bookings: services.NewBookingService(events, bookings, services.NewRedisNotifier(rdb), cfg.BookingsPageSize),
		Users:    services.NewUserService(users, services.HTTPImageChecker{}, cfg.AdminEmails),
		Redis:    rdb,
		Cache:    utils.NewCacheInvalidator(rdb),
		Quota:    cfg.QuotaPerDay,
		Dev:      !cfg.IsProduction(),

		OAuthSecret: cfg.OAuthBridgeSecret,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (%s)", cfg.Addr, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	limiters.Stop()
	if err := mg.Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
	_ = rdb.Close()
	_ = sqldb.Close()

	log.Println("Server exiting")
}

func ensureIndexes(mg *db.Mongo) {
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := mg.EnsureIndexes(ctx)
		cancel()
		if err == nil {
			log.Println("mongo indexes ready")
			return
		}
		log.Printf("mongo indexes (attempt %d): %v", attempt, err)
		time.Sleep(5 * time.Second)
	}
}
