package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"timetable-service/internal/config"
	"timetable-service/internal/handlers"
	"timetable-service/internal/logger"
	"timetable-service/internal/models"
	"timetable-service/internal/repo"
	"timetable-service/internal/service"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	client, err := repo.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongo connection failed", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)
	if err := repo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("index creation failed", zap.Error(err))
	}

	entries := repo.NewEntryRepo(db)
	master := repo.NewMasterRepo(db)

	redisClient := repo.NewRedisClient(cfg.RedisAddr)
	var cache service.TimetableCache
	if sc := repo.NewSectionCache(redisClient, cfg.CacheTTL, log); sc != nil {
		cache = sc
		log.Info("section cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	if err := seedAdmin(ctx, cfg, master, log); err != nil {
		log.Fatal("admin seed failed", zap.Error(err))
	}

	svc := service.NewTimetableService(entries, master, cache, log)

	healthz := func(c *gin.Context) {
		status := http.StatusOK
		mongoOK := client.Ping(c.Request.Context(), nil) == nil
		redisOK := redisClient == nil || redisClient.Ping(c.Request.Context()).Err() == nil
		if !mongoOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "mongo": mongoOK, "redis": redisOK})
	}

	router := handlers.Router(cfg, log,
		handlers.NewTimetableHandler(svc, log),
		handlers.NewMasterHandler(master, entries),
		handlers.NewAuthHandler(master, cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		healthz,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		redisClient.Close()
	}
}

// seedAdmin bootstraps the first admin account when the users collection is
// empty and ADMIN_PASSWORD is set.
func seedAdmin(ctx context.Context, cfg config.Config, master *repo.MasterRepo, log *zap.Logger) error {
	if cfg.AdminPassword == "" {
		return nil
	}
	count, err := master.CountUsers(ctx)
	if err != nil || count > 0 {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = master.InsertUser(ctx, models.User{
		Name:      "Admin User",
		Email:     cfg.AdminEmail,
		Password:  string(hash),
		Role:      "admin",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		log.Info("seeded admin user", zap.String("email", cfg.AdminEmail))
	}
	return err
}
