package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gomoku_arena/internal/config"
	"gomoku_arena/internal/http/handlers"
	"gomoku_arena/internal/logger"
	"gomoku_arena/internal/repository"
	"gomoku_arena/internal/service"
	"gomoku_arena/internal/store"
	"gomoku_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	// Инициализация структурированного логгера
	jsonLogs := os.Getenv("LOG_FORMAT") == "json"
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(logLevel, jsonLogs)
	log := logger.Get()

	service.InitJWT()

	// стор комнат: redis в проде, память для локальной разработки
	var st store.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			logger.Fatal("redis unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		st = store.NewRedisStore(rdb, cfg.SessionTTL)
		log.Info("room store: redis", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	} else {
		st = store.NewMemoryStore(cfg.SessionTTL)
		log.Warn("room store: in-memory, rooms do not survive restart")
	}

	// история партий опциональна: без postgres сервер полностью рабочий
	var matches *repository.MatchRepository
	if cfg.DatabaseURL != "" {
		dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres connect failed", "error", err)
		}
		defer dbPool.Close()
		matches = repository.NewMatchRepository(dbPool)
		log.Info("match history: postgres enabled")
	} else {
		log.Warn("match history disabled: DATABASE_URL not set")
	}

	coord := ws.NewCoordinator(st, matches, ws.Config{
		DisconnectGrace: cfg.DisconnectGrace,
		RestartPolicy:   cfg.RestartPolicy,
	})

	r := gin.Default()

	// CORS для прода и связи фронта с бэкендом(разные домены)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.New(coord, matches, cfg).RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.Port, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
