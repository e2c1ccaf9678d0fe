package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/config"
	"github.com/CoconutOil2004/project-sdn-group302/internal/handler"
	"github.com/CoconutOil2004/project-sdn-group302/internal/middleware"
	"github.com/CoconutOil2004/project-sdn-group302/internal/migration"
	"github.com/CoconutOil2004/project-sdn-group302/internal/repository"
	"github.com/CoconutOil2004/project-sdn-group302/internal/routes"
	"github.com/CoconutOil2004/project-sdn-group302/internal/service"
	pkgcache "github.com/CoconutOil2004/project-sdn-group302/pkg/cache"
	"github.com/CoconutOil2004/project-sdn-group302/pkg/jwt"
	pkglogger "github.com/CoconutOil2004/project-sdn-group302/pkg/logger"
	pkgredis "github.com/CoconutOil2004/project-sdn-group302/pkg/redis"
	"github.com/redis/go-redis/v9"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	// MySQL
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")
	if err := migration.Run(db); err != nil {
		pkglogger.Warn("Migration warning: %v", err)
	}
	if cfg.IsDevelopment() {
		if err := migration.RunDirectory(db); err != nil {
			pkglogger.Warn("Directory migration warning: %v", err)
		}
	}

	// Redis is optional: without it lookups are uncached and writes are not rate limited
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = pkgredis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
		)
		if err != nil {
			pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
			redisClient = nil
		} else {
			pkglogger.Info("Connected to Redis")
		}
	}
	cacheService := pkgcache.NewService(redisClient)

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Repositories and services
	messageRepo := repository.NewMessageRepository(db)
	directoryRepo := repository.NewCachedDirectoryRepository(repository.NewDirectoryRepository(db), cacheService)
	conversationService := service.NewConversationService(
		messageRepo,
		directoryRepo,
		service.NewAccessEvaluator(directoryRepo),
		service.NewThreadAggregator(messageRepo, directoryRepo),
		service.Options{
			DefaultPageSize:       cfg.Messaging.DefaultPageSize,
			MaxPageSize:           cfg.Messaging.MaxPageSize,
			DirectoryDefaultLimit: cfg.Messaging.DirectoryDefaultLimit,
			DirectoryMaxLimit:     cfg.Messaging.DirectoryMaxLimit,
			UnpinRequiresManager:  cfg.Messaging.UnpinRequiresManager,
		},
	)
	conversationHandler := handler.NewConversationHandler(conversationService)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.InputSanitizer())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	var writeLimit gin.HandlerFunc
	if cfg.RateLimit.Enabled && redisClient != nil {
		writeLimit = middleware.WriteRateLimit(redisClient, middleware.RateLimitConfig{
			Requests:  cfg.RateLimit.WriteRequests,
			Window:    cfg.RateLimit.Window,
			KeyPrefix: middleware.DefaultWriteRateLimitConfig().KeyPrefix,
			Message:   middleware.DefaultWriteRateLimitConfig().Message,
		})
	}

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			common.V2ErrorResponse(c, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
		middleware.SetDBConnectionsActive(float64(sqlDB.Stats().InUse))
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "club-messaging",
			"redis":   cacheService.IsAvailable(),
			"time":    time.Now().Unix(),
		})
	})

	routes.Setup(router, conversationHandler, jwtManager, writeLimit)

	router.NoRoute(func(c *gin.Context) {
		common.V2ErrorResponse(c, http.StatusNotFound, "not found", nil)
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.Info("Server listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// splitAndTrim splits a string by delimiter and drops empty parts
func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// initDB opens the MySQL connection pool
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+07:00'"

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	db.Exec("SET NAMES utf8mb4")

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
