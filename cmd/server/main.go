package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/chamados-io/chamados-ce/internal/api"
	"github.com/chamados-io/chamados-ce/internal/auth"
	"github.com/chamados-io/chamados-ce/internal/cache"
	"github.com/chamados-io/chamados-ce/internal/config"
	"github.com/chamados-io/chamados-ce/internal/database"
	"github.com/chamados-io/chamados-ce/internal/middleware"
	"github.com/chamados-io/chamados-ce/internal/repository"
	"github.com/chamados-io/chamados-ce/internal/services"
	"github.com/chamados-io/chamados-ce/internal/workflow"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if err := config.Load(configPath); err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	cfg := config.Get()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	matrix := auth.DefaultMatrix()
	if cfg.RBAC.MatrixFile != "" {
		var err error
		matrix, err = auth.LoadMatrixFile(cfg.RBAC.MatrixFile)
		if err != nil {
			log.Fatalf("load role matrix: %v", err)
		}
	}
	if gaps := matrix.Audit(); len(gaps) > 0 {
		for _, gap := range gaps {
			log.Printf("matrix gap: %s", gap)
		}
		log.Fatalf("role matrix has %d configuration gaps; refusing to start", len(gaps))
	}

	engine := workflow.NewDefaultEngine()
	for _, finding := range engine.Audit() {
		log.Printf("transition table: %s", finding)
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(db); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
	}

	var permCache *cache.PermissionCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		permCache = cache.NewPermissionCache(client, cfg.Redis.CacheTTL)
	}

	var repo repository.TicketRepository = repository.NewSQLTicketRepository(db)
	ticketService := services.NewTicketService(repo, matrix, engine)
	approvalService := services.NewApprovalService(repo, matrix, engine)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authmw := middleware.NewAuthMiddleware(jwtManager, matrix, permCache)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.NewHandler(ticketService, approvalService).
		RegisterRoutes(router.Group("/api"), authmw)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
