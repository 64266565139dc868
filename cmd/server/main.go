package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/remote-screen-share/backend/api/handlers"
	"github.com/remote-screen-share/backend/internal/auth"
	"github.com/remote-screen-share/backend/internal/config"
	"github.com/remote-screen-share/backend/internal/control"
	"github.com/remote-screen-share/backend/internal/db"
	"github.com/remote-screen-share/backend/internal/framecache"
	"github.com/remote-screen-share/backend/internal/hub"
	"github.com/remote-screen-share/backend/internal/repository"
	"github.com/remote-screen-share/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	// Ensure the database directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	userRepo := repository.NewUserRepository(database)
	if err := userRepo.EnsureSeed(context.Background(), cfg.Auth.AdminUser, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	authManager := auth.NewManager(userRepo, cfg.Auth.SessionTTL)

	// Core hub wiring: registry+pool, frame cache, control plane, router.
	relayHub := hub.New()
	cache := framecache.New()
	controlPlane := control.New(relayHub)
	router := ws.NewRouter(relayHub, cache, controlPlane, cfg.Hub.AgentWait)
	wsHandler := ws.NewHandler(relayHub, router, cfg.Hub.SendBuffer)

	// Initialize handlers
	connHandler := handlers.NewWebSocketHandler(wsHandler, authManager)
	frameHandler := handlers.NewFrameHandler(cache, router)
	authHandler := handlers.NewAuthHandler(authManager, int(cfg.Auth.SessionTTL.Seconds()))

	r := gin.Default()
	r.Use(corsMiddleware())

	r.GET("/", handlers.IndexPage)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "ok",
			"sessions": relayHub.Len(),
			"agents":   relayHub.AgentCount(),
		})
	})

	connHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)

	api := r.Group("/api")
	{
		frameHandler.RegisterRoutes(api)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		db.CloseDB()
		os.Exit(0)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting relay server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
