package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/tonermart/backend/docs"
	"github.com/tonermart/backend/internal/access"
	"github.com/tonermart/backend/internal/bootstrap"
	"github.com/tonermart/backend/internal/config"
	"github.com/tonermart/backend/internal/database"
	"github.com/tonermart/backend/internal/handlers"
	"github.com/tonermart/backend/internal/ledger"
	"github.com/tonermart/backend/internal/logger"
	mW "github.com/tonermart/backend/internal/middleware"
	"github.com/tonermart/backend/internal/services"
)

// @title Toner Shop Backend API
// @version 1.0
// @description Role-gated transactional purchase ledger for the toner webshop
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort

	// The ledger backend: Postgres when a database host is configured,
	// in-memory otherwise.
	var shopLedger ledger.Ledger
	if cfg.DatabaseHost != "" {
		db, err := database.InitDB(cfg)
		if err != nil {
			log.Fatal("database init failed", zap.Error(err))
		}
		defer db.Close()

		pg, err := ledger.NewPostgres(db)
		if err != nil {
			log.Fatal("ledger init failed", zap.Error(err))
		}
		shopLedger = pg
		log.Info("using postgres ledger backend")
	} else {
		shopLedger = ledger.NewMemory()
		log.Info("using in-memory ledger backend")
	}

	redisClient := database.InitRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	authService := services.NewAuthService(redisClient, log, cfg.JWTSecretKey, cfg.JWTExpiry)

	// Seed accounts, catalog, historical purchases and principals before
	// the server accepts traffic.
	loader := bootstrap.NewLoader(shopLedger, authService, log)
	if err := loader.Load(context.Background()); err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}

	mW.InitAuthMiddleware(cfg.JWTSecretKey, authService)

	gate := access.NewGate()
	shopHandler := handlers.NewShopHandler(gate, shopLedger, log)
	adminHandler := handlers.NewAdminHandler(gate, shopLedger, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(logger.RequestLogger(log))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:"+cfg.ServerPort+"/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/shop/purchases", shopHandler.Purchase)
			r.Delete("/shop/purchases/{article}", shopHandler.Cancel)
			r.Get("/shop/history", shopHandler.History)
			r.Get("/shop/history/today", shopHandler.HistoryToday)

			r.Get("/admin/customers", adminHandler.Customers)
			r.Get("/admin/customers/{name}/balance", adminHandler.Balance)
			r.Get("/admin/articles", adminHandler.Articles)
			r.Get("/admin/purchases", adminHandler.Purchases)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
