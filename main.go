package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"LIBRA-backend/internal/circulation/loans"
	"LIBRA-backend/internal/circulation/reports"
	"LIBRA-backend/internal/library/books"
	"LIBRA-backend/internal/library/booktypes"
	"LIBRA-backend/internal/library/clients"
	"LIBRA-backend/internal/platform/apidoc"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/clock"
	"LIBRA-backend/internal/platform/config"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/events"
	"LIBRA-backend/internal/platform/middleware"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 設定読み込み
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	log.Printf("[INFO] mode:%s version:%s", cfg.Mode, cfg.Version)

	if cfg.Mode == config.ModeDev && cfg.Auth.JWTSecret == "" {
		// 開発用: 再起動するとトークンは無効になる
		cfg.Auth.JWTSecret = uuid.NewString()
		log.Printf("[WARN] auth.jwt_secret is empty, using a random secret for this run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		cancel()
		log.Fatalf("[ERROR] %v", err)
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	if err := db.Migrate(ctx, conn); err != nil {
		cancel()
		log.Fatalf("[ERROR] %v", err)
	}

	clk := clock.Real{}
	authSvc := auth.NewService(auth.NewStore(conn), cfg.Auth, clk)
	if _, err := authSvc.EnsureDefaultAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		cancel()
		log.Fatalf("[ERROR] default admin: %v", err)
	}
	cancel()

	clientStore := clients.NewStore(conn)
	clientSvc := clients.NewService(clientStore)
	typeSvc := booktypes.NewService(booktypes.NewStore(conn))
	bookSvc := books.NewService(books.NewStore(conn))
	hub := events.NewHub(events.DefaultBuffer)
	loanSvc := loans.NewService(loans.NewStore(conn), clk, cfg.Loans.MaxOpenPerClient).WithEvents(hub)
	reportSvc := reports.NewService(reports.NewStore(conn), clientStore, clk)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == config.ModeDev {
		// CORS（開発中のみ必要）
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	apidoc.Register(r)

	// /api/v1
	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)

	authed := api.Group("", auth.RequireAuth(authSvc.Secret()))
	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))

	auth.RegisterMeRoute(authed)
	auth.RegisterAdminRoutes(admin, authSvc)
	clients.RegisterRoutes(admin, clientSvc, cfg.Loans.PageLimit)
	booktypes.RegisterRoutes(authed, admin, typeSvc, cfg.Loans.PageLimit)
	books.RegisterRoutes(authed, admin, bookSvc, cfg.Loans.PageLimit)
	loans.RegisterRoutes(admin, loanSvc, cfg.Loans.PageLimit)
	reports.RegisterRoutes(authed, admin, reportSvc, cfg.Reports)
	events.RegisterRoutes(admin, hub, cfg.Server.AllowOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Certificate.Enabled() {
			log.Printf("[INFO] listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(cfg.Certificate.Cert, cfg.Certificate.Key)
		} else {
			log.Printf("[WARN] TLS disabled, listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
