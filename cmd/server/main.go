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

	"postly/internal/config"
	"postly/internal/db"
	"postly/internal/handlers"
	"postly/internal/middleware"
	"postly/internal/router"
	"postly/internal/services"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// Initialize Database
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	uploader, err := services.NewImageUploader(cfg.UploadDir)
	if err != nil {
		log.Fatal(err)
	}

	hub := services.NewHub()
	users := services.NewUserService(conn)
	notifier := services.NewPostNotifier(users, services.NewMailService(cfg), hub, cfg.SiteURL)
	svc := &handlers.Services{
		Posts:    services.NewPostService(conn, notifier),
		Queries:  services.NewPostQueryService(conn),
		Users:    users,
		Follows:  services.NewFollowService(conn),
		Uploader: uploader,
		Hub:      hub,
	}

	// Initialize Gin
	r := gin.Default()
	r.MaxMultipartMemory = services.MaxAvatarBytes + 1<<20
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 30, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("postly_session", store))

	renderer, err := router.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	r.HTMLRender = renderer

	// Static Assets
	r.Static("/static", "./web/static")
	r.Static("/uploads", cfg.UploadDir)

	r.Use(middleware.LoadUser(users))
	router.RegisterRoutes(r, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Postly server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}
