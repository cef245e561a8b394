package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duet-app/duet/internal/database"
	"github.com/duet-app/duet/internal/logging"
	"github.com/duet-app/duet/internal/photo"
	"github.com/duet-app/duet/internal/push"
	"github.com/duet-app/duet/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "gen-vapid-keys" {
		public, private, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("DUET_VAPID_PUBLIC_KEY=%s\nDUET_VAPID_PRIVATE_KEY=%s\n", public, private)
		return
	}

	logger := logging.Setup(os.Getenv("DUET_LOG_LEVEL"))

	port := os.Getenv("DUET_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DUET_DB_PATH")
	if dbPath == "" {
		dbPath = "duet.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	photoCfg := photo.Config{
		Endpoint:      os.Getenv("DUET_S3_ENDPOINT"),
		Bucket:        os.Getenv("DUET_S3_BUCKET"),
		Region:        os.Getenv("DUET_S3_REGION"),
		AccessKey:     os.Getenv("DUET_S3_ACCESS_KEY"),
		SecretKey:     os.Getenv("DUET_S3_SECRET_KEY"),
		PublicBaseURL: os.Getenv("DUET_S3_PUBLIC_URL"),
	}

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("DUET_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("DUET_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, photoCfg, pushCfg, logger)

	// Periodic cleanup of expired sessions and stale rate-limit entries.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("duet listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
