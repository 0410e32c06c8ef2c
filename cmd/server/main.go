package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"modelcompare/internal/api"
	"modelcompare/internal/config"
	"modelcompare/server"
)

// Run starts the HTTP server and blocks until shutdown.
func Run() error {
	server.AppLogger = server.NewLogger()
	defer server.AppLogger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	srv := server.NewServer(cfg, api.NewClient(server.AppLogger))
	srv.SetupRoutes(router)
	srv.StartJobCleanup(time.Hour, 24*time.Hour)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpSrv := &http.Server{
		Addr:           fmt.Sprintf(":%s", port),
		Handler:        router,
		ReadTimeout:    5 * time.Minute, // Batches can run long
		WriteTimeout:   0,               // Disabled for SSE connections
		MaxHeaderBytes: 1 << 20,         // 1 MB
	}

	go func() {
		server.AppLogger.Infof("Server starting on port %s", port)
		server.AppLogger.Infof("API endpoints available at http://localhost:%s/api", port)
		server.AppLogger.Infof("Websocket progress at ws://localhost:%s/ws/jobs/:jobId", port)

		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.AppLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	server.AppLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		server.AppLogger.Errorf("Server forced to shutdown: %v", err)
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	server.AppLogger.Info("Server exited gracefully")
	return nil
}
