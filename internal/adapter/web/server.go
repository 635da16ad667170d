package web

import (
	"context"
	"net/http"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
)

// NewHTTPServer returns the server and a cleanup func that shuts it down gracefully.
func NewHTTPServer(port string, readTimeout, writeTimeout time.Duration, handler http.Handler, log *logger.Logger) (*http.Server, func(ctx context.Context)) {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	cleanup := func(ctx context.Context) {
		log.Info("Shutting down HTTP server...")
		if err := server.Shutdown(ctx); err != nil {
			log.Error("HTTP server shutdown failed", zap.Error(err))
			return
		}
		log.Info("HTTP server stopped")
	}
	return server, cleanup
}
