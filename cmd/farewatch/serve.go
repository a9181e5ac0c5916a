package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farewatch/internal/flight"
	"farewatch/internal/tracking"
	"farewatch/pkg/identity"
	"farewatch/pkg/logger"

	_ "farewatch/cmd/farewatch/docs" // swagger docs

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

var (
	withoutScheduler bool
	scanOnStart      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the recurring search scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&withoutScheduler, "no-scheduler", false,
		"Serve the API only; scans run through POST /v1/scan")
	serveCmd.Flags().BoolVar(&scanOnStart, "scan-on-start", false,
		"Run one scan immediately instead of waiting for the first interval")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============
	// Otel
	// ============
	shutdownOtel, err := initOtel(ctx, &config.Observability, zlog)
	if err != nil {
		zlog.Warn("otel_init_failed_continuing_without", logger.Err(err))
	} else {
		defer shutdownWithTimeout(shutdownOtel, zlog)
	}

	a, err := newApp(ctx, config, zlog)
	if err != nil {
		return err
	}
	defer a.Close()

	// ============
	// Identity
	// ============
	var actionMiddleware []gin.HandlerFunc
	if config.Identity.IssuerURL != "" {
		verifier, err := identity.NewOIDCVerifier(ctx, identity.Config{
			IssuerURL: config.Identity.IssuerURL,
			ClientID:  config.Identity.ClientID,
		})
		if err != nil {
			return err
		}
		actionMiddleware = append(actionMiddleware, identity.Middleware(verifier))
	}

	scheduler := tracking.NewScheduler(a.scanner, config.Scanner.Interval, scanOnStart, zlog)

	// ============
	// HTTP
	// ============
	if config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(config.Observability.ServiceName), requestLogger(zlog))

	flight.NewFlightHandler(a.flights).RegisterRoutes(r)
	tracking.NewHandler(a.tracking, a.scanner, zlog).RegisterRoutes(r, actionMiddleware...)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	r.GET("/healthz", healthHandler(a, scheduler))
	initSwagger(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	schedulerDone := make(chan struct{})
	if withoutScheduler {
		close(schedulerDone)
	} else {
		go func() {
			defer close(schedulerDone)
			scheduler.Run(ctx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("http_listening", logger.Field{Key: "addr", Value: srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-schedulerDone
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	zlog.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("http_shutdown_failed", logger.Err(err))
	}
	<-schedulerDone
	return nil
}

func healthHandler(a *app, scheduler *tracking.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok", "scheduler": scheduler.Status()}
		if err := a.ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["error"] = err.Error()
		}
		c.JSON(status, body)
	}
}

func initSwagger(r *gin.Engine) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		html := `<!DOCTYPE html>
<html>
<head>
    <title>API Documentation</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <script id="api-reference" data-url="/swagger/doc.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
		c.String(http.StatusOK, html)
	})
}
