package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/olekstore/primecod-sync-service/internal/config"
	"github.com/olekstore/primecod-sync-service/internal/contextkeys"
	"github.com/olekstore/primecod-sync-service/internal/handlers"
	"github.com/olekstore/primecod-sync-service/internal/logging"
	"github.com/olekstore/primecod-sync-service/internal/primecod"
	"github.com/olekstore/primecod-sync-service/internal/reconcile"
	"github.com/olekstore/primecod-sync-service/internal/service"
	"github.com/olekstore/primecod-sync-service/internal/shopify"
)

// Map zap levels to GCP Cloud Logging severities.
func zapLevelToGCPSeverity(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	case zapcore.InfoLevel:
		enc.AppendString("INFO")
	case zapcore.WarnLevel:
		enc.AppendString("WARNING")
	case zapcore.ErrorLevel:
		enc.AppendString("ERROR")
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		enc.AppendString("CRITICAL")
	case zapcore.FatalLevel:
		enc.AppendString("EMERGENCY")
	default:
		enc.AppendString("DEFAULT")
	}
}

func main() {
	// Structured JSON logging compatible with GCP Cloud Logging.
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.MessageKey = "message"
	logConfig.EncoderConfig.LevelKey = "severity"
	logConfig.EncoderConfig.TimeKey = "timestamp"
	logConfig.EncoderConfig.EncodeLevel = zapLevelToGCPSeverity
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load configuration", zap.Error(err))
		os.Exit(1)
	}

	primecodClient, err := primecod.NewClient(cfg.PrimeCOD, logger)
	if err != nil {
		zap.L().Error("Failed to start PrimeCOD client", zap.Error(err))
		os.Exit(1)
	}

	shopifyClient, err := shopify.NewClient(cfg.Shopify, logger)
	if err != nil {
		zap.L().Error("Failed to start store client", zap.Error(err))
		os.Exit(1)
	}

	reconciler := reconcile.New(shopifyClient, logger)
	syncService := service.NewSyncService(primecodClient, shopifyClient, reconciler, cfg.Sync, logger)
	syncHandler := handlers.NewSyncHandler(syncService, cfg.Sync.RunTimeout)

	// HTTP ROUTES
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/sync", withLogging(cfg.Shopify.StoreDomain, syncHandler.Sync))
	mux.HandleFunc("/sync/lead", withLogging(cfg.Shopify.StoreDomain, syncHandler.SyncLead))
	mux.HandleFunc("/orders/reconcile-preview", withLogging(cfg.Shopify.StoreDomain, syncHandler.ReconcilePreview))

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      mux,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	}

	// GRACEFUL SHUTDOWN
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		<-sigChan

		zap.L().Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Graceful shutdown failed", zap.Error(err))
		}

		zap.L().Info("Server exited")
		os.Exit(0)
	}()

	zap.L().Info("Server started",
		zap.String("port", cfg.App.Port),
		zap.String("store_domain", cfg.Shopify.StoreDomain),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zap.L().Error("Server stopped unexpectedly", zap.Error(err))
	}
}

// withLogging logs every request with a Cloud Trace compatible trace ID and
// stamps the trace ID and store domain onto the request context so every log
// line downstream carries them.
func withLogging(storeDomain string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// X-Cloud-Trace-Context: TRACE_ID/SPAN_ID;o=TRACE_TRUE
		traceHeader := r.Header.Get("X-Cloud-Trace-Context")
		var traceID string
		if traceHeader != "" {
			if slashIdx := strings.IndexByte(traceHeader, '/'); slashIdx != -1 {
				traceID = traceHeader[:slashIdx]
			} else {
				traceID = traceHeader
			}
		}
		if traceID == "" {
			traceID = fmt.Sprintf("%d-%d", time.Now().UnixNano(), os.Getpid())
		}

		projectID := os.Getenv("GCP_PROJECT")
		if projectID == "" {
			projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
		}

		ctx := context.WithValue(r.Context(), contextkeys.TraceIDKey, traceID)
		ctx = logging.WithStoreDomain(ctx, storeDomain)

		logFields := []zap.Field{
			zap.String("httpRequest.requestMethod", r.Method),
			zap.String("httpRequest.requestUrl", r.URL.Path),
			zap.String("httpRequest.remoteIp", r.RemoteAddr),
			zap.String("httpRequest.userAgent", r.UserAgent()),
		}
		if projectID != "" && traceID != "" {
			logFields = append(logFields, zap.String("logging.googleapis.com/trace",
				fmt.Sprintf("projects/%s/traces/%s", projectID, traceID)))
		}

		zap.L().Info("Request started", logFields...)

		next(w, r.WithContext(ctx))

		duration := time.Since(start)

		completedFields := []zap.Field{
			zap.String("httpRequest.requestMethod", r.Method),
			zap.String("httpRequest.requestUrl", r.URL.Path),
			zap.Int64("httpRequest.latency.milliseconds", duration.Milliseconds()),
			zap.Float64("httpRequest.latency.seconds", duration.Seconds()),
		}
		if projectID != "" && traceID != "" {
			completedFields = append(completedFields, zap.String("logging.googleapis.com/trace",
				fmt.Sprintf("projects/%s/traces/%s", projectID, traceID)))
		}

		zap.L().Info("Request completed", completedFields...)
	}
}

// HEALTH CHECK
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "primecod-sync-service",
		Version: "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
