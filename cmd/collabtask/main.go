package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/collabtask/collabtask/internal/config"
	dbRedis "github.com/collabtask/collabtask/internal/db/redis"
	logpkg "github.com/collabtask/collabtask/internal/logger"
	"github.com/collabtask/collabtask/internal/metrics"
	"github.com/collabtask/collabtask/internal/realtime"
	commentrepo "github.com/collabtask/collabtask/internal/repository/comment"
	filerepo "github.com/collabtask/collabtask/internal/repository/file"
	notificationrepo "github.com/collabtask/collabtask/internal/repository/notification"
	projectrepo "github.com/collabtask/collabtask/internal/repository/project"
	sessionrepo "github.com/collabtask/collabtask/internal/repository/session"
	taskrepo "github.com/collabtask/collabtask/internal/repository/task"
	userrepo "github.com/collabtask/collabtask/internal/repository/user"
	chiTransport "github.com/collabtask/collabtask/internal/transport/chi"
	accessuc "github.com/collabtask/collabtask/internal/usecase/access"
	notifyuc "github.com/collabtask/collabtask/internal/usecase/notify"
	searchuc "github.com/collabtask/collabtask/internal/usecase/search"
	"github.com/collabtask/collabtask/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting collabtask search server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register realtime metrics explicitly (no init())
	metrics.RegisterRealtimeMetrics()

	// Repositories
	tasks := taskrepo.New(store)
	projects := projectrepo.New(store)
	comments := commentrepo.New(store)
	files := filerepo.New(store)
	users := userrepo.New(store)
	notifications := notificationrepo.New(store)
	sessions := sessionrepo.New(store, time.Duration(cfg.Auth.SessionTTLMin)*time.Minute)

	// Realtime fan-out: one registry and broadcaster per process.
	registry := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(registry, logger)
	connOpts := realtime.Options{
		QueueSize:   cfg.Realtime.SendQueueSize,
		SendTimeout: time.Duration(cfg.Realtime.SendTimeoutSec) * time.Second,
	}

	// Use case services
	accessSvc := accessuc.New(tasks, projects)
	searchSvc := searchuc.New(accessSvc, comments, files, users)
	notifySvc := notifyuc.New(notifications, broadcaster, logger)

	server := chiTransport.NewServer(searchSvc, store, logger)
	wsHandler := chiTransport.NewWSHandler(
		registry, broadcaster, notifySvc, accessSvc, tasks, connOpts, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.SessionAuthMiddleware(sessions, users))
	r.Use(metrics.Middleware())
	server.Routes(r)
	wsHandler.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		// No WriteTimeout: it would sever long-lived WebSocket
		// connections; per-write deadlines are applied in realtime.Conn.
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
