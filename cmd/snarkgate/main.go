package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/proofmesh/snarkgate/internal/bridge"
	"github.com/proofmesh/snarkgate/internal/gateway/handler"
	"github.com/proofmesh/snarkgate/internal/kernel"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("gateway exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("snarkgate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("gateway.host", "127.0.0.1")
	viper.SetDefault("gateway.port", 8080)
	viper.SetDefault("gateway.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("gateway.rate_limit_rps", 20)
	viper.SetDefault("gateway.rate_limit_burst", 40)
	viper.SetDefault("gateway.rate_limit_stale_after", "10m")
	viper.SetDefault("gateway.rate_limit_sweep_every", "5m")
	viper.SetDefault("gateway.web_dir", "web")
	viper.SetDefault("kernel.dispatch_timeout", "10s")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Ledger kernel + bridge ───────────────────────────────────────────────
	dispatchTimeout, _ := time.ParseDuration(viper.GetString("kernel.dispatch_timeout"))

	k := kernel.NewMemory(logger)
	br := bridge.New(k, dispatchTimeout, logger)
	br.SetMetricsRecord(handler.RecordDispatch)

	// The %init cause goes out exactly once, before any HTTP traffic.
	// A failure here aborts startup rather than degrading per-request.
	if err := br.Init(context.Background()); err != nil {
		return fmt.Errorf("initialize kernel: %w", err)
	}

	snarkHandler := handler.NewSnarkHandler(br, logger)

	// ── HTTP Router ───────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS
	corsOrigins := viper.GetStringSlice("gateway.cors_origins")
	corsConfig := cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	// Request body size limit (1 MB)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
		c.Next()
	})

	// Request ids before the limiter, so rejections log with an id.
	router.Use(handler.RequestID())

	// Per-IP rate limiting
	rps := viper.GetInt("gateway.rate_limit_rps")
	if rps > 0 {
		staleAfter, _ := time.ParseDuration(viper.GetString("gateway.rate_limit_stale_after"))
		sweepEvery, _ := time.ParseDuration(viper.GetString("gateway.rate_limit_sweep_every"))
		router.Use(handler.RateLimiter(handler.LimiterConfig{
			RPS:        rps,
			Burst:      viper.GetInt("gateway.rate_limit_burst"),
			StaleAfter: staleAfter,
			SweepEvery: sweepEvery,
		}, logger))
	}

	router.Use(handler.PrometheusMiddleware())
	router.Use(requestLogger(logger))

	// Health (public)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", handler.MetricsHandler())

	// API v1
	v1 := router.Group("/api/v1")
	snarkHandler.Register(v1)

	// Static assets (browser UI), when the web dir exists.
	webDir := viper.GetString("gateway.web_dir")
	if st, err := os.Stat(webDir); err == nil && st.IsDir() {
		fileServer := http.FileServer(http.Dir(webDir))
		router.NoRoute(func(c *gin.Context) {
			fileServer.ServeHTTP(c.Writer, c.Request)
		})
		logger.Info("serving static assets", zap.String("dir", webDir))
	}

	// ── HTTP Server ───────────────────────────────────────────────────────────
	addr := listenAddr(viper.GetString("gateway.host"), viper.GetInt("gateway.port"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("gateway HTTP listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────────
	<-quit
	logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("gateway stopped")
	return nil
}

// listenAddr joins the configured bind host and port. The loopback default
// keeps the unauthenticated API off external interfaces; an empty host binds
// them all.
func listenAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", handler.RequestIDFromCtx(c)),
		)
	}
}
