package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/reservations-migrate/internal/config"
	"github.com/ksred/reservations-migrate/internal/database"
	"github.com/ksred/reservations-migrate/internal/utils"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server exposes a read-only view of the schema normalization: health, the
// plan a run would execute, and the current column state of a table.
type Server struct {
	router     *gin.Engine
	config     *config.Config
	health     HealthChecker
	catalog    database.TxCatalog
	migrations []database.Migration
	logger     zerolog.Logger
	httpServer *http.Server
}

func NewServer(cfg *config.Config, health HealthChecker, catalog database.TxCatalog, migrations []database.Migration, logger zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.HTTP.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.AllowOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Type", RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	server := &Server{
		router:     router,
		config:     cfg,
		health:     health,
		catalog:    catalog,
		migrations: migrations,
		logger:     logger,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	v1 := s.router.Group("/api/v1")
	if s.config.JWT.Secret != "" {
		v1.Use(s.authMiddleware())
	} else {
		s.logger.Warn().Msg("JWT secret not set, inspection API is unauthenticated")
	}
	{
		v1.GET("/migrations", s.listMigrationsHandler)
		v1.GET("/plan", s.planHandler)
		v1.GET("/tables/:name", s.describeTableHandler)
	}
}

// Handler returns the router, for embedding in another server or in tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
		// A plan reads the catalog for every governed column; allow for a
		// table lock held by someone else.
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   s.config.Migration.LockTimeout + 30*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// RequestIDHeader carries the request identifier in and out
const RequestIDHeader = "X-Request-ID"

// LoggerMiddleware logs each request and stores a request-scoped logger in
// the request context for handlers to pick up with utils.FromContext
func LoggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		reqLogger := logger.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(utils.WithContext(c.Request.Context(), reqLogger))

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		if raw != "" {
			path = path + "?" + raw
		}

		event := reqLogger.Info()
		if statusCode >= http.StatusInternalServerError {
			event = reqLogger.Error()
		}
		event.
			Str("client_ip", clientIP).
			Str("method", method).
			Str("path", path).
			Int("status", statusCode).
			Dur("latency", latency).
			Str("error", errorMessage).
			Msg("HTTP request")
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx := c.Request.Context()

	dbHealthy := true
	var dbError string
	if s.health == nil {
		dbHealthy = false
		dbError = "no health checker configured"
	} else if err := s.health.Health(ctx); err != nil {
		dbHealthy = false
		dbError = err.Error()
	}

	status := "healthy"
	if !dbHealthy {
		status = "unhealthy"
	}

	response := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"database": gin.H{
			"healthy": dbHealthy,
			"error":   dbError,
		},
	}

	if !dbHealthy {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
