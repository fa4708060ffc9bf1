// Package server exposes the calculator over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reimburse/internal/cache"
	"reimburse/internal/calculator"
	"reimburse/internal/models"
	"reimburse/internal/store"
)

// ParameterStore is the subset of the store the API needs.
type ParameterStore interface {
	SaveParameters(ctx context.Context, p *calculator.Parameters, source string, mae *float64) (*store.ParameterSet, error)
	GetParameters(ctx context.Context, version string) (*store.ParameterSet, error)
	ListParameters(ctx context.Context, limit int) ([]*store.ParameterSet, error)
}

type Options struct {
	APIKey   string
	MaxBatch int
	// Cache, Store and Model are optional.
	Cache  cache.Cache
	Store  ParameterStore
	Model  models.Model
	Logger *zap.Logger
}

type Server struct {
	calc   *calculator.Calculator
	opts   Options
	logger *zap.Logger
}

func New(calc *calculator.Calculator, opts Options) *Server {
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 5000
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{calc: calc, opts: opts, logger: logger}
}

// Router builds the gin engine. Everything except /healthz sits behind the
// API key when one is configured.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger)

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/")
	api.Use(s.apiKeyMiddleware)
	api.POST("/calculate", s.handleCalculate)
	api.POST("/batch", s.handleBatch)
	api.POST("/predict", s.handlePredict)
	api.GET("/parameters", s.handleGetParameters)
	api.PUT("/parameters", s.handlePutParameters)
	api.GET("/parameters/history", s.handleHistory)
	api.POST("/parameters/activate/:version", s.handleActivate)
	return r
}

func (s *Server) apiKeyMiddleware(c *gin.Context) {
	if s.opts.APIKey == "" {
		c.Next()
		return
	}
	if c.GetHeader("X-API-Key") != s.opts.APIKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
	)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.calc.Parameters().Version})
}
