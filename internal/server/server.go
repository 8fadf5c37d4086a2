// Package server exposes the prediction engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"cardiorisk/internal/api"
	"cardiorisk/internal/features"
	"cardiorisk/internal/metrics"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/predictor"
	"cardiorisk/internal/storage"
)

// Predictor scores a profile.
type Predictor interface {
	Predict(profile features.Profile, modelType string) (*predictor.Result, error)
}

// ModelSource resolves bundles and the artifact manifest. *ml.Registry satisfies it.
type ModelSource interface {
	Load(modelType string) (*ml.Bundle, error)
	Manifest() (*ml.Manifest, error)
}

// Store persists prediction records. *storage.Store satisfies it.
type Store interface {
	SavePrediction(rec storage.Record) (string, error)
	GetPrediction(id string) (storage.Record, error)
	ListPredictions(limit int) ([]storage.Record, error)
	DeletePrediction(id string) error
}

type Config struct {
	Port           int
	RequestTimeout time.Duration
	HistoryLimit   int
}

// Server provides the HTTP API for risk predictions
type Server struct {
	cfg       Config
	predictor Predictor
	models    ModelSource
	store     Store
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer

	engine *gin.Engine
	server *http.Server
}

type Option func(*Server)

// WithStore enables the prediction history endpoints.
func WithStore(s Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithMetrics records HTTP and persistence metrics into m and serves the
// gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(srv *Server) {
		srv.metrics = m
		srv.gatherer = g
	}
}

func New(cfg Config, p Predictor, models ModelSource, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		predictor: p,
		models:    models,
		gatherer:  prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.HistoryLimit <= 0 {
		s.cfg.HistoryLimit = 50
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.observe(), timeout(s.cfg.RequestTimeout))
	s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET(api.PathHealth, s.handleHealth)
	s.engine.GET(api.PathMetrics, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/predict", s.handlePredict)
		v1.GET("/models/:type", s.handleModel)

		history := v1.Group("/predictions", s.requireStore)
		history.GET("", s.handleListPredictions)
		history.GET("/:id", s.handleGetPrediction)
		history.DELETE("/:id", s.handleDeletePrediction)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Start begins serving HTTP requests
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Bool("persistence", s.store != nil).Msg("Starting risk API server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.Health{
		Status:      "ok",
		Persistence: s.store != nil,
		Time:        time.Now().UTC(),
	})
}

func abort(c *gin.Context, status int, message string, err error, kind string) {
	body := api.ErrorResponse{Status: "error", Message: message, Kind: kind}
	if err != nil {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// statusFor maps a prediction error to an HTTP status.
func statusFor(err error) (int, string) {
	switch kind := predictor.Kind(err); kind {
	case predictor.KindInput:
		return http.StatusBadRequest, kind
	default:
		return http.StatusInternalServerError, kind
	}
}
