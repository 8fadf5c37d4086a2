package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"cardiorisk/internal/api"
	"cardiorisk/internal/ml"
	"cardiorisk/internal/predictor"
	"cardiorisk/internal/storage"
)

type outcome struct {
	res *predictor.Result
	err error
}

func (s *Server) handlePredict(c *gin.Context) {
	var req api.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body", err, predictor.KindInput)
		return
	}
	if err := req.Profile.Validate(); err != nil {
		abort(c, http.StatusBadRequest, "Invalid profile", err, predictor.KindInput)
		return
	}

	// Scoring is synchronous; run it aside so the request deadline can fire.
	done := make(chan outcome, 1)
	go func() {
		res, err := s.predictor.Predict(req.Profile, req.ModelType)
		done <- outcome{res, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-c.Request.Context().Done():
		abort(c, http.StatusGatewayTimeout, "Prediction timed out", c.Request.Context().Err(), "")
		return
	}
	if out.err != nil {
		status, kind := statusFor(out.err)
		abort(c, status, "Prediction failed", out.err, kind)
		return
	}

	resp := api.PredictResponse{Result: out.res}
	if s.store != nil {
		id, err := s.store.SavePrediction(storage.Record{Profile: req.Profile, Result: *out.res})
		if err != nil {
			log.Error().Err(err).Msg("Failed to store prediction")
		} else {
			resp.ID = id
			if s.metrics != nil {
				s.metrics.PredictionsStored.Inc()
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleModel(c *gin.Context) {
	bundle, err := s.models.Load(c.Param("type"))
	if err != nil {
		status, kind := statusFor(err)
		abort(c, status, "Model unavailable", err, kind)
		return
	}

	manifest, err := s.models.Manifest()
	if err != nil {
		log.Warn().Err(err).Msg("Manifest unreadable")
	}
	c.JSON(http.StatusOK, api.NewModelInfo(bundle, manifest))
}

func (s *Server) handleListPredictions(c *gin.Context) {
	limit := s.cfg.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abort(c, http.StatusBadRequest, "Invalid limit", fmt.Errorf("limit must be a positive integer, got %q", raw), predictor.KindInput)
			return
		}
		if n < limit {
			limit = n
		}
	}

	records, err := s.store.ListPredictions(limit)
	if err != nil {
		abort(c, http.StatusInternalServerError, "Failed to list predictions", err, predictor.KindInternal)
		return
	}
	c.JSON(http.StatusOK, api.PredictionList{Predictions: records, Count: len(records)})
}

func (s *Server) handleGetPrediction(c *gin.Context) {
	rec, err := s.store.GetPrediction(c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeletePrediction(c *gin.Context) {
	if err := s.store.DeletePrediction(c.Param("id")); err != nil {
		s.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		abort(c, http.StatusNotFound, "Prediction not found", err, "")
		return
	}
	abort(c, http.StatusInternalServerError, "Storage failure", err, predictor.KindInternal)
}

// compile-time checks
var (
	_ ModelSource = (*ml.Registry)(nil)
	_ Store       = (*storage.Store)(nil)
	_ Predictor   = (*predictor.Predictor)(nil)
)
