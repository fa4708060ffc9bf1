package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reimburse/internal/cache"
	"reimburse/internal/calculator"
	"reimburse/internal/evaluate"
	"reimburse/internal/store"
)

type tripRequest struct {
	Days     *int     `json:"trip_duration_days"`
	Miles    *float64 `json:"miles_traveled"`
	Receipts *float64 `json:"total_receipts_amount"`
}

func (r tripRequest) trip() (calculator.Trip, error) {
	if r.Days == nil || r.Miles == nil || r.Receipts == nil {
		return calculator.Trip{}, errors.New("trip_duration_days, miles_traveled and total_receipts_amount are required")
	}
	if *r.Miles < 0 || *r.Receipts < 0 || math.IsInf(*r.Miles, 0) || math.IsInf(*r.Receipts, 0) {
		return calculator.Trip{}, errors.New("miles_traveled and total_receipts_amount must be finite and non-negative")
	}
	return calculator.Trip{Days: *r.Days, Miles: *r.Miles, Receipts: *r.Receipts}, nil
}

type amountResponse struct {
	Reimbursement float64 `json:"reimbursement"`
	Version       string  `json:"version"`
	Cached        bool    `json:"cached"`
}

// amount scores t against one parameter snapshot, going through the cache
// when configured. fp is the snapshot's fingerprint.
func (s *Server) amount(c *gin.Context, p *calculator.Parameters, fp string, t calculator.Trip) amountResponse {
	if s.opts.Cache == nil {
		return amountResponse{Reimbursement: calculator.Amount(t, p), Version: p.Version}
	}
	key := cache.Key(fp, t)
	if v, ok := s.opts.Cache.Get(c, key); ok {
		return amountResponse{Reimbursement: v, Version: p.Version, Cached: true}
	}
	v := calculator.Amount(t, p)
	if err := s.opts.Cache.Set(c, key, v); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return amountResponse{Reimbursement: v, Version: p.Version}
}

func (s *Server) handleCalculate(c *gin.Context) {
	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	t, err := req.trip()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, fp := s.calc.Snapshot()
	c.JSON(http.StatusOK, s.amount(c, p, fp, t))
}

func (s *Server) handleBatch(c *gin.Context) {
	var items []tripRequest
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(items) > s.opts.MaxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("batch of %d exceeds limit %d", len(items), s.opts.MaxBatch)})
		return
	}
	trips := make([]calculator.Trip, len(items))
	for i, it := range items {
		t, err := it.trip()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "index": i})
			return
		}
		trips[i] = t
	}
	// One snapshot for the whole batch.
	p, fp := s.calc.Snapshot()
	out := make([]amountResponse, len(trips))
	for i, t := range trips {
		out[i] = s.amount(c, p, fp, t)
	}
	c.JSON(http.StatusOK, gin.H{"version": p.Version, "results": out})
}

func (s *Server) handlePredict(c *gin.Context) {
	if s.opts.Model == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no model loaded"})
		return
	}
	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	t, err := req.trip()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pred := evaluate.ModelPredictor{Model: s.opts.Model}.Predict(t)
	formula := calculator.Amount(t, s.calc.Parameters())
	c.JSON(http.StatusOK, gin.H{
		"reimbursement": pred,
		"model":         s.opts.Model.Name(),
		"formula":       formula,
	})
}

func (s *Server) handleGetParameters(c *gin.Context) {
	p := s.calc.Parameters()
	c.JSON(http.StatusOK, gin.H{"version": p.Version, "params": p, "names": calculator.Names()})
}

// handlePutParameters installs a full parameter set. With a store the set is
// persisted first and a reused version is rejected.
func (s *Server) handlePutParameters(c *gin.Context) {
	var p calculator.Parameters
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if p.Version == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version is required"})
		return
	}
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.opts.Store != nil {
		if _, err := s.opts.Store.SaveParameters(c, &p, "api", nil); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			s.logger.Error("Failed to persist parameters", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist parameters"})
			return
		}
	}
	s.swap(c, &p)
}

func (s *Server) handleActivate(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no parameter store configured"})
		return
	}
	set, err := s.opts.Store.GetParameters(c, c.Param("version"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("Failed to load parameters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load parameters"})
		return
	}
	s.swap(c, set.Params)
}

func (s *Server) swap(c *gin.Context, p *calculator.Parameters) {
	prev, err := s.calc.Swap(p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("Parameters swapped", zap.String("from", prev.Version), zap.String("to", p.Version))
	c.JSON(http.StatusOK, gin.H{"previous": prev.Version, "version": p.Version})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.opts.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no parameter store configured"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	sets, err := s.opts.Store.ListParameters(c, limit)
	if err != nil {
		s.logger.Error("Failed to list parameters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list parameters"})
		return
	}
	items := make([]gin.H, len(sets))
	for i, set := range sets {
		items[i] = gin.H{"version": set.Version, "source": set.Source, "mae": set.MAE, "created_at": set.CreatedAt}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
