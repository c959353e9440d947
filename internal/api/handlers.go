package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rendis/mealspin/internal/engine/discovery"
	"github.com/rendis/mealspin/internal/engine/draw"
	"github.com/rendis/mealspin/internal/engine/provider"
	"github.com/rendis/mealspin/internal/engine/selection"
	"github.com/rendis/mealspin/internal/model"
)

type discoverRequest struct {
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	RadiusM            float64 `json:"radius_m" binding:"required,gt=0"`
	InPerson           bool    `json:"in_person"`
	Delivery           bool    `json:"delivery"`
	Target             int     `json:"target" binding:"omitempty,gte=0,lte=100"`
	Keyword            string  `json:"keyword"`
	MaxDeliveryMinutes int     `json:"max_delivery_minutes"`
}

type selectionResponse struct {
	RunID     string                  `json:"run_id"`
	PoolSize  int                     `json:"pool_size"`
	Selection []model.Venue           `json:"selection"`
	Stats     discovery.StatsSnapshot `json:"stats"`
}

type spinRequest struct {
	RunID      string        `json:"run_id"`
	Candidates []model.Venue `json:"candidates"`
}

type spinResponse struct {
	draw.State
	Winner model.Venue `json:"winner"`
}

type shortlistRequest struct {
	AddedBy string      `json:"added_by"`
	Venue   model.Venue `json:"venue"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// discover handles POST /discover.
func (s *Server) discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.engine.Discover(c.Request.Context(), model.SearchParams{
		Center:             model.GeoPoint{Lat: req.Lat, Lng: req.Lng},
		Radius:             req.RadiusM,
		WantInPerson:       req.InPerson,
		WantDelivery:       req.Delivery,
		Target:             req.Target,
		Keyword:            req.Keyword,
		MaxDeliveryMinutes: req.MaxDeliveryMinutes,
	}, nil)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.runs.put(res)
	c.JSON(http.StatusCreated, selectionResponse{
		RunID:     res.RunID,
		PoolSize:  res.PoolSize,
		Selection: res.Selection,
		Stats:     res.Stats,
	})
}

func (s *Server) getRun(c *gin.Context) {
	r, ok := s.runs.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, selectionResponse{
		RunID:     r.result.RunID,
		PoolSize:  r.result.PoolSize,
		Selection: r.current(),
		Stats:     r.result.Stats,
	})
}

// refresh handles POST /runs/:id/refresh: a new wheel from the same pool,
// preferring venues not shown yet.
func (s *Server) refresh(c *gin.Context) {
	r, ok := s.runs.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	p := r.result.Params
	sel := r.history.Refresh(selection.Selector{
		Target:   p.Target,
		Excluded: s.engine.Config().ExcludedCategory,
	}, r.result.Pool, p.WantInPerson, p.WantDelivery)
	r.replace(sel)

	c.JSON(http.StatusOK, selectionResponse{
		RunID:     r.result.RunID,
		PoolSize:  r.result.PoolSize,
		Selection: sel,
		Stats:     r.result.Stats,
	})
}

// spin handles POST /spin for either a cached run or explicit candidates.
func (s *Server) spin(c *gin.Context) {
	var req spinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidates := req.Candidates
	if req.RunID != "" {
		r, ok := s.runs.get(req.RunID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		candidates = r.current()
	}

	st, err := draw.Spin(candidates)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.ObserveSpin()
	c.JSON(http.StatusOK, spinResponse{State: st, Winner: st.Winner()})
}

func (s *Server) addShortlist(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no database configured"})
		return
	}
	var req shortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := s.engine.AddToShortlist(c.Request.Context(), s.store, c.Param("group"), req.AddedBy, req.Venue)
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"added": added})
}

func (s *Server) listShortlist(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no database configured"})
		return
	}
	entries, err := s.store.ListShortlist(c.Request.Context(), c.Param("group"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": c.Param("group"), "entries": entries})
}

// fail maps engine errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, discovery.ErrInvalidRequest), errors.Is(err, discovery.ErrInvalidShortlist):
		status = http.StatusBadRequest
	case errors.Is(err, draw.ErrNoCandidates):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, provider.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
