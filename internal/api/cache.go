package api

import (
	"time"

	"github.com/banko-ai/banko-backend/internal/models"
	"github.com/banko-ai/banko-backend/internal/services/cache"
	"github.com/banko-ai/banko-backend/internal/services/request"
	"github.com/banko-ai/banko-backend/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const defaultStatsWindowHours = 24

// CacheHandler exposes the operator surface of the cache: effectiveness
// statistics and on-demand cleanup.
type CacheHandler struct {
	cacheSvc *cache.Service
	reqSvc   *request.BaseService
	respSvc  *response.BaseService
}

// NewCacheHandler creates the cache operations handler.
func NewCacheHandler(cacheSvc *cache.Service, reqSvc *request.BaseService, respSvc *response.BaseService) *CacheHandler {
	return &CacheHandler{
		cacheSvc: cacheSvc,
		reqSvc:   reqSvc,
		respSvc:  respSvc,
	}
}

// Stats reports per-layer and aggregate cache effectiveness over a trailing
// window. The window defaults to 24 hours; ?window_hours=N overrides it.
func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	requestID := h.reqSvc.GetRequestID(c)

	windowHours := c.QueryInt("window_hours", defaultStatsWindowHours)
	if windowHours <= 0 {
		return h.respSvc.Error(c, fiber.StatusBadRequest, "window_hours must be positive", string(models.ErrorTypeValidation), "INVALID_WINDOW")
	}

	stats, err := h.cacheSvc.Stats.Aggregate(c.UserContext(), time.Duration(windowHours)*time.Hour)
	if err != nil {
		sanitized := models.SanitizeError(err)
		fiberlog.Errorf("[%s] CacheStats: aggregation failed: %v", requestID, err)
		return h.respSvc.Error(c, sanitized.GetStatusCode(), sanitized.Message, string(sanitized.Type), sanitized.Code)
	}

	return h.respSvc.Success(c, stats)
}

// Cleanup sweeps expired entries from every cache table and reports per-layer
// removal counts.
func (h *CacheHandler) Cleanup(c *fiber.Ctx) error {
	requestID := h.reqSvc.GetRequestID(c)

	result, err := h.cacheSvc.Cleaner.Cleanup(c.UserContext())
	if err != nil {
		sanitized := models.SanitizeError(err)
		fiberlog.Errorf("[%s] CacheCleanup: sweep failed: %v", requestID, err)
		return h.respSvc.Error(c, sanitized.GetStatusCode(), sanitized.Message, string(sanitized.Type), sanitized.Code)
	}

	fiberlog.Infof("[%s] CacheCleanup: removed %d expired entries", requestID, result.Total())
	return h.respSvc.Success(c, fiber.Map{
		"removed": result,
		"total":   result.Total(),
	})
}
