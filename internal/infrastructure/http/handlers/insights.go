// Package handlers provides the gin handlers for the insight API
package handlers

import (
	"net/http"
	"strconv"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/ports/inbound"
	"github.com/alchemorsel/pantry/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InsightHandlers serves one pipeline per endpoint and returns the report
// verbatim, paginating only its primary list.
type InsightHandlers struct {
	service inbound.InsightService
	logger  *zap.Logger
}

// NewInsightHandlers creates the insight handlers
func NewInsightHandlers(service inbound.InsightService, logger *zap.Logger) *InsightHandlers {
	return &InsightHandlers{
		service: service,
		logger:  logger.Named("insight-handlers"),
	}
}

// Register mounts the routes under /users/:id/insights
func (h *InsightHandlers) Register(r gin.IRouter) {
	g := r.Group("/users/:id/insights")
	g.GET("/expiration", h.PredictExpiration)
	g.GET("/nutrients", h.PredictNutrientGaps)
	g.GET("/patterns", h.AnalyzePatterns)
	g.GET("/impact", h.ScoreImpact)
	g.GET("/shopping", h.OptimizeShopping)
}

type userURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// insightQuery is shared by every endpoint; horizon only applies to shopping
type insightQuery struct {
	Window  int    `form:"window" binding:"omitempty,min=1,max=365"`
	Horizon string `form:"horizon" binding:"omitempty,oneof=weekly monthly"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

type request struct {
	userID uuid.UUID
	query  insightQuery
}

func (h *InsightHandlers) bind(c *gin.Context) (*request, bool) {
	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		_ = c.Error(errors.NewValidationError("user id must be a UUID"))
		return nil, false
	}
	var query insightQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(errors.NewValidationError(err.Error()))
		return nil, false
	}
	return &request{userID: uuid.MustParse(uri.ID), query: query}, true
}

// PredictExpiration handles GET /users/:id/insights/expiration
func (h *InsightHandlers) PredictExpiration(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	report, err := h.service.PredictExpiration(c.Request.Context(), req.userID, req.query.Window)
	if err != nil {
		_ = c.Error(err)
		return
	}
	report.Items = paginate(c, report.Items, req.query)
	c.JSON(http.StatusOK, report)
}

// PredictNutrientGaps handles GET /users/:id/insights/nutrients
func (h *InsightHandlers) PredictNutrientGaps(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	report, err := h.service.PredictNutrientGaps(c.Request.Context(), req.userID, req.query.Window)
	if err != nil {
		_ = c.Error(err)
		return
	}
	report.Gaps = paginate(c, report.Gaps, req.query)
	c.JSON(http.StatusOK, report)
}

// AnalyzePatterns handles GET /users/:id/insights/patterns
func (h *InsightHandlers) AnalyzePatterns(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	report, err := h.service.AnalyzePatterns(c.Request.Context(), req.userID, req.query.Window)
	if err != nil {
		_ = c.Error(err)
		return
	}
	report.Categories = paginate(c, report.Categories, req.query)
	c.JSON(http.StatusOK, report)
}

// ScoreImpact handles GET /users/:id/insights/impact
func (h *InsightHandlers) ScoreImpact(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	report, err := h.service.ScoreImpact(c.Request.Context(), req.userID, req.query.Window)
	if err != nil {
		_ = c.Error(err)
		return
	}
	report.Items = paginate(c, report.Items, req.query)
	c.JSON(http.StatusOK, report)
}

// OptimizeShopping handles GET /users/:id/insights/shopping
func (h *InsightHandlers) OptimizeShopping(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	horizon := food.BudgetPeriod(req.query.Horizon)
	report, err := h.service.OptimizeShopping(c.Request.Context(), req.userID, req.query.Window, horizon)
	if err != nil {
		_ = c.Error(err)
		return
	}
	report.Allocations = paginate(c, report.Allocations, req.query)
	c.JSON(http.StatusOK, report)
}

// paginate slices an already computed list and reports its full length in
// X-Total-Count. Without a limit the list is returned whole.
func paginate[T any](c *gin.Context, items []T, q insightQuery) []T {
	total := len(items)
	c.Header("X-Total-Count", strconv.Itoa(total))
	if q.Limit == 0 && q.Offset == 0 {
		return items
	}

	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < total {
		end = start + q.Limit
	}
	return items[start:end]
}
