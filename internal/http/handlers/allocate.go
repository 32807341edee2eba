package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northlane/contentpool/internal/allocator"
	"github.com/northlane/contentpool/internal/config"
	"github.com/northlane/contentpool/internal/http/response"
	"github.com/northlane/contentpool/internal/platform/apierr"
	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/platform/poolerr"
)

type AllocateHandler struct {
	allocator  *allocator.Allocator
	categories *config.CategoryTable
	log        *logger.Logger
}

func NewAllocateHandler(alloc *allocator.Allocator, categories *config.CategoryTable, log *logger.Logger) *AllocateHandler {
	return &AllocateHandler{allocator: alloc, categories: categories, log: log.With("handler", "Allocate")}
}

type allocateRequest struct {
	UserID      string   `json:"userId"`
	CategoryIDs []string `json:"categoryIds"`
}

type allocateSummary struct {
	Requested  int `json:"requested"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type allocateResponse struct {
	UserID     string            `json:"userId"`
	Successful map[string]string `json:"successful"`
	Failed     map[string]string `json:"failed"`
	Summary    allocateSummary   `json:"summary"`
}

// Allocate handles POST /api/allocate (spec §6).
func (h *AllocateHandler) Allocate(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.validate(req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	result := h.allocator.AllocateBatch(c.Request.Context(), req.UserID, req.CategoryIDs)

	c.JSON(http.StatusOK, allocateResponse{
		UserID:     result.UserID,
		Successful: result.Successful,
		Failed:     result.Failed,
		Summary: allocateSummary{
			Requested:  len(req.CategoryIDs),
			Successful: len(result.Successful),
			Failed:     len(result.Failed),
		},
	})
}

func (h *AllocateHandler) validate(req allocateRequest) error {
	if req.UserID == "" {
		return errors.New("userId is required")
	}
	if len(req.CategoryIDs) == 0 {
		return errors.New("categoryIds must be a non-empty array")
	}
	if h.categories == nil {
		return nil
	}
	for _, categoryID := range req.CategoryIDs {
		if !h.categories.Known(categoryID) {
			return apierr.New(http.StatusBadRequest, "unknown_category", errWithCategory(categoryID))
		}
	}
	return nil
}

func errWithCategory(categoryID string) error {
	return errors.Join(poolerr.ErrValidation, errors.New("unknown category id: "+categoryID))
}
