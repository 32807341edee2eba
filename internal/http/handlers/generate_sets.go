package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/northlane/contentpool/internal/config"
	"github.com/northlane/contentpool/internal/http/response"
	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/temporalx/buildsets"
)

// GenerateSetsHandler triggers an asynchronous Set Builder run (spec
// §6 POST /api/generate-sets). The HTTP handler only starts the
// workflow; it does not wait for it to finish.
type GenerateSetsHandler struct {
	temporal  temporalsdkclient.Client
	taskQueue string
	categories *config.CategoryTable
	log       *logger.Logger
}

func NewGenerateSetsHandler(tc temporalsdkclient.Client, taskQueue string, categories *config.CategoryTable, log *logger.Logger) *GenerateSetsHandler {
	return &GenerateSetsHandler{temporal: tc, taskQueue: taskQueue, categories: categories, log: log.With("handler", "GenerateSets")}
}

type generateSetsRequest struct {
	CategoryIDs        []string `json:"categoryIds"`
	NumSetsPerCategory int      `json:"numSetsPerCategory"`
	ItemsPerSet        int      `json:"itemsPerSet"`
}

type generateSetsResponse struct {
	Accepted   bool               `json:"accepted"`
	WorkflowID string             `json:"workflowId"`
	Params     buildsets.Params   `json:"params"`
}

func (h *GenerateSetsHandler) GenerateSets(c *gin.Context) {
	if h.temporal == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "temporal_unavailable", fmt.Errorf("generate-sets is disabled: TEMPORAL_ADDRESS not configured"))
		return
	}

	var req generateSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if req.NumSetsPerCategory <= 0 {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("numSetsPerCategory must be positive"))
		return
	}
	if req.ItemsPerSet <= 0 {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("itemsPerSet must be positive"))
		return
	}

	categoryIDs := req.CategoryIDs
	if len(categoryIDs) == 0 && h.categories != nil {
		categoryIDs = h.categories.All()
	}
	if len(categoryIDs) == 0 {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmt.Errorf("categoryIds must be non-empty and no category table is configured to default from"))
		return
	}

	params := buildsets.Params{
		CategoryIDs:        categoryIDs,
		NumSetsPerCategory: req.NumSetsPerCategory,
		ItemsPerSet:        req.ItemsPerSet,
	}

	workflowID := "buildsets-" + uuid.New().String()
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                h.taskQueue,
		WorkflowExecutionTimeout: time.Hour,
	}
	if _, err := h.temporal.ExecuteWorkflow(c.Request.Context(), opts, buildsets.WorkflowName, params); err != nil {
		h.log.Error("failed to start buildsets workflow", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "workflow_start_failed", err)
		return
	}

	c.JSON(http.StatusAccepted, generateSetsResponse{
		Accepted:   true,
		WorkflowID: workflowID,
		Params:     params,
	})
}
