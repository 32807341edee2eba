package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/northlane/contentpool/internal/data/repos/catalog"
	"github.com/northlane/contentpool/internal/data/repos/contentstore"
	"github.com/northlane/contentpool/internal/domain"
	"github.com/northlane/contentpool/internal/http/response"
	"github.com/northlane/contentpool/internal/platform/dbctx"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// LastAssignedLedger is the subset of the Allocation Ledger the merge
// surface needs: the set most recently handed to a user for a category.
type LastAssignedLedger interface {
	LastAssigned(ctx context.Context, userID, categoryID string) (string, error)
}

// MergeHandler joins the Allocator's most recent answer for each
// category with the Set Catalog and Content Store to materialize the
// actual content payloads (spec §6 POST /api/merge, "surface only").
type MergeHandler struct {
	ledger  LastAssignedLedger
	catalog catalog.Repo
	store   contentstore.Repo
	log     *logger.Logger
}

func NewMergeHandler(ledger LastAssignedLedger, catalogRepo catalog.Repo, store contentstore.Repo, log *logger.Logger) *MergeHandler {
	return &MergeHandler{ledger: ledger, catalog: catalogRepo, store: store, log: log.With("handler", "Merge")}
}

type mergeRequest struct {
	UserID      string   `json:"userId"`
	CategoryIDs []string `json:"categoryIds"`
}

type mergeItem struct {
	ID      string          `json:"id"`
	Hash    string          `json:"hash"`
	Payload json.RawMessage `json:"payload"`
}

type mergeCategoryResult struct {
	SetID     string      `json:"setId,omitempty"`
	ItemCount int         `json:"itemCount"`
	Items     []mergeItem `json:"items"`
}

type mergeResponse struct {
	UserID      string                         `json:"userId"`
	Categories  map[string]mergeCategoryResult `json:"categories"`
	AllItems    []mergeItem                    `json:"allItems"`
}

func (h *MergeHandler) Merge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if req.UserID == "" {
		response.RespondError(c, http.StatusBadRequest, "validation_error", errors.New("userId is required"))
		return
	}
	if len(req.CategoryIDs) == 0 {
		response.RespondError(c, http.StatusBadRequest, "validation_error", errors.New("categoryIds must be a non-empty array"))
		return
	}

	ctx := c.Request.Context()
	dctx := dbctx.From(ctx)

	out := mergeResponse{
		UserID:     req.UserID,
		Categories: make(map[string]mergeCategoryResult, len(req.CategoryIDs)),
		AllItems:   []mergeItem{},
	}

	for _, categoryID := range req.CategoryIDs {
		setIDStr, err := h.ledger.LastAssigned(ctx, req.UserID, categoryID)
		if err != nil {
			h.log.Error("merge: last-assigned lookup failed", "user", req.UserID, "category", categoryID, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "ledger_unavailable", err)
			return
		}
		if setIDStr == "" {
			out.Categories[categoryID] = mergeCategoryResult{Items: []mergeItem{}}
			continue
		}

		setID, err := uuid.Parse(setIDStr)
		if err != nil {
			h.log.Error("merge: malformed set id in ledger", "user", req.UserID, "category", categoryID, "setId", setIDStr)
			out.Categories[categoryID] = mergeCategoryResult{Items: []mergeItem{}}
			continue
		}

		set, err := h.catalog.Get(dctx, setID)
		if err != nil {
			h.log.Error("merge: catalog lookup failed", "user", req.UserID, "category", categoryID, "setId", setIDStr, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "catalog_unavailable", err)
			return
		}

		refs, err := set.ItemRefs()
		if err != nil {
			h.log.Error("merge: set refs decode failed", "setId", setIDStr, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "invariant_violation", err)
			return
		}

		ids := make([]string, len(refs))
		for i, ref := range refs {
			ids[i] = ref.ID
		}
		items, err := h.store.GetBatch(dctx, ids)
		if err != nil {
			h.log.Error("merge: content store lookup failed", "setId", setIDStr, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "content_store_unavailable", err)
			return
		}
		itemsByID := make(map[string]domain.Item, len(items))
		for _, item := range items {
			itemsByID[item.ID] = item
		}

		catItems := make([]mergeItem, 0, len(refs))
		for _, ref := range refs {
			item, ok := itemsByID[ref.ID]
			if !ok {
				continue
			}
			mi := mergeItem{ID: item.ID, Hash: item.Hash, Payload: json.RawMessage(item.Payload)}
			catItems = append(catItems, mi)
			out.AllItems = append(out.AllItems, mi)
		}

		out.Categories[categoryID] = mergeCategoryResult{
			SetID:     setIDStr,
			ItemCount: len(catItems),
			Items:     catItems,
		}
	}

	response.RespondOK(c, out)
}
