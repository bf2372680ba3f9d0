package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/dossier-backend/internal/config"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/requestdata"
	"github.com/yungbote/dossier-backend/internal/services"
	"github.com/yungbote/dossier-backend/internal/types"
)

type ReviewHandler struct {
	log            *logger.Logger
	limits         config.Limits
	dossierService services.DossierService
	reviewService  services.ReviewService
	ledgerService  services.LedgerService
}

func NewReviewHandler(log *logger.Logger, limits config.Limits, dsvc services.DossierService, rsvc services.ReviewService, lsvc services.LedgerService) *ReviewHandler {
	return &ReviewHandler{
		log:            log.With("handler", "ReviewHandler"),
		limits:         limits,
		dossierService: dsvc,
		reviewService:  rsvc,
		ledgerService:  lsvc,
	}
}

type citationPayload struct {
	SourceID string `json:"sourceId"`
	Quote    string `json:"quote"`
	Locator  string `json:"locator"`
}

type reviewItemPayload struct {
	ClaimID string `json:"claimId"`
	Verdict string `json:"verdict"`
	// Rationale accepts either a single string or a list of strings.
	Rationale json.RawMessage    `json:"rationale"`
	Citations *[]citationPayload `json:"citations"`
}

type reviewBatchPayload struct {
	Items []reviewItemPayload `json:"items"`
}

// POST /api/dossiers/:dossierId/review
// Applies a batch of editor verdicts. Shape problems reject the request
// before any write; item-level problems come back as per-item warnings.
func (h *ReviewHandler) SubmitBatch(c *gin.Context) {
	dossierID, err := uuid.Parse(c.Param("dossierId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dossier_id", fmt.Errorf("invalid dossier id"))
		return
	}

	ctx := c.Request.Context()
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", fmt.Errorf("missing identity"))
		return
	}

	var payload reviewBatchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	items, err := buildReviewItems(payload, h.limits)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_failed", err)
		return
	}

	dossier, err := h.dossierService.Get(ctx, dossierID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if dossier == nil {
		RespondError(c, http.StatusNotFound, "dossier_not_found", fmt.Errorf("dossier not found"))
		return
	}

	role, err := h.dossierService.MemberRole(ctx, dossierID, rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if !types.CanReview(role) {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("dossier editor or admin role required"))
		return
	}

	actor := requestdata.Actor{UserID: rd.UserID, Role: role}
	result, err := h.reviewService.ApplyBatch(ctx, dossierID, actor, items)
	if err != nil {
		h.log.Error("Review batch failed", "dossier_id", dossierID, "error", err)
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"ok":     true,
		"items":  result.Items,
		"counts": result.Counts,
	})
}

// GET /api/dossiers/:dossierId/history/:entityId
// Revision history for one entity, oldest first. Any dossier member may read.
func (h *ReviewHandler) GetHistory(c *gin.Context) {
	dossierID, err := uuid.Parse(c.Param("dossierId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dossier_id", fmt.Errorf("invalid dossier id"))
		return
	}
	entityID := c.Param("entityId")
	if entityID == "" {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", fmt.Errorf("entity id required"))
		return
	}

	ctx := c.Request.Context()
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", fmt.Errorf("missing identity"))
		return
	}
	role, err := h.dossierService.MemberRole(ctx, dossierID, rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if role == "" {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("dossier membership required"))
		return
	}

	limit := 200
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	revisions, err := h.ledgerService.History(ctx, dossierID, entityID, limit)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true, "revisions": revisions})
}

// buildReviewItems is the structural gate: anything it rejects fails the
// whole request before the synchronizer runs. Length caps are not enforced
// here; oversized values get clamped downstream.
func buildReviewItems(payload reviewBatchPayload, limits config.Limits) ([]services.ReviewItem, error) {
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("items must be a non-empty list")
	}
	if limits.MaxBatchItems > 0 && len(payload.Items) > limits.MaxBatchItems {
		return nil, fmt.Errorf("items exceeds the maximum of %d per batch", limits.MaxBatchItems)
	}

	out := make([]services.ReviewItem, 0, len(payload.Items))
	for i, item := range payload.Items {
		if item.ClaimID == "" {
			return nil, fmt.Errorf("items[%d]: claimId is required", i)
		}
		if item.Verdict == "" {
			return nil, fmt.Errorf("items[%d]: verdict is required", i)
		}
		if !types.ValidVerdict(item.Verdict) {
			return nil, fmt.Errorf("items[%d]: verdict must be one of supports, refutes, mixed, unclear", i)
		}

		rationale, rationaleProvided, err := parseRationale(item.Rationale)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}

		var citations []types.CitationRef
		citationsProvided := item.Citations != nil
		if citationsProvided {
			citations = make([]types.CitationRef, 0, len(*item.Citations))
			for j, cit := range *item.Citations {
				if cit.SourceID == "" {
					return nil, fmt.Errorf("items[%d].citations[%d]: sourceId is required", i, j)
				}
				citations = append(citations, types.CitationRef{
					SourceID: cit.SourceID,
					Quote:    cit.Quote,
					Locator:  cit.Locator,
				})
			}
		}

		out = append(out, services.ReviewItem{
			ClaimID:           item.ClaimID,
			Verdict:           item.Verdict,
			Rationale:         rationale,
			RationaleProvided: rationaleProvided,
			Citations:         citations,
			CitationsProvided: citationsProvided,
		})
	}
	return out, nil
}

// parseRationale accepts a JSON string or a JSON array of strings. An absent
// or null rationale means "keep the stored one".
func parseRationale(raw json.RawMessage) ([]string, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, true, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true, nil
	}
	return nil, false, fmt.Errorf("rationale must be a string or a list of strings")
}
