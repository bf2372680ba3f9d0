package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/requestdata"
	"github.com/yungbote/dossier-backend/internal/services"
)

type DossierHandler struct {
	log            *logger.Logger
	dossierService services.DossierService
}

func NewDossierHandler(log *logger.Logger, dsvc services.DossierService) *DossierHandler {
	return &DossierHandler{
		log:            log.With("handler", "DossierHandler"),
		dossierService: dsvc,
	}
}

// resolveMember parses the dossier id and requires any dossier membership.
func (h *DossierHandler) resolveMember(c *gin.Context) (uuid.UUID, bool) {
	dossierID, err := uuid.Parse(c.Param("dossierId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_dossier_id", fmt.Errorf("invalid dossier id"))
		return uuid.Nil, false
	}
	ctx := c.Request.Context()
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthenticated", fmt.Errorf("missing identity"))
		return uuid.Nil, false
	}
	role, err := h.dossierService.MemberRole(ctx, dossierID, rd.UserID)
	if err != nil {
		RespondAPIError(c, err)
		return uuid.Nil, false
	}
	if role == "" {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("dossier membership required"))
		return uuid.Nil, false
	}
	return dossierID, true
}

// GET /api/dossiers/:dossierId
func (h *DossierHandler) GetDossier(c *gin.Context) {
	dossierID, ok := h.resolveMember(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	dossier, err := h.dossierService.Get(ctx, dossierID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if dossier == nil {
		RespondError(c, http.StatusNotFound, "dossier_not_found", fmt.Errorf("dossier not found"))
		return
	}
	counts, err := h.dossierService.Counts(ctx, dossierID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true, "dossier": dossier, "counts": counts})
}

// GET /api/dossiers/:dossierId/claims
func (h *DossierHandler) ListClaims(c *gin.Context) {
	dossierID, ok := h.resolveMember(c)
	if !ok {
		return
	}
	claims, err := h.dossierService.Claims(c.Request.Context(), dossierID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true, "claims": claims})
}

// GET /api/dossiers/:dossierId/graph?active=true
func (h *DossierHandler) GetGraph(c *gin.Context) {
	dossierID, ok := h.resolveMember(c)
	if !ok {
		return
	}
	activeOnly := c.Query("active") == "true"
	snapshot, err := h.dossierService.Graph(c.Request.Context(), dossierID, activeOnly)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true, "graph": snapshot})
}
