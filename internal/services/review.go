package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/config"
	"github.com/yungbote/dossier-backend/internal/graph"
	"github.com/yungbote/dossier-backend/internal/graphid"
	"github.com/yungbote/dossier-backend/internal/locks"
	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/observability"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/requestdata"
	"github.com/yungbote/dossier-backend/internal/types"
)

const (
	WarnClaimNotFound       = "claim_not_found"
	WarnSourceMissingPrefix = "source_missing:"
)

var reviewTracer = otel.Tracer("github.com/yungbote/dossier-backend/internal/services")

// ReviewItem is one editor verdict for one claim. The Provided flags
// distinguish "field omitted" (retain the prior finding's value) from "field
// sent empty" (clear it).
type ReviewItem struct {
	ClaimID           string
	Verdict           string
	Rationale         []string
	RationaleProvided bool
	Citations         []types.CitationRef
	CitationsProvided bool
}

type ItemResult struct {
	ClaimID  string   `json:"claimId"`
	Created  bool     `json:"created"`
	Warnings []string `json:"warnings"`
}

type BatchResult struct {
	Items  []ItemResult         `json:"items"`
	Counts *types.DossierCounts `json:"counts"`
}

// ReviewService applies editor verdict batches to the dossier graph: it
// upserts findings, re-derives claim statuses, archives superseded edges,
// activates current ones and writes one ledger entry per mutation.
type ReviewService interface {
	ApplyBatch(ctx context.Context, dossierID uuid.UUID, actor requestdata.Actor, items []ReviewItem) (*BatchResult, error)
}

type reviewService struct {
	db             *gorm.DB
	log            *logger.Logger
	limits         config.Limits
	locks          locks.KeyedLock
	claimRepo      repos.ClaimRepo
	sourceRepo     repos.SourceRepo
	findingRepo    repos.FindingRepo
	edgeRepo       repos.EdgeRepo
	ledger         LedgerService
	dossierService DossierService
	mirror         *graph.Mirror
}

func NewReviewService(
	db *gorm.DB,
	log *logger.Logger,
	limits config.Limits,
	keyedLock locks.KeyedLock,
	claimRepo repos.ClaimRepo,
	sourceRepo repos.SourceRepo,
	findingRepo repos.FindingRepo,
	edgeRepo repos.EdgeRepo,
	ledger LedgerService,
	dossierService DossierService,
	mirror *graph.Mirror,
) ReviewService {
	return &reviewService{
		db:             db,
		log:            log.With("service", "ReviewService"),
		limits:         limits,
		locks:          keyedLock,
		claimRepo:      claimRepo,
		sourceRepo:     sourceRepo,
		findingRepo:    findingRepo,
		edgeRepo:       edgeRepo,
		ledger:         ledger,
		dossierService: dossierService,
		mirror:         mirror,
	}
}

// ApplyBatch processes items sequentially. Item-level failures (unknown
// claim, missing sources) become warnings on that item and never abort
// siblings; only infrastructure errors fail the whole batch.
func (s *reviewService) ApplyBatch(ctx context.Context, dossierID uuid.UUID, actor requestdata.Actor, items []ReviewItem) (*BatchResult, error) {
	ctx, span := reviewTracer.Start(ctx, "review.ApplyBatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("dossier.id", dossierID.String()),
		attribute.Int("batch.items", len(items)),
	)

	results := make([]ItemResult, 0, len(items))
	warningTotal := 0
	for _, item := range items {
		res, err := s.applyItem(ctx, dossierID, actor, item)
		if err != nil {
			return nil, err
		}
		warningTotal += len(res.Warnings)
		results = append(results, res)
	}

	counts, err := s.dossierService.Counts(ctx, dossierID)
	if err != nil {
		return nil, err
	}

	if m := observability.Current(); m != nil {
		m.ObserveBatch(len(items), warningTotal)
	}

	// The mirror is best-effort: a neo4j outage never fails the request.
	if err := s.mirror.SyncDossier(ctx, dossierID); err != nil {
		s.log.Warn("Graph mirror sync failed", "dossier_id", dossierID, "error", err)
	}

	return &BatchResult{Items: results, Counts: counts}, nil
}

func (s *reviewService) applyItem(ctx context.Context, dossierID uuid.UUID, actor requestdata.Actor, item ReviewItem) (ItemResult, error) {
	res := ItemResult{ClaimID: item.ClaimID, Warnings: []string{}}

	// Serialize the whole item per (dossier, claim): the archive-then-upsert
	// edge sequence spans multiple writes and must not interleave with a
	// concurrent submission for the same claim.
	release, err := s.locks.Acquire(ctx, dossierID.String()+":"+item.ClaimID)
	if err != nil {
		return res, err
	}
	defer release()

	// Prior editor finding backs partial-update semantics: omitted fields
	// keep their stored values.
	prior, err := s.findingRepo.GetEditorFinding(ctx, nil, dossierID, item.ClaimID)
	if err != nil {
		return res, err
	}
	rationaleEntries := item.Rationale
	if !item.RationaleProvided && prior != nil {
		rationaleEntries = decodeRationale(prior.Rationale)
	}
	citations := item.Citations
	if !item.CitationsProvided && prior != nil {
		citations = decodeCitations(prior.Citations)
	}

	rationale := normalizeRationale(rationaleEntries, s.limits.MaxRationaleEntries, s.limits.MaxRationaleLen)
	citations = clampCitations(citations, s.limits.MaxQuoteLen, s.limits.MaxLocatorLen)

	valid, err := s.pruneUnknownSources(ctx, dossierID, citations, &res)
	if err != nil {
		return res, err
	}

	claim, err := s.claimRepo.GetByClaimID(ctx, nil, dossierID, item.ClaimID)
	if err != nil {
		return res, err
	}
	if claim == nil {
		res.Warnings = append(res.Warnings, WarnClaimNotFound)
		return res, nil
	}

	findingID := graphid.FindingID(item.ClaimID)
	finding := &types.Finding{
		DossierID:  dossierID,
		ClaimID:    item.ClaimID,
		ProducedBy: graphid.EditorProducer,
		FindingID:  findingID,
		Verdict:    item.Verdict,
		Rationale:  encodeJSON(rationale),
		Citations:  encodeJSON(valid),
	}
	inserted, err := s.findingRepo.Upsert(ctx, nil, finding)
	if err != nil {
		return res, err
	}
	res.Created = inserted
	action := types.ActionUpdate
	if inserted {
		action = types.ActionCreate
	}
	if err := s.appendRevision(ctx, dossierID, actor, types.EntityFinding, findingID, action, map[string]interface{}{
		"verdict":           item.Verdict,
		"rationale_entries": len(rationale),
		"citations":         len(valid),
	}); err != nil {
		return res, err
	}

	if err := s.deriveClaimStatus(ctx, dossierID, actor, claim, item.Verdict); err != nil {
		return res, err
	}

	targetRel := relFromVerdict(item.Verdict)
	for _, citation := range valid {
		if err := s.syncCitationEdges(ctx, dossierID, actor, findingID, citation.SourceID, targetRel); err != nil {
			return res, err
		}
	}

	// The claim stays reachable from the graph root through its finding,
	// independent of citations.
	contextEdge := &types.Edge{
		DossierID: dossierID,
		EdgeID:    graphid.EdgeID(dossierID, item.ClaimID, findingID, types.RelContextFor),
		FromType:  types.EntityClaim,
		FromID:    item.ClaimID,
		ToType:    types.EntityFinding,
		ToID:      findingID,
		Rel:       types.RelContextFor,
	}
	if err := s.upsertEdgeWithRevision(ctx, dossierID, actor, contextEdge); err != nil {
		return res, err
	}

	return res, nil
}

// pruneUnknownSources drops citations whose sourceId is not in the dossier's
// source set, recording one warning per dropped citation. Partial failure:
// the finding still persists with the remaining citations.
func (s *reviewService) pruneUnknownSources(ctx context.Context, dossierID uuid.UUID, citations []types.CitationRef, res *ItemResult) ([]types.CitationRef, error) {
	if len(citations) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(citations))
	for _, c := range citations {
		ids = append(ids, c.SourceID)
	}
	existing, err := s.sourceRepo.ExistingIDs(ctx, nil, dossierID, ids)
	if err != nil {
		return nil, err
	}
	valid := make([]types.CitationRef, 0, len(citations))
	for _, c := range citations {
		if !existing[c.SourceID] {
			res.Warnings = append(res.Warnings, WarnSourceMissingPrefix+c.SourceID)
			continue
		}
		valid = append(valid, c)
	}
	return valid, nil
}

func (s *reviewService) deriveClaimStatus(ctx context.Context, dossierID uuid.UUID, actor requestdata.Actor, claim *types.Claim, verdict string) error {
	target := types.StatusFromVerdict(verdict)
	if claim.Status == target {
		return nil
	}
	if err := s.claimRepo.UpdateStatus(ctx, nil, dossierID, claim.ClaimID, target); err != nil {
		return err
	}
	return s.appendRevision(ctx, dossierID, actor, types.EntityClaim, claim.ClaimID, types.ActionStatusChange, map[string]interface{}{
		"from": claim.Status,
		"to":   target,
	})
}

// syncCitationEdges archives every active finding→source edge whose relation
// no longer matches the verdict, then activates the target edge.
func (s *reviewService) syncCitationEdges(ctx context.Context, dossierID uuid.UUID, actor requestdata.Actor, findingID, sourceID, targetRel string) error {
	active, err := s.edgeRepo.ListActiveBetween(ctx, nil, dossierID, findingID, sourceID)
	if err != nil {
		return err
	}
	for _, stale := range active {
		if stale.Rel == targetRel {
			continue
		}
		now := time.Now().UTC()
		if err := s.edgeRepo.Archive(ctx, nil, dossierID, stale.EdgeID, types.ArchiveReasonVerdictChanged, now); err != nil {
			return err
		}
		if err := s.appendRevision(ctx, dossierID, actor, types.EntityEdge, stale.EdgeID, types.ActionUpdate, map[string]interface{}{
			"archived":        true,
			"archived_reason": types.ArchiveReasonVerdictChanged,
			"rel":             stale.Rel,
		}); err != nil {
			return err
		}
	}

	target := &types.Edge{
		DossierID: dossierID,
		EdgeID:    graphid.EdgeID(dossierID, findingID, sourceID, targetRel),
		FromType:  types.EntityFinding,
		FromID:    findingID,
		ToType:    types.EntitySource,
		ToID:      sourceID,
		Rel:       targetRel,
	}
	return s.upsertEdgeWithRevision(ctx, dossierID, actor, target)
}

// upsertEdgeWithRevision logs a create revision for a fresh edge and an
// update revision for a reactivated one. An already-active identical edge is
// a no-op and leaves no ledger entry, which is what makes resubmission
// idempotent.
func (s *reviewService) upsertEdgeWithRevision(ctx context.Context, dossierID uuid.UUID, actor requestdata.Actor, edge *types.Edge) error {
	outcome, err := s.edgeRepo.Upsert(ctx, nil, edge)
	if err != nil {
		return err
	}
	var action string
	switch outcome {
	case repos.EdgeInserted:
		action = types.ActionCreate
	case repos.EdgeReactivated:
		action = types.ActionUpdate
	default:
		return nil
	}
	return s.appendRevision(ctx, dossierID, actor, types.EntityEdge, edge.EdgeID, action, map[string]interface{}{
		"from": edge.FromID,
		"to":   edge.ToID,
		"rel":  edge.Rel,
	})
}

func (s *reviewService) appendRevision(ctx context.Context, dossierID uuid.UUID, actor requestdata.Actor, entityType, entityID, action string, diff map[string]interface{}) error {
	return s.ledger.Append(ctx, nil, &types.Revision{
		DossierID:   dossierID,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		DiffSummary: encodeJSON(diff),
		ByRole:      actor.Role,
		ByUserID:    actor.UserID,
	})
}

func relFromVerdict(verdict string) string {
	switch verdict {
	case types.VerdictSupports:
		return types.RelSupports
	case types.VerdictRefutes:
		return types.RelRefutes
	default:
		return types.RelMentions
	}
}
