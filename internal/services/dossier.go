package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/types"
)

// ClaimView is a claim joined with its editor finding, if one exists.
type ClaimView struct {
	Claim     *types.Claim        `json:"claim"`
	Verdict   string              `json:"verdict,omitempty"`
	Rationale []string            `json:"rationale,omitempty"`
	Citations []types.CitationRef `json:"citations,omitempty"`
}

// GraphSnapshot is the direct-lookup view of a dossier's provenance graph.
type GraphSnapshot struct {
	Claims   []*types.Claim   `json:"claims"`
	Sources  []*types.Source  `json:"sources"`
	Findings []*types.Finding `json:"findings"`
	Edges    []*types.Edge    `json:"edges"`
}

type DossierService interface {
	Get(ctx context.Context, dossierID uuid.UUID) (*types.Dossier, error)
	MemberRole(ctx context.Context, dossierID uuid.UUID, userID uuid.UUID) (string, error)
	Counts(ctx context.Context, dossierID uuid.UUID) (*types.DossierCounts, error)
	Claims(ctx context.Context, dossierID uuid.UUID) ([]*ClaimView, error)
	Graph(ctx context.Context, dossierID uuid.UUID, activeOnly bool) (*GraphSnapshot, error)
}

type dossierService struct {
	db          *gorm.DB
	log         *logger.Logger
	dossierRepo repos.DossierRepo
	claimRepo   repos.ClaimRepo
	sourceRepo  repos.SourceRepo
	findingRepo repos.FindingRepo
	edgeRepo    repos.EdgeRepo
}

func NewDossierService(
	db *gorm.DB,
	log *logger.Logger,
	dossierRepo repos.DossierRepo,
	claimRepo repos.ClaimRepo,
	sourceRepo repos.SourceRepo,
	findingRepo repos.FindingRepo,
	edgeRepo repos.EdgeRepo,
) DossierService {
	return &dossierService{
		db:          db,
		log:         log.With("service", "DossierService"),
		dossierRepo: dossierRepo,
		claimRepo:   claimRepo,
		sourceRepo:  sourceRepo,
		findingRepo: findingRepo,
		edgeRepo:    edgeRepo,
	}
}

func (ds *dossierService) Get(ctx context.Context, dossierID uuid.UUID) (*types.Dossier, error) {
	return ds.dossierRepo.GetByID(ctx, nil, dossierID)
}

func (ds *dossierService) MemberRole(ctx context.Context, dossierID uuid.UUID, userID uuid.UUID) (string, error) {
	return ds.dossierRepo.MemberRole(ctx, nil, dossierID, userID)
}

// Counts recomputes the dossier aggregates; the four collection queries are
// independent, so they fan out.
func (ds *dossierService) Counts(ctx context.Context, dossierID uuid.UUID) (*types.DossierCounts, error) {
	var counts types.DossierCounts

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byStatus, err := ds.claimRepo.CountByStatus(gctx, nil, dossierID)
		if err != nil {
			return err
		}
		counts.ClaimsSupported = byStatus[types.ClaimStatusSupported]
		counts.ClaimsRefuted = byStatus[types.ClaimStatusRefuted]
		counts.ClaimsUnclear = byStatus[types.ClaimStatusUnclear]
		for _, n := range byStatus {
			counts.Claims += n
		}
		return nil
	})
	g.Go(func() error {
		n, err := ds.findingRepo.CountByDossier(gctx, nil, dossierID)
		if err != nil {
			return err
		}
		counts.Findings = n
		return nil
	})
	g.Go(func() error {
		n, err := ds.sourceRepo.CountByDossier(gctx, nil, dossierID)
		if err != nil {
			return err
		}
		counts.Sources = n
		return nil
	})
	g.Go(func() error {
		n, err := ds.edgeRepo.CountActive(gctx, nil, dossierID)
		if err != nil {
			return err
		}
		counts.ActiveEdges = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (ds *dossierService) Claims(ctx context.Context, dossierID uuid.UUID) ([]*ClaimView, error) {
	claims, err := ds.claimRepo.ListByDossier(ctx, nil, dossierID)
	if err != nil {
		return nil, err
	}
	findings, err := ds.findingRepo.ListByDossier(ctx, nil, dossierID)
	if err != nil {
		return nil, err
	}

	editorByClaim := make(map[string]*types.Finding, len(findings))
	for _, f := range findings {
		if f.ProducedBy == "editor" {
			editorByClaim[f.ClaimID] = f
		}
	}

	out := make([]*ClaimView, 0, len(claims))
	for _, claim := range claims {
		view := &ClaimView{Claim: claim}
		if f, ok := editorByClaim[claim.ClaimID]; ok {
			view.Verdict = f.Verdict
			if len(f.Rationale) > 0 {
				_ = json.Unmarshal(f.Rationale, &view.Rationale)
			}
			if len(f.Citations) > 0 {
				_ = json.Unmarshal(f.Citations, &view.Citations)
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func (ds *dossierService) Graph(ctx context.Context, dossierID uuid.UUID, activeOnly bool) (*GraphSnapshot, error) {
	snapshot := &GraphSnapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := ds.claimRepo.ListByDossier(gctx, nil, dossierID)
		snapshot.Claims = rows
		return err
	})
	g.Go(func() error {
		rows, err := ds.sourceRepo.ListByDossier(gctx, nil, dossierID)
		snapshot.Sources = rows
		return err
	})
	g.Go(func() error {
		rows, err := ds.findingRepo.ListByDossier(gctx, nil, dossierID)
		snapshot.Findings = rows
		return err
	})
	g.Go(func() error {
		rows, err := ds.edgeRepo.ListByDossier(gctx, nil, dossierID, activeOnly)
		snapshot.Edges = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
