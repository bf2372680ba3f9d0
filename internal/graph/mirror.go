// Package graph mirrors a dossier's provenance graph into neo4j for
// exploration tooling. The relational store stays authoritative; the mirror
// is a best-effort projection and a sync failure never fails the request
// that triggered it.
package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/neo4jdb"
	"github.com/yungbote/dossier-backend/internal/repos"
)

type Mirror struct {
	client      *neo4jdb.Client
	log         *logger.Logger
	claimRepo   repos.ClaimRepo
	sourceRepo  repos.SourceRepo
	findingRepo repos.FindingRepo
	edgeRepo    repos.EdgeRepo
}

func NewMirror(
	client *neo4jdb.Client,
	log *logger.Logger,
	claimRepo repos.ClaimRepo,
	sourceRepo repos.SourceRepo,
	findingRepo repos.FindingRepo,
	edgeRepo repos.EdgeRepo,
) *Mirror {
	if client == nil || client.Driver == nil {
		return nil
	}
	return &Mirror{
		client:      client,
		log:         log.With("service", "GraphMirror"),
		claimRepo:   claimRepo,
		sourceRepo:  sourceRepo,
		findingRepo: findingRepo,
		edgeRepo:    edgeRepo,
	}
}

// SyncDossier projects the dossier's current graph state into neo4j. Safe on
// a nil receiver so callers need no mirror-enabled check.
func (m *Mirror) SyncDossier(ctx context.Context, dossierID uuid.UUID) error {
	if m == nil || m.client == nil || m.client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if dossierID == uuid.Nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	claims, err := m.claimRepo.ListByDossier(ctx, nil, dossierID)
	if err != nil {
		return err
	}
	sources, err := m.sourceRepo.ListByDossier(ctx, nil, dossierID)
	if err != nil {
		return err
	}
	findings, err := m.findingRepo.ListByDossier(ctx, nil, dossierID)
	if err != nil {
		return err
	}
	edges, err := m.edgeRepo.ListByDossier(ctx, nil, dossierID, false)
	if err != nil {
		return err
	}

	claimNodes := make([]map[string]any, 0, len(claims))
	for _, c := range claims {
		claimNodes = append(claimNodes, map[string]any{
			"id":         c.ClaimID,
			"dossier_id": dossierID.String(),
			"text":       c.Text,
			"status":     c.Status,
			"synced_at":  now,
		})
	}

	sourceNodes := make([]map[string]any, 0, len(sources))
	for _, s := range sources {
		sourceNodes = append(sourceNodes, map[string]any{
			"id":         s.SourceID,
			"dossier_id": dossierID.String(),
			"title":      s.Title,
			"url":        s.URL,
			"publisher":  s.Publisher,
			"synced_at":  now,
		})
	}

	findingNodes := make([]map[string]any, 0, len(findings))
	for _, f := range findings {
		findingNodes = append(findingNodes, map[string]any{
			"id":          f.FindingID,
			"dossier_id":  dossierID.String(),
			"claim_id":    f.ClaimID,
			"produced_by": f.ProducedBy,
			"verdict":     f.Verdict,
			"synced_at":   now,
		})
	}

	edgeRows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		archivedAt := ""
		if e.ArchivedAt != nil {
			archivedAt = e.ArchivedAt.UTC().Format(time.RFC3339Nano)
		}
		edgeRows = append(edgeRows, map[string]any{
			"id":              e.EdgeID,
			"dossier_id":      dossierID.String(),
			"from_id":         e.FromID,
			"to_id":           e.ToID,
			"rel":             e.Rel,
			"active":          e.Active,
			"archived_at":     archivedAt,
			"archived_reason": e.ArchivedReason,
			"synced_at":       now,
		})
	}

	session := m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	{
		stmts := []string{
			`CREATE CONSTRAINT dossier_claim_id_unique IF NOT EXISTS FOR (c:Claim) REQUIRE (c.dossier_id, c.id) IS UNIQUE`,
			`CREATE CONSTRAINT dossier_source_id_unique IF NOT EXISTS FOR (s:Source) REQUIRE (s.dossier_id, s.id) IS UNIQUE`,
			`CREATE CONSTRAINT dossier_finding_id_unique IF NOT EXISTS FOR (f:Finding) REQUIRE (f.dossier_id, f.id) IS UNIQUE`,
		}
		for _, q := range stmts {
			if res, err := session.Run(ctx, q, nil); err != nil {
				m.log.Warn("neo4j schema init failed (continuing)", "error", err)
			} else {
				_, _ = res.Consume(ctx)
			}
		}
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(claimNodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $claims AS c
MERGE (n:Claim {dossier_id: c.dossier_id, id: c.id})
SET n += c
`, map[string]any{"claims": claimNodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(sourceNodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $sources AS s
MERGE (n:Source {dossier_id: s.dossier_id, id: s.id})
SET n += s
`, map[string]any{"sources": sourceNodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(findingNodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $findings AS f
MERGE (n:Finding {dossier_id: f.dossier_id, id: f.id})
SET n += f
WITH n, f
MERGE (c:Claim {dossier_id: f.dossier_id, id: f.claim_id})
MERGE (c)-[:HAS_FINDING]->(n)
`, map[string]any{"findings": findingNodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(edgeRows) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $edges AS e
MERGE (r:Relation {dossier_id: e.dossier_id, id: e.id})
SET r += e
`, map[string]any{"edges": edgeRows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	m.log.Debug("Graph mirror synced", "dossier_id", dossierID, "claims", len(claimNodes), "sources", len(sourceNodes), "findings", len(findingNodes), "edges", len(edgeRows))
	return nil
}
