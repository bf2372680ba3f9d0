package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
)

// EdgeUpsertOutcome tells the caller what an edge upsert actually did, so it
// can log a create revision, an update revision, or nothing at all.
type EdgeUpsertOutcome int

const (
	EdgeUnchanged EdgeUpsertOutcome = iota
	EdgeInserted
	EdgeReactivated
)

type EdgeRepo interface {
	// Upsert writes the edge keyed by (dossier_id, edge_id). An archived row
	// with the same identity is reactivated; an already-active row is left
	// untouched.
	Upsert(ctx context.Context, tx *gorm.DB, edge *types.Edge) (EdgeUpsertOutcome, error)
	// ListActiveBetween returns every active edge from fromID to toID within
	// the dossier, regardless of relation.
	ListActiveBetween(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, fromID, toID string) ([]*types.Edge, error)
	Archive(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, edgeID string, reason string, at time.Time) error
	ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, activeOnly bool) ([]*types.Edge, error)
	CountActive(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error)
}

type edgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEdgeRepo(db *gorm.DB, baseLog *logger.Logger) EdgeRepo {
	return &edgeRepo{
		db:  db,
		log: baseLog.With("repo", "EdgeRepo"),
	}
}

func (r *edgeRepo) Upsert(ctx context.Context, tx *gorm.DB, edge *types.Edge) (EdgeUpsertOutcome, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if edge == nil || edge.DossierID == uuid.Nil || edge.EdgeID == "" {
		return EdgeUnchanged, nil
	}

	now := time.Now().UTC()
	var existing types.Edge
	err := transaction.WithContext(ctx).
		Where("dossier_id = ? AND edge_id = ?", edge.DossierID, edge.EdgeID).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return EdgeUnchanged, err
	}

	if existing.ID == uuid.Nil {
		edge.ID = uuid.New()
		edge.Active = true
		edge.ArchivedAt = nil
		edge.ArchivedReason = ""
		edge.CreatedAt = now
		edge.UpdatedAt = now
		if err := transaction.WithContext(ctx).Create(edge).Error; err != nil {
			return EdgeUnchanged, err
		}
		return EdgeInserted, nil
	}

	edge.ID = existing.ID
	if existing.Active {
		return EdgeUnchanged, nil
	}

	err = transaction.WithContext(ctx).
		Model(&types.Edge{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"active":          true,
			"archived_at":     nil,
			"archived_reason": "",
			"updated_at":      now,
		}).Error
	if err != nil {
		return EdgeUnchanged, err
	}
	return EdgeReactivated, nil
}

func (r *edgeRepo) ListActiveBetween(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, fromID, toID string) ([]*types.Edge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil || fromID == "" || toID == "" {
		return nil, nil
	}
	var rows []*types.Edge
	err := transaction.WithContext(ctx).
		Where("dossier_id = ? AND from_id = ? AND to_id = ? AND active = ?", dossierID, fromID, toID, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *edgeRepo) Archive(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, edgeID string, reason string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil || edgeID == "" {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Edge{}).
		Where("dossier_id = ? AND edge_id = ?", dossierID, edgeID).
		Updates(map[string]interface{}{
			"active":          false,
			"archived_at":     at,
			"archived_reason": reason,
			"updated_at":      at,
		}).Error
}

func (r *edgeRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, activeOnly bool) ([]*types.Edge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Where("dossier_id = ?", dossierID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []*types.Edge
	if err := query.Order("edge_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *edgeRepo) CountActive(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Edge{}).
		Where("dossier_id = ? AND active = ?", dossierID, true).
		Count(&count).Error
	return count, err
}
