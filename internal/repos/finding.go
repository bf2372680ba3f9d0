package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
)

type FindingRepo interface {
	GetEditorFinding(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string) (*types.Finding, error)
	// Upsert inserts or updates the finding keyed by
	// (dossier_id, claim_id, produced_by) and reports whether an insert
	// happened. The caller's per-claim lock makes read-then-write safe.
	Upsert(ctx context.Context, tx *gorm.DB, finding *types.Finding) (bool, error)
	ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Finding, error)
	CountByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error)
}

type findingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFindingRepo(db *gorm.DB, baseLog *logger.Logger) FindingRepo {
	return &findingRepo{
		db:  db,
		log: baseLog.With("repo", "FindingRepo"),
	}
}

func (r *findingRepo) GetEditorFinding(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string) (*types.Finding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil || claimID == "" {
		return nil, nil
	}
	var row types.Finding
	err := transaction.WithContext(ctx).
		Where("dossier_id = ? AND claim_id = ? AND produced_by = ?", dossierID, claimID, "editor").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *findingRepo) Upsert(ctx context.Context, tx *gorm.DB, finding *types.Finding) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if finding == nil || finding.DossierID == uuid.Nil || finding.ClaimID == "" {
		return false, nil
	}
	if finding.ProducedBy == "" {
		finding.ProducedBy = "editor"
	}

	now := time.Now().UTC()
	var existing types.Finding
	err := transaction.WithContext(ctx).
		Where("dossier_id = ? AND claim_id = ? AND produced_by = ?", finding.DossierID, finding.ClaimID, finding.ProducedBy).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return false, err
	}

	if existing.ID == uuid.Nil {
		finding.ID = uuid.New()
		finding.CreatedAt = now
		finding.UpdatedAt = now
		if err := transaction.WithContext(ctx).Create(finding).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	err = transaction.WithContext(ctx).
		Model(&types.Finding{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"finding_id": finding.FindingID,
			"verdict":    finding.Verdict,
			"rationale":  finding.Rationale,
			"citations":  finding.Citations,
			"updated_at": now,
		}).Error
	if err != nil {
		return false, err
	}
	finding.ID = existing.ID
	return false, nil
}

func (r *findingRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Finding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Finding
	err := transaction.WithContext(ctx).
		Where("dossier_id = ?", dossierID).
		Order("claim_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *findingRepo) CountByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Finding{}).
		Where("dossier_id = ?", dossierID).
		Count(&count).Error
	return count, err
}
