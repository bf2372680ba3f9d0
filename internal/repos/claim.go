package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
)

type ClaimRepo interface {
	GetByClaimID(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string) (*types.Claim, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string, status string) error
	ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Claim, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (map[string]int64, error)
}

type claimRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
	return &claimRepo{
		db:  db,
		log: baseLog.With("repo", "ClaimRepo"),
	}
}

func (r *claimRepo) GetByClaimID(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string) (*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil || claimID == "" {
		return nil, nil
	}
	var row types.Claim
	err := transaction.WithContext(ctx).
		Where("dossier_id = ? AND claim_id = ?", dossierID, claimID).
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

func (r *claimRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, claimID string, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil || claimID == "" {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Claim{}).
		Where("dossier_id = ? AND claim_id = ?", dossierID, claimID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *claimRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Claim, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Claim
	err := transaction.WithContext(ctx).
		Where("dossier_id = ?", dossierID).
		Order("claim_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *claimRepo) CountByStatus(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := transaction.WithContext(ctx).
		Model(&types.Claim{}).
		Select("status, COUNT(*) AS count").
		Where("dossier_id = ?", dossierID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
