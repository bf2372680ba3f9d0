package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
)

type SourceRepo interface {
	// ExistingIDs reports which of the given business keys exist in the
	// dossier's source set. Citation validation runs against this.
	ExistingIDs(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, sourceIDs []string) (map[string]bool, error)
	ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Source, error)
	CountByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error)
}

type sourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return &sourceRepo{
		db:  db,
		log: baseLog.With("repo", "SourceRepo"),
	}
}

func (r *sourceRepo) ExistingIDs(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, sourceIDs []string) (map[string]bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[string]bool, len(sourceIDs))
	if dossierID == uuid.Nil || len(sourceIDs) == 0 {
		return out, nil
	}
	var found []string
	err := transaction.WithContext(ctx).
		Model(&types.Source{}).
		Where("dossier_id = ? AND source_id IN ?", dossierID, sourceIDs).
		Pluck("source_id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *sourceRepo) ListByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) ([]*types.Source, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Source
	err := transaction.WithContext(ctx).
		Where("dossier_id = ?", dossierID).
		Order("source_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sourceRepo) CountByDossier(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Source{}).
		Where("dossier_id = ?", dossierID).
		Count(&count).Error
	return count, err
}
