package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
)

// RevisionRepo is append-only on purpose: the ledger exposes no update or
// delete operation.
type RevisionRepo interface {
	Append(ctx context.Context, tx *gorm.DB, revision *types.Revision) error
	ListByEntity(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, entityID string, limit int) ([]*types.Revision, error)
}

type revisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	return &revisionRepo{
		db:  db,
		log: baseLog.With("repo", "RevisionRepo"),
	}
}

func (r *revisionRepo) Append(ctx context.Context, tx *gorm.DB, revision *types.Revision) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if revision == nil || revision.DossierID == uuid.Nil {
		return nil
	}
	if revision.ID == uuid.Nil {
		revision.ID = uuid.New()
	}
	if revision.CreatedAt.IsZero() {
		revision.CreatedAt = time.Now().UTC()
	}
	return transaction.WithContext(ctx).Create(revision).Error
}

func (r *revisionRepo) ListByEntity(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, entityID string, limit int) ([]*types.Revision, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil || entityID == "" {
		return nil, nil
	}
	query := transaction.WithContext(ctx).
		Where("dossier_id = ? AND entity_id = ?", dossierID, entityID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []*types.Revision
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
