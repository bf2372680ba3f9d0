package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
)

type DossierRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (*types.Dossier, error)
	MemberRole(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, userID uuid.UUID) (string, error)
}

type dossierRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDossierRepo(db *gorm.DB, baseLog *logger.Logger) DossierRepo {
	return &dossierRepo{
		db:  db,
		log: baseLog.With("repo", "DossierRepo"),
	}
}

func (r *dossierRepo) GetByID(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID) (*types.Dossier, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil {
		return nil, nil
	}
	var row types.Dossier
	err := transaction.WithContext(ctx).
		Where("id = ?", dossierID).
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

// MemberRole returns the caller's role on the dossier, or "" when the user is
// not a member.
func (r *dossierRepo) MemberRole(ctx context.Context, tx *gorm.DB, dossierID uuid.UUID, userID uuid.UUID) (string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if dossierID == uuid.Nil || userID == uuid.Nil {
		return "", nil
	}
	var row types.DossierMember
	err := transaction.WithContext(ctx).
		Where("dossier_id = ? AND user_id = ?", dossierID, userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return "", err
	}
	if row.ID == uuid.Nil {
		return "", nil
	}
	return row.Role, nil
}
