package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/repos"
	"github.com/yungbote/dossier-backend/internal/types"
)

// LedgerService is the write contract of the revision ledger. Appends happen
// synchronously inside the request so no audit entry is lost; nothing ever
// updates or deletes an existing entry.
type LedgerService interface {
	Append(ctx context.Context, tx *gorm.DB, revision *types.Revision) error
	History(ctx context.Context, dossierID uuid.UUID, entityID string, limit int) ([]*types.Revision, error)
}

type ledgerService struct {
	db           *gorm.DB
	log          *logger.Logger
	revisionRepo repos.RevisionRepo
}

func NewLedgerService(db *gorm.DB, log *logger.Logger, revisionRepo repos.RevisionRepo) LedgerService {
	return &ledgerService{
		db:           db,
		log:          log.With("service", "LedgerService"),
		revisionRepo: revisionRepo,
	}
}

func (ls *ledgerService) Append(ctx context.Context, tx *gorm.DB, revision *types.Revision) error {
	if err := ls.revisionRepo.Append(ctx, tx, revision); err != nil {
		ls.log.Error("Failed to append revision", "entity_type", revision.EntityType, "entity_id", revision.EntityID, "error", err)
		return err
	}
	return nil
}

func (ls *ledgerService) History(ctx context.Context, dossierID uuid.UUID, entityID string, limit int) ([]*types.Revision, error) {
	return ls.revisionRepo.ListByEntity(ctx, nil, dossierID, entityID, limit)
}
