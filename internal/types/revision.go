package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionStatusChange = "status_change"
)

// Revision is one append-only ledger entry per entity mutation. Rows are
// never updated or deleted; ordering is insertion order. Business logic never
// reads the ledger, only history views do.
type Revision struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	DossierID uuid.UUID `gorm:"type:uuid;not null;index:idx_revision_entity,priority:1" json:"dossier_id"`

	EntityType string `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID   string `gorm:"column:entity_id;not null;index:idx_revision_entity,priority:2" json:"entity_id"`
	Action     string `gorm:"column:action;not null" json:"action"`

	DiffSummary datatypes.JSON `gorm:"column:diff_summary;type:jsonb" json:"diff_summary"`

	ByRole   string    `gorm:"column:by_role;not null" json:"by_role"`
	ByUserID uuid.UUID `gorm:"type:uuid;column:by_user_id;not null" json:"by_user_id"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Revision) TableName() string { return "revision" }
