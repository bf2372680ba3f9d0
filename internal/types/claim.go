package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ClaimStatusUnclear   = "unclear"
	ClaimStatusSupported = "supported"
	ClaimStatusRefuted   = "refuted"
)

// Claim is an extracted factual assertion. Rows are created by the external
// extraction pipeline; this service only re-derives Status from editor
// verdicts (last write wins). Claims are never deleted.
type Claim struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	DossierID uuid.UUID `gorm:"type:uuid;not null;index:idx_claim_key,unique,priority:1" json:"dossier_id"`
	Dossier   *Dossier  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DossierID;references:ID" json:"dossier,omitempty"`

	// ClaimID is the caller-supplied stable business key, unique per dossier.
	ClaimID string `gorm:"column:claim_id;not null;index:idx_claim_key,unique,priority:2" json:"claim_id"`
	Text    string `gorm:"column:text;type:text;not null" json:"text"`
	Status  string `gorm:"column:status;not null;default:'unclear';index" json:"status"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Claim) TableName() string { return "claim" }
