package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	VerdictSupports = "supports"
	VerdictRefutes  = "refutes"
	VerdictMixed    = "mixed"
	VerdictUnclear  = "unclear"
)

func ValidVerdict(v string) bool {
	switch v {
	case VerdictSupports, VerdictRefutes, VerdictMixed, VerdictUnclear:
		return true
	}
	return false
}

// StatusFromVerdict maps an editor verdict onto the claim status it implies.
// Total over the four verdict values; anything else degrades to unclear.
func StatusFromVerdict(verdict string) string {
	switch verdict {
	case VerdictSupports:
		return ClaimStatusSupported
	case VerdictRefutes:
		return ClaimStatusRefuted
	default:
		return ClaimStatusUnclear
	}
}

// CitationRef ties a finding to one source, with an optional quote and
// locator. Stored as JSON on the finding row; field names match the wire
// format.
type CitationRef struct {
	SourceID string `json:"sourceId"`
	Quote    string `json:"quote,omitempty"`
	Locator  string `json:"locator,omitempty"`
}

// Finding is one editor's (or pipeline's) verdict on a claim. One row exists
// per (dossier, claim, produced_by); the editor row carries the deterministic
// id finding_{claimId}_editor so resubmission updates instead of duplicating.
type Finding struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	DossierID uuid.UUID `gorm:"type:uuid;not null;index:idx_finding_key,unique,priority:1" json:"dossier_id"`
	Dossier   *Dossier  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DossierID;references:ID" json:"dossier,omitempty"`

	ClaimID    string `gorm:"column:claim_id;not null;index:idx_finding_key,unique,priority:2" json:"claim_id"`
	ProducedBy string `gorm:"column:produced_by;not null;default:'editor';index:idx_finding_key,unique,priority:3" json:"produced_by"`

	FindingID string `gorm:"column:finding_id;not null;index" json:"finding_id"`
	Verdict   string `gorm:"column:verdict;not null" json:"verdict"`

	Rationale datatypes.JSON `gorm:"column:rationale;type:jsonb" json:"rationale"`
	Citations datatypes.JSON `gorm:"column:citations;type:jsonb" json:"citations"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Finding) TableName() string { return "finding" }
