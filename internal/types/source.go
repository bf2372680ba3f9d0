package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source is an externally ingested evidentiary document. Immutable once
// created; this service references sources from citations but never writes
// them.
type Source struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	DossierID uuid.UUID `gorm:"type:uuid;not null;index:idx_source_key,unique,priority:1" json:"dossier_id"`
	Dossier   *Dossier  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DossierID;references:ID" json:"dossier,omitempty"`

	SourceID  string `gorm:"column:source_id;not null;index:idx_source_key,unique,priority:2" json:"source_id"`
	Title     string `gorm:"column:title" json:"title"`
	URL       string `gorm:"column:url" json:"url"`
	Publisher string `gorm:"column:publisher" json:"publisher"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Source) TableName() string { return "source" }
