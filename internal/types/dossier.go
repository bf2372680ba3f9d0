package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Dossier struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Statement string    `gorm:"column:statement;type:text" json:"statement"`
	Status    string    `gorm:"column:status;not null;default:'open'" json:"status"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Dossier) TableName() string { return "dossier" }

// DossierCounts are the aggregate counters recomputed after every review
// batch. They are derived, never stored.
type DossierCounts struct {
	Claims          int64 `json:"claims"`
	ClaimsSupported int64 `json:"claims_supported"`
	ClaimsRefuted   int64 `json:"claims_refuted"`
	ClaimsUnclear   int64 `json:"claims_unclear"`
	Findings        int64 `json:"findings"`
	Sources         int64 `json:"sources"`
	ActiveEdges     int64 `json:"active_edges"`
}
