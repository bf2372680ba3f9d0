package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// DossierMember maps a user to their role on one dossier. Membership is
// written by an external admin surface; this service only reads it to
// authorize mutations.
type DossierMember struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	DossierID uuid.UUID `gorm:"type:uuid;not null;index:idx_dossier_member,unique,priority:1" json:"dossier_id"`
	Dossier   *Dossier  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DossierID;references:ID" json:"dossier,omitempty"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_dossier_member,unique,priority:2" json:"user_id"`
	Role   string    `gorm:"column:role;not null;default:'viewer'" json:"role"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DossierMember) TableName() string { return "dossier_member" }

// CanReview reports whether a dossier role may submit review batches.
func CanReview(role string) bool {
	return role == RoleEditor || role == RoleAdmin
}
