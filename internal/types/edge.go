package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RelSupports   = "supports"
	RelRefutes    = "refutes"
	RelMentions   = "mentions"
	RelContextFor = "context_for"
)

const (
	EntityClaim   = "claim"
	EntitySource  = "source"
	EntityFinding = "finding"
	EntityEdge    = "edge"
)

// ArchiveReasonVerdictChanged marks edges superseded by a new editor verdict.
const ArchiveReasonVerdictChanged = "verdict_changed"

// Edge is a typed, directed relation between two graph entities. Edges are
// soft-deleted: supersession archives the row (active=false, archived_at,
// archived_reason) and history stays queryable. At most one active edge may
// exist per (dossier, from, to) pair toward a given source.
type Edge struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	DossierID uuid.UUID `gorm:"type:uuid;not null;index:idx_edge_key,unique,priority:1;index:idx_edge_pair,priority:1" json:"dossier_id"`
	Dossier   *Dossier  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DossierID;references:ID" json:"dossier,omitempty"`

	// EdgeID is the content-addressed identity hash of
	// (dossier, from, to, rel); see graphid.EdgeID.
	EdgeID string `gorm:"column:edge_id;not null;index:idx_edge_key,unique,priority:2" json:"edge_id"`

	FromType string `gorm:"column:from_type;not null" json:"from_type"`
	FromID   string `gorm:"column:from_id;not null;index:idx_edge_pair,priority:2" json:"from_id"`
	ToType   string `gorm:"column:to_type;not null" json:"to_type"`
	ToID     string `gorm:"column:to_id;not null;index:idx_edge_pair,priority:3" json:"to_id"`
	Rel      string `gorm:"column:rel;not null" json:"rel"`

	Active         bool       `gorm:"column:active;not null;default:true;index" json:"active"`
	ArchivedAt     *time.Time `gorm:"column:archived_at" json:"archived_at,omitempty"`
	ArchivedReason string     `gorm:"column:archived_reason" json:"archived_reason,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Edge) TableName() string { return "edge" }

// Archive flips the edge into its archived state. The reason is mandatory so
// an archived edge can never lack one.
func (e *Edge) Archive(reason string, at time.Time) {
	e.Active = false
	e.ArchivedAt = &at
	e.ArchivedReason = reason
}

// Reactivate clears the archival state when a previously superseded relation
// becomes current again.
func (e *Edge) Reactivate() {
	e.Active = true
	e.ArchivedAt = nil
	e.ArchivedReason = ""
}
