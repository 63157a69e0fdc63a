package models

import (
	"time"

	"github.com/google/uuid"
)

type FindingKind string

const (
	KindTraditional FindingKind = "traditional"
	KindAIGenerated FindingKind = "ai_generated"
)

// SourceAIGenerated is the citation sentinel for passages flagged as
// AI-generated content, which have no bibliographic source.
const SourceAIGenerated = "AI-generated"

// Finding is one detector-reported matching passage. It belongs to exactly
// one submission and is deleted with it. Position preserves detector
// emission order so reports can be read in the order checks flagged them.
type Finding struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SubmissionID uuid.UUID   `gorm:"type:uuid;not null;index" json:"submission_id"`
	Position     int         `gorm:"not null" json:"position"`
	Passage      string      `gorm:"type:text;not null" json:"passage"`
	Source       string      `gorm:"type:text;not null" json:"source"`
	Similarity   int         `gorm:"not null" json:"similarity"`
	Kind         FindingKind `gorm:"type:text;not null" json:"kind"`
	CreatedAt    time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Finding) TableName() string {
	return "findings"
}
