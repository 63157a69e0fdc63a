package models

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	StatusProcessing SubmissionStatus = "processing"
	StatusCompleted  SubmissionStatus = "completed"
	StatusRejected   SubmissionStatus = "rejected"
)

// Terminal reports whether no further automatic transition can occur.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Submission is one thesis upload under review. Descriptive fields are
// immutable after intake; only status, scores and findings change, and only
// through the review pipeline or an admin decision.
//
// PlagiarismScore and AIPlagiarismScore stay nil while the submission is
// processing. Zero is a valid completed result, never a pending sentinel.
type Submission struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OwnerID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"owner_id"`
	Title             string           `gorm:"type:text;not null" json:"title"`
	Abstract          string           `gorm:"type:text;not null" json:"abstract"`
	Faculty           string           `gorm:"type:text;not null" json:"faculty"`
	DocumentRef       string           `gorm:"type:text;not null" json:"-"`
	OriginalFileName  string           `gorm:"type:text" json:"original_filename"`
	MimeType          string           `gorm:"type:text" json:"mime_type"`
	AICheckRequested  bool             `gorm:"not null;default:true" json:"ai_check_requested"`
	Status            SubmissionStatus `gorm:"not null;default:'processing'" json:"status"`
	PlagiarismScore   *int             `json:"plagiarism_score,omitempty"`
	AIPlagiarismScore *int             `json:"ai_plagiarism_score,omitempty"`
	CreatedAt         time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Findings []Finding `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Submission) TableName() string {
	return "submissions"
}
