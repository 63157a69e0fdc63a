package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"thesisguard/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

type SubmissionRepository interface {
	Create(sub *models.Submission) error
	FindByID(id uuid.UUID) (*models.Submission, error)
	FindByIDWithFindings(id uuid.UUID) (*models.Submission, error)
	ListByOwner(ownerID uuid.UUID) ([]models.Submission, error)
	ListAll() ([]models.Submission, error)

	// FinalizeDetection transitions processing → completed, stores the
	// aggregate scores and inserts the findings in one transaction. The
	// update is guarded on the current status, so of any concurrent
	// finalizers (detection callback vs admin approval) exactly one wins.
	// Returns false when the submission was not in processing anymore or
	// does not exist.
	FinalizeDetection(id uuid.UUID, plagiarismScore, aiPlagiarismScore int, findings []models.Finding) (bool, error)

	// ForceComplete transitions processing → completed without touching
	// scores. Returns false when the submission was already terminal or
	// does not exist.
	ForceComplete(id uuid.UUID) (bool, error)

	// ForceReject moves any not-yet-rejected submission to rejected.
	// Returns false when it was already rejected or does not exist.
	ForceReject(id uuid.UUID) (bool, error)

	// Delete removes the submission and its findings.
	Delete(id uuid.UUID) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(sub *models.Submission) error {
	if err := r.db.Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) FindByID(id uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepository) FindByIDWithFindings(id uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.
		Preload("Findings", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}
	return &sub, nil
}

func (r *submissionRepository) ListByOwner(ownerID uuid.UUID) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (r *submissionRepository) ListAll() ([]models.Submission, error) {
	var subs []models.Submission
	if err := r.db.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (r *submissionRepository) FinalizeDetection(id uuid.UUID, plagiarismScore, aiPlagiarismScore int, findings []models.Finding) (bool, error) {
	won := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", id, models.StatusProcessing).
			Updates(map[string]interface{}{
				"status":              models.StatusCompleted,
				"plagiarism_score":    plagiarismScore,
				"ai_plagiarism_score": aiPlagiarismScore,
				"updated_at":          time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to finalize submission: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if len(findings) > 0 {
			if err := tx.Create(&findings).Error; err != nil {
				return fmt.Errorf("failed to insert findings: %w", err)
			}
		}

		won = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return won, nil
}

func (r *submissionRepository) ForceComplete(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":     models.StatusCompleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete submission: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) ForceReject(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Submission{}).
		Where("id = ? AND status <> ?", id, models.StatusRejected).
		Updates(map[string]interface{}{
			"status":     models.StatusRejected,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reject submission: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", id).Delete(&models.Finding{}).Error; err != nil {
			return fmt.Errorf("failed to delete findings: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Submission{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete submission: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
