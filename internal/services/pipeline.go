package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wailsapp/mimetype"

	"thesisguard/internal/models"
	"thesisguard/internal/repositories"
)

// Intake validation limits.
const (
	MinTitleLength    = 5
	MinAbstractLength = 20
	MaxDocumentSize   = 20 << 20
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type IntakeParams struct {
	Title    string
	Abstract string
	Faculty  string
	Filename string
	Document []byte
	CheckAI  bool
}

// Report is the derived read view over a submission: its aggregate scores,
// the verdict messages computed from them, and the findings in detector
// emission order. It is never stored.
type Report struct {
	Submission *models.Submission
	Verdicts   []string
	Findings   []models.Finding
}

// ReviewPipeline owns the submission state machine. A submission enters in
// processing via Intake, and leaves it exactly once: through the detection
// callback or through an admin decision. All mutating operations authorize
// via the access policy before touching state.
type ReviewPipeline interface {
	Intake(ctx context.Context, owner *models.Account, params IntakeParams) (*models.Submission, error)
	CompleteDetection(ctx context.Context, submissionID uuid.UUID, findings []models.Finding) error
	AdminOverride(ctx context.Context, submissionID uuid.UUID, actor *models.Account, decision Decision) (*models.Submission, error)
	Delete(ctx context.Context, submissionID uuid.UUID, actor *models.Account) error
	List(ctx context.Context, actor *models.Account) ([]models.Submission, error)
	GetReport(ctx context.Context, submissionID uuid.UUID, actor *models.Account) (*Report, error)
	Download(ctx context.Context, submissionID uuid.UUID, actor *models.Account) ([]byte, string, error)
}

type reviewPipeline struct {
	subRepo    repositories.SubmissionRepository
	store      DocumentStore
	dispatcher Dispatcher
}

func NewReviewPipeline(
	subRepo repositories.SubmissionRepository,
	store DocumentStore,
	dispatcher Dispatcher,
) ReviewPipeline {
	return &reviewPipeline{
		subRepo:    subRepo,
		store:      store,
		dispatcher: dispatcher,
	}
}

// Intake implements ReviewPipeline. The file checks run before anything is
// persisted, so a rejected upload leaves no partial state. Detection is
// dispatched asynchronously; the submission returns in processing.
func (p *reviewPipeline) Intake(ctx context.Context, owner *models.Account, params IntakeParams) (*models.Submission, error) {
	if utf8.RuneCountInString(strings.TrimSpace(params.Title)) < MinTitleLength {
		return nil, newValidationError("title", fmt.Sprintf("must be at least %d characters", MinTitleLength))
	}
	if utf8.RuneCountInString(strings.TrimSpace(params.Abstract)) < MinAbstractLength {
		return nil, newValidationError("abstract", fmt.Sprintf("must be at least %d characters", MinAbstractLength))
	}
	if strings.TrimSpace(params.Faculty) == "" {
		return nil, newValidationError("faculty", "must not be empty")
	}
	if len(params.Document) == 0 {
		return nil, newValidationError("document", "must not be empty")
	}
	if int64(len(params.Document)) > MaxDocumentSize {
		return nil, ErrPayloadTooLarge
	}

	mt := mimetype.Detect(params.Document)
	if !mt.Is(MimePDF) && !mt.Is(MimeDOCX) {
		return nil, ErrUnsupportedMedia
	}
	detectedMime := MimePDF
	if mt.Is(MimeDOCX) {
		detectedMime = MimeDOCX
	}

	ref, err := p.store.Put(ctx, params.Document, detectedMime)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	sub := &models.Submission{
		ID:               uuid.New(),
		OwnerID:          owner.ID,
		Title:            params.Title,
		Abstract:         params.Abstract,
		Faculty:          params.Faculty,
		DocumentRef:      ref,
		OriginalFileName: params.Filename,
		MimeType:         detectedMime,
		AICheckRequested: params.CheckAI,
		Status:           models.StatusProcessing,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := p.subRepo.Create(sub); err != nil {
		// Cleanup stored document if the database insert fails
		if delErr := p.store.Delete(ctx, ref); delErr != nil {
			log.Printf("⚠️  Failed to clean up document %s: %v\n", ref, delErr)
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	checks := []models.FindingKind{models.KindTraditional}
	if params.CheckAI {
		checks = append(checks, models.KindAIGenerated)
	}

	p.dispatcher.Enqueue(DetectionJob{
		SubmissionID: sub.ID,
		DocumentRef:  ref,
		MimeType:     detectedMime,
		Checks:       checks,
	})

	return sub, nil
}

// CompleteDetection implements ReviewPipeline. It is the gateway's callback
// once every dispatched check has reported. The transition out of
// processing is a guarded update, so a concurrent admin decision and this
// callback cannot both win; the loser observes ErrAlreadyFinalized. A
// callback for a deleted submission is a silent no-op.
func (p *reviewPipeline) CompleteDetection(ctx context.Context, submissionID uuid.UUID, findings []models.Finding) error {
	plagiarismScore, aiPlagiarismScore := Aggregate(findings)

	for i := range findings {
		findings[i].ID = uuid.New()
		findings[i].SubmissionID = submissionID
		findings[i].Position = i
		findings[i].CreatedAt = time.Now()
	}

	won, err := p.subRepo.FinalizeDetection(submissionID, plagiarismScore, aiPlagiarismScore, findings)
	if err != nil {
		return fmt.Errorf("failed to finalize detection: %w", err)
	}
	if won {
		log.Printf("✅ Detection completed for %s: traditional=%d ai=%d findings=%d\n",
			submissionID, plagiarismScore, aiPlagiarismScore, len(findings))
		return nil
	}

	if _, err := p.subRepo.FindByID(submissionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Submission was deleted while detection ran; drop the
			// late findings without penalizing the detector.
			log.Printf("ℹ️  Dropping late findings for deleted submission %s\n", submissionID)
			return nil
		}
		return err
	}

	return ErrAlreadyFinalized
}

// AdminOverride implements ReviewPipeline. Approve forces completion of a
// still-processing review, leaving the scores absent if detection never
// reported. Reject forces rejection from any state.
func (p *reviewPipeline) AdminOverride(ctx context.Context, submissionID uuid.UUID, actor *models.Account, decision Decision) (*models.Submission, error) {
	if !CanDecide(actor) {
		return nil, ErrForbidden
	}

	var (
		applied bool
		err     error
	)
	switch decision {
	case DecisionApprove:
		applied, err = p.subRepo.ForceComplete(submissionID)
	case DecisionReject:
		applied, err = p.subRepo.ForceReject(submissionID)
	default:
		return nil, newValidationError("decision", "must be approve or reject")
	}
	if err != nil {
		return nil, err
	}

	if !applied {
		if _, findErr := p.subRepo.FindByID(submissionID); findErr != nil {
			if errors.Is(findErr, repositories.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, findErr
		}
		return nil, ErrAlreadyFinalized
	}

	sub, err := p.subRepo.FindByID(submissionID)
	if err != nil {
		return nil, err
	}

	log.Printf("⚖️  Admin %s decided %s for submission %s\n", actor.ID, decision, submissionID)
	return sub, nil
}

// Delete implements ReviewPipeline. Cascades to findings and the stored
// document; late detection callbacks for the removed id become no-ops.
func (p *reviewPipeline) Delete(ctx context.Context, submissionID uuid.UUID, actor *models.Account) error {
	sub, err := p.subRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !CanDelete(actor, sub) {
		return ErrForbidden
	}

	if err := p.subRepo.Delete(submissionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	// The database row is gone; a failed blob delete only leaks storage.
	if err := p.store.Delete(ctx, sub.DocumentRef); err != nil {
		log.Printf("⚠️  Failed to delete document %s: %v\n", sub.DocumentRef, err)
	}

	return nil
}

// List implements ReviewPipeline. Owners see their own submissions, admins
// see all, newest upload first.
func (p *reviewPipeline) List(ctx context.Context, actor *models.Account) ([]models.Submission, error) {
	if actor.IsAdmin {
		return p.subRepo.ListAll()
	}
	return p.subRepo.ListByOwner(actor.ID)
}

// GetReport implements ReviewPipeline. Verdicts are computed from the
// stored scores; a submission whose scores are still absent (processing, or
// force-approved before detection reported) has none.
func (p *reviewPipeline) GetReport(ctx context.Context, submissionID uuid.UUID, actor *models.Account) (*Report, error) {
	sub, err := p.subRepo.FindByIDWithFindings(submissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !CanView(actor, sub) {
		return nil, ErrForbidden
	}

	var verdicts []string
	if sub.PlagiarismScore != nil && sub.AIPlagiarismScore != nil {
		verdicts = Verdicts(*sub.PlagiarismScore, *sub.AIPlagiarismScore)
	}

	return &Report{
		Submission: sub,
		Verdicts:   verdicts,
		Findings:   sub.Findings,
	}, nil
}

// Download implements ReviewPipeline.
func (p *reviewPipeline) Download(ctx context.Context, submissionID uuid.UUID, actor *models.Account) ([]byte, string, error) {
	sub, err := p.subRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	if !CanView(actor, sub) {
		return nil, "", ErrForbidden
	}

	data, err := p.store.Get(ctx, sub.DocumentRef)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch document: %w", err)
	}

	return data, sub.MimeType, nil
}
