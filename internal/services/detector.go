package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"thesisguard/internal/models"
)

// DetectorBackend performs one similarity check over extracted document
// text. Every finding it emits must carry its own kind and a similarity in
// [0,100].
type DetectorBackend interface {
	Kind() models.FindingKind
	Check(ctx context.Context, text string) ([]models.Finding, error)
}

// DetectionCompleter receives the accumulated findings once every
// dispatched check has reported.
type DetectionCompleter interface {
	CompleteDetection(ctx context.Context, submissionID uuid.UUID, findings []models.Finding) error
}

// DetectorGateway runs the dispatched checks for one submission and
// delivers the accumulated findings to the completer exactly once. A check
// that errors aborts delivery entirely: the submission must stay in
// processing rather than complete on a check that never reported, so an
// admin can retry or decide manually. The gateway, not the pipeline, is
// responsible for not calling back twice for the same dispatch.
type DetectorGateway interface {
	Dispatch(ctx context.Context, job DetectionJob) error
}

type detectorGateway struct {
	store     DocumentStore
	extractor TextExtractor
	backends  map[models.FindingKind]DetectorBackend
	completer DetectionCompleter
}

func NewDetectorGateway(
	store DocumentStore,
	extractor TextExtractor,
	completer DetectionCompleter,
	backends ...DetectorBackend,
) DetectorGateway {
	byKind := make(map[models.FindingKind]DetectorBackend, len(backends))
	for _, b := range backends {
		byKind[b.Kind()] = b
	}

	return &detectorGateway{
		store:     store,
		extractor: extractor,
		backends:  byKind,
		completer: completer,
	}
}

// Dispatch implements DetectorGateway.
func (g *detectorGateway) Dispatch(ctx context.Context, job DetectionJob) error {
	data, err := g.store.Get(ctx, job.DocumentRef)
	if err != nil {
		return fmt.Errorf("failed to load document for %s: %w", job.SubmissionID, err)
	}

	text, err := g.extractor.Extract(data, job.MimeType)
	if err != nil {
		return fmt.Errorf("failed to extract text for %s: %w", job.SubmissionID, err)
	}

	// Partial results accumulate here; delivery happens once, after the
	// last dispatched check reports.
	var findings []models.Finding
	for _, kind := range job.Checks {
		backend, ok := g.backends[kind]
		if !ok {
			return fmt.Errorf("no detector backend for check %q", kind)
		}

		checkFindings, err := backend.Check(ctx, text)
		if err != nil {
			return fmt.Errorf("%s check failed for %s: %w", kind, job.SubmissionID, err)
		}

		log.Printf("🔍 %s check reported %d finding(s) for %s\n", kind, len(checkFindings), job.SubmissionID)
		findings = append(findings, checkFindings...)
	}

	return g.completer.CompleteDetection(ctx, job.SubmissionID, findings)
}
