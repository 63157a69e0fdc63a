package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thesisguard/internal/models"
)

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) Extract(data []byte, mimeType string) (string, error) {
	return e.text, e.err
}

type stubBackend struct {
	kind     models.FindingKind
	findings []models.Finding
	err      error
}

func (b *stubBackend) Kind() models.FindingKind { return b.kind }

func (b *stubBackend) Check(ctx context.Context, text string) ([]models.Finding, error) {
	return b.findings, b.err
}

type countingCompleter struct {
	mu       sync.Mutex
	calls    int
	findings []models.Finding
}

func (c *countingCompleter) CompleteDetection(ctx context.Context, submissionID uuid.UUID, findings []models.Finding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.findings = findings
	return nil
}

func TestGatewayDeliversAccumulatedFindingsOnce(t *testing.T) {
	ctx := context.Background()
	store := newFakeDocumentStore()
	ref, err := store.Put(ctx, pdfDocument(), MimePDF)
	require.NoError(t, err)

	traditional := &stubBackend{
		kind: models.KindTraditional,
		findings: []models.Finding{
			{Kind: models.KindTraditional, Similarity: 42, Passage: "p1"},
		},
	}
	ai := &stubBackend{
		kind: models.KindAIGenerated,
		findings: []models.Finding{
			{Kind: models.KindAIGenerated, Similarity: 77, Passage: "p2"},
		},
	}
	completer := &countingCompleter{}

	gateway := NewDetectorGateway(store, &fakeExtractor{text: "extracted"}, completer, traditional, ai)

	err = gateway.Dispatch(ctx, DetectionJob{
		SubmissionID: uuid.New(),
		DocumentRef:  ref,
		MimeType:     MimePDF,
		Checks:       []models.FindingKind{models.KindTraditional, models.KindAIGenerated},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, completer.calls)
	require.Len(t, completer.findings, 2)
	assert.Equal(t, models.KindTraditional, completer.findings[0].Kind)
	assert.Equal(t, models.KindAIGenerated, completer.findings[1].Kind)
}

func TestGatewayRunsOnlyDispatchedChecks(t *testing.T) {
	ctx := context.Background()
	store := newFakeDocumentStore()
	ref, err := store.Put(ctx, pdfDocument(), MimePDF)
	require.NoError(t, err)

	traditional := &stubBackend{
		kind: models.KindTraditional,
		findings: []models.Finding{
			{Kind: models.KindTraditional, Similarity: 42},
		},
	}
	ai := &stubBackend{
		kind: models.KindAIGenerated,
		findings: []models.Finding{
			{Kind: models.KindAIGenerated, Similarity: 77},
		},
	}
	completer := &countingCompleter{}

	gateway := NewDetectorGateway(store, &fakeExtractor{text: "extracted"}, completer, traditional, ai)

	err = gateway.Dispatch(ctx, DetectionJob{
		SubmissionID: uuid.New(),
		DocumentRef:  ref,
		MimeType:     MimePDF,
		Checks:       []models.FindingKind{models.KindTraditional},
	})
	require.NoError(t, err)

	require.Len(t, completer.findings, 1)
	assert.Equal(t, models.KindTraditional, completer.findings[0].Kind)
}

func TestGatewayAbortsOnBackendError(t *testing.T) {
	ctx := context.Background()
	store := newFakeDocumentStore()
	ref, err := store.Put(ctx, pdfDocument(), MimePDF)
	require.NoError(t, err)

	traditional := &stubBackend{kind: models.KindTraditional, err: errors.New("upstream timeout")}
	completer := &countingCompleter{}

	gateway := NewDetectorGateway(store, &fakeExtractor{text: "extracted"}, completer, traditional)

	err = gateway.Dispatch(ctx, DetectionJob{
		SubmissionID: uuid.New(),
		DocumentRef:  ref,
		MimeType:     MimePDF,
		Checks:       []models.FindingKind{models.KindTraditional},
	})

	// The submission must stay in processing, so no callback is delivered.
	assert.Error(t, err)
	assert.Equal(t, 0, completer.calls)
}

func TestGatewayAbortsOnExtractionError(t *testing.T) {
	ctx := context.Background()
	store := newFakeDocumentStore()
	ref, err := store.Put(ctx, []byte("broken"), MimePDF)
	require.NoError(t, err)

	completer := &countingCompleter{}
	gateway := NewDetectorGateway(store, &fakeExtractor{err: errors.New("corrupt file")}, completer,
		&stubBackend{kind: models.KindTraditional})

	err = gateway.Dispatch(ctx, DetectionJob{
		SubmissionID: uuid.New(),
		DocumentRef:  ref,
		MimeType:     MimePDF,
		Checks:       []models.FindingKind{models.KindTraditional},
	})

	assert.Error(t, err)
	assert.Equal(t, 0, completer.calls)
}

func TestGatewayRejectsUnknownCheck(t *testing.T) {
	ctx := context.Background()
	store := newFakeDocumentStore()
	ref, err := store.Put(ctx, pdfDocument(), MimePDF)
	require.NoError(t, err)

	completer := &countingCompleter{}
	gateway := NewDetectorGateway(store, &fakeExtractor{text: "extracted"}, completer,
		&stubBackend{kind: models.KindTraditional})

	err = gateway.Dispatch(ctx, DetectionJob{
		SubmissionID: uuid.New(),
		DocumentRef:  ref,
		MimeType:     MimePDF,
		Checks:       []models.FindingKind{models.KindAIGenerated},
	})

	assert.Error(t, err)
	assert.Equal(t, 0, completer.calls)
}

func TestSimulatedDetectorsAreDeterministic(t *testing.T) {
	ctx := context.Background()
	splitter := NewPassageSplitter()
	text := "Chapter one introduces the problem.\n\nChapter two surveys related work in depth."

	for _, backend := range []DetectorBackend{
		NewSimulatedTraditionalDetector(splitter, 0),
		NewSimulatedAIDetector(splitter, 0),
	} {
		first, err := backend.Check(ctx, text)
		require.NoError(t, err)
		second, err := backend.Check(ctx, text)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.LessOrEqual(t, len(first), simulatedMaxFindings)
		for _, finding := range first {
			assert.Equal(t, backend.Kind(), finding.Kind)
			assert.GreaterOrEqual(t, finding.Similarity, 0)
			assert.LessOrEqual(t, finding.Similarity, 100)
		}
	}
}

func TestSimulatedDetectorsHonorFloor(t *testing.T) {
	ctx := context.Background()
	splitter := NewPassageSplitter()
	text := "Some ordinary thesis prose about distributed consensus protocols."

	backend := NewSimulatedTraditionalDetector(splitter, 101)
	findings, err := backend.Check(ctx, text)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestSimulatedAIDetectorMarksSource(t *testing.T) {
	ctx := context.Background()
	splitter := NewPassageSplitter()

	backend := NewSimulatedAIDetector(splitter, 0)
	findings, err := backend.Check(ctx, "A short passage about neural text generation.")
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	for _, finding := range findings {
		assert.Equal(t, models.SourceAIGenerated, finding.Source)
	}
}
