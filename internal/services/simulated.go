package services

import (
	"context"
	"fmt"
	"hash/fnv"

	"thesisguard/internal/models"
)

// Simulated detector backends for development and tests. They are
// deterministic: the same document text always yields the same findings,
// derived from a hash of each passage.

const simulatedMaxFindings = 5

type simulatedTraditionalDetector struct {
	splitter PassageSplitter
	floor    int
}

func NewSimulatedTraditionalDetector(splitter PassageSplitter, floor int) DetectorBackend {
	return &simulatedTraditionalDetector{splitter: splitter, floor: floor}
}

func (d *simulatedTraditionalDetector) Kind() models.FindingKind {
	return models.KindTraditional
}

// Check implements DetectorBackend.
func (d *simulatedTraditionalDetector) Check(ctx context.Context, text string) ([]models.Finding, error) {
	var findings []models.Finding

	for _, passage := range d.splitter.Split(text, 1000, 0) {
		h := passageHash(passage, "traditional")
		similarity := int(h % 101)
		if similarity < d.floor {
			continue
		}

		findings = append(findings, models.Finding{
			Passage:    passage,
			Source:     fmt.Sprintf("https://scholar.example.edu/works/%08x", h),
			Similarity: similarity,
			Kind:       models.KindTraditional,
		})
		if len(findings) == simulatedMaxFindings {
			break
		}
	}

	return findings, nil
}

type simulatedAIDetector struct {
	splitter PassageSplitter
	floor    int
}

func NewSimulatedAIDetector(splitter PassageSplitter, floor int) DetectorBackend {
	return &simulatedAIDetector{splitter: splitter, floor: floor}
}

func (d *simulatedAIDetector) Kind() models.FindingKind {
	return models.KindAIGenerated
}

// Check implements DetectorBackend.
func (d *simulatedAIDetector) Check(ctx context.Context, text string) ([]models.Finding, error) {
	var findings []models.Finding

	for _, passage := range d.splitter.Split(text, 1000, 0) {
		h := passageHash(passage, "ai")
		similarity := int(h % 101)
		if similarity < d.floor {
			continue
		}

		findings = append(findings, models.Finding{
			Passage:    passage,
			Source:     models.SourceAIGenerated,
			Similarity: similarity,
			Kind:       models.KindAIGenerated,
		})
		if len(findings) == simulatedMaxFindings {
			break
		}
	}

	return findings, nil
}

func passageHash(passage, salt string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(salt))
	h.Write([]byte(passage))
	return h.Sum32()
}
