package services

import "thesisguard/internal/models"

// Thresholds for the verdict messages. A single near-verbatim passage should
// not be diluted by many clean ones, so the headline score per kind is the
// worst offending passage, not an average.
const (
	TraditionalThreshold = 15
	AIThreshold          = 10
	CombinedAllowance    = 20
)

const (
	VerdictTraditionalExceeded = "traditional plagiarism exceeds the allowed threshold"
	VerdictAIExceeded          = "AI-generated content exceeds the allowed threshold"
	VerdictWithinLimits        = "within acceptable limits"
	VerdictManualReview        = "requires manual review"
)

// Aggregate folds per-passage findings into the document-level scores.
// Each score is the maximum similarity among findings of that kind, or 0
// when none were reported. Findings of one kind never move the other
// kind's score.
func Aggregate(findings []models.Finding) (plagiarismScore, aiPlagiarismScore int) {
	for _, f := range findings {
		switch f.Kind {
		case models.KindTraditional:
			if f.Similarity > plagiarismScore {
				plagiarismScore = f.Similarity
			}
		case models.KindAIGenerated:
			if f.Similarity > aiPlagiarismScore {
				aiPlagiarismScore = f.Similarity
			}
		}
	}
	return plagiarismScore, aiPlagiarismScore
}

// Verdicts returns every applicable verdict message, in fixed order. The
// threshold checks are independent, so more than one message can apply;
// manual review is the fallback when none did.
func Verdicts(plagiarismScore, aiPlagiarismScore int) []string {
	var verdicts []string

	if plagiarismScore > TraditionalThreshold {
		verdicts = append(verdicts, VerdictTraditionalExceeded)
	}
	if aiPlagiarismScore > AIThreshold {
		verdicts = append(verdicts, VerdictAIExceeded)
	}
	if plagiarismScore+aiPlagiarismScore <= CombinedAllowance {
		verdicts = append(verdicts, VerdictWithinLimits)
	}
	if len(verdicts) == 0 {
		verdicts = append(verdicts, VerdictManualReview)
	}

	return verdicts
}
