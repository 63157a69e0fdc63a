package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"thesisguard/internal/models"
)

type GeminiService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
}

func NewGeminiService(apiKey string) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  "gemini-2.5-flash",
		embedModel: "text-embedding-004",
	}, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	return text, nil
}

// GenerateTextWithRetry implements GeminiService.
func (g *geminiService) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := g.GenerateText(ctx, prompt, temperature)
		if err == nil {
			return result, nil
		}

		lastErr = err

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if attempt < maxRetries {
			log.Printf("⚠️  Attempt %d failed: %v. Retrying...\n", attempt, err)
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// geminiAIDetector flags passages that read as AI-generated by asking the
// LLM to classify each passage with a likelihood percentage.
type geminiAIDetector struct {
	gemini     GeminiService
	splitter   PassageSplitter
	maxRetries int
	floor      int
}

// NewGeminiAIDetector returns the live AI-content check backend. Passages
// with a likelihood below floor are not reported as findings.
func NewGeminiAIDetector(gemini GeminiService, splitter PassageSplitter, maxRetries, floor int) DetectorBackend {
	return &geminiAIDetector{
		gemini:     gemini,
		splitter:   splitter,
		maxRetries: maxRetries,
		floor:      floor,
	}
}

func (d *geminiAIDetector) Kind() models.FindingKind {
	return models.KindAIGenerated
}

type aiPassageVerdict struct {
	Passage    string `json:"passage"`
	Likelihood int    `json:"likelihood"`
}

// Check implements DetectorBackend.
func (d *geminiAIDetector) Check(ctx context.Context, text string) ([]models.Finding, error) {
	passages := d.splitter.Split(text, 1000, 0)
	if len(passages) == 0 {
		return nil, nil
	}

	prompt := buildAIDetectionPrompt(passages)

	response, err := d.gemini.GenerateTextWithRetry(ctx, prompt, 0.2, d.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to classify passages: %w", err)
	}

	var verdicts []aiPassageVerdict
	if err := json.Unmarshal([]byte(extractJSON(response)), &verdicts); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w\nResponse: %s", err, response)
	}

	var findings []models.Finding
	for _, v := range verdicts {
		if v.Likelihood < d.floor {
			continue
		}
		if v.Likelihood > 100 {
			v.Likelihood = 100
		}
		findings = append(findings, models.Finding{
			Passage:    v.Passage,
			Source:     models.SourceAIGenerated,
			Similarity: v.Likelihood,
			Kind:       models.KindAIGenerated,
		})
	}

	return findings, nil
}

// buildAIDetectionPrompt asks for a strict JSON array so the response can be
// parsed without post-processing beyond markdown stripping.
func buildAIDetectionPrompt(passages []string) string {
	var listing strings.Builder
	for i, p := range passages {
		listing.WriteString(fmt.Sprintf("--- Passage %d ---\n%s\n\n", i+1, strings.TrimSpace(p)))
	}

	return fmt.Sprintf(`You are an expert reviewer detecting AI-generated writing in academic theses.

THESIS PASSAGES:
%s
For every passage that reads as AI-generated, estimate the likelihood that it was produced by a language model, as an integer percentage from 0 to 100. Skip passages that read as human-written.

Return your response as a JSON array, no other text:
[
  {"passage": "<the exact passage text>", "likelihood": <0-100>}
]

Return [] if every passage reads as human-written. Be conservative: formulaic structure alone is not proof of AI generation.`, listing.String())
}

// extractJSON tries to extract JSON from text that might contain markdown or
// other formatting around it.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startArr != -1 && endArr != -1 && endArr > startArr && (startObj == -1 || startArr < startObj) {
		return text[startArr : endArr+1]
	}
	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	return text
}
