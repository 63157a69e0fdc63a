package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"thesisguard/internal/models"
)

// ReferenceIndex holds the embedded reference corpus (published papers,
// journals, prior theses) that the traditional check matches against.
type ReferenceIndex interface {
	InitCollection() error
	UpsertPassage(ctx context.Context, passageID, source, text string, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]ReferenceMatch, error)
}

type ReferenceMatch struct {
	ID     string
	Score  float32
	Text   string
	Source string
}

type referenceIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewReferenceIndex(urlStr, apiKey, collectionName string) (ReferenceIndex, error) {
	// Parse URL to extract host, port, and TLS usage
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// For gRPC client, use port 6334 by default (gRPC port)
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &referenceIndex{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // Gemini text-embedding-004 size
	}, nil
}

// InitCollection implements ReferenceIndex.
func (q *referenceIndex) InitCollection() error {
	ctx := context.Background()

	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Println("✅ Collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})

	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// UpsertPassage implements ReferenceIndex.
func (q *referenceIndex) UpsertPassage(ctx context.Context, passageID, source, text string, embedding []float32) error {
	pointID := uuid.New()

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(pointID.ID())),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"passage_id": passageID,
			"source":     source,
			"text":       text,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchSimilar implements ReferenceIndex.
func (q *referenceIndex) SearchSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]ReferenceMatch, error) {
	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var results []ReferenceMatch
	for _, point := range searchResult {
		payload := point.Payload

		result := ReferenceMatch{
			Score: point.Score,
		}

		if id, ok := payload["passage_id"]; ok {
			if val, ok := id.GetKind().(*qdrant.Value_StringValue); ok {
				result.ID = val.StringValue
			}
		}

		if text, ok := payload["text"]; ok {
			if val, ok := text.GetKind().(*qdrant.Value_StringValue); ok {
				result.Text = val.StringValue
			}
		}

		if source, ok := payload["source"]; ok {
			if val, ok := source.GetKind().(*qdrant.Value_StringValue); ok {
				result.Source = val.StringValue
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// corpusTraditionalDetector matches thesis passages against the reference
// corpus: each passage is embedded and its nearest corpus neighbours above
// the similarity floor become findings citing the corpus source.
type corpusTraditionalDetector struct {
	gemini   GeminiService
	index    ReferenceIndex
	splitter PassageSplitter
	floor    int
}

// NewCorpusTraditionalDetector returns the live traditional-overlap check
// backend. floor is the minimum similarity percentage worth reporting.
func NewCorpusTraditionalDetector(gemini GeminiService, index ReferenceIndex, splitter PassageSplitter, floor int) DetectorBackend {
	return &corpusTraditionalDetector{
		gemini:   gemini,
		index:    index,
		splitter: splitter,
		floor:    floor,
	}
}

func (d *corpusTraditionalDetector) Kind() models.FindingKind {
	return models.KindTraditional
}

// Check implements DetectorBackend.
func (d *corpusTraditionalDetector) Check(ctx context.Context, text string) ([]models.Finding, error) {
	var findings []models.Finding

	for _, passage := range d.splitter.Split(text, 1000, 200) {
		embedding, err := d.gemini.GenerateEmbedding(ctx, passage)
		if err != nil {
			return nil, fmt.Errorf("failed to embed passage: %w", err)
		}

		matches, err := d.index.SearchSimilar(ctx, embedding, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to search reference corpus: %w", err)
		}
		if len(matches) == 0 {
			continue
		}

		best := matches[0]
		similarity := int(best.Score * 100)
		if similarity > 100 {
			similarity = 100
		}
		if similarity < d.floor {
			continue
		}

		findings = append(findings, models.Finding{
			Passage:    passage,
			Source:     best.Source,
			Similarity: similarity,
			Kind:       models.KindTraditional,
		})
	}

	return findings, nil
}
