package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"thesisguard/internal/config"
	"thesisguard/internal/services"
)

// Ingests a directory of reference documents (published papers, journals,
// prior theses) into the Qdrant corpus that the traditional-overlap check
// searches. Each file's passages are embedded and stored with the file name
// as the citation source.
func main() {
	log.Println("🚀 Starting reference corpus ingestion...")

	corpusDir := "./reference_corpus"
	if len(os.Args) > 1 {
		corpusDir = os.Args[1]
	}

	// Load configuration
	cfg := config.Load()

	// Initialize services
	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	index, err := services.NewReferenceIndex(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := index.InitCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	extractor := services.NewTextExtractor()
	splitter := services.NewPassageSplitter()

	ctx := context.Background()

	entries, err := os.ReadDir(corpusDir)
	if err != nil {
		log.Fatalf("❌ Failed to read corpus directory %s: %v", corpusDir, err)
	}

	successCount := 0
	failCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		var mimeType string
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf":
			mimeType = services.MimePDF
		case ".docx":
			mimeType = services.MimeDOCX
		default:
			log.Printf("⚠️  Skipping %s: unsupported extension", entry.Name())
			continue
		}

		path := filepath.Join(corpusDir, entry.Name())
		log.Printf("\n📄 Processing: %s", entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("   ❌ Failed to read file: %v", err)
			failCount++
			continue
		}

		// Extract text
		log.Printf("   📖 Extracting text...")
		text, err := extractor.Extract(data, mimeType)
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}

		// Split into passages
		passages := splitter.Split(text, 1000, 200)
		log.Printf("   ✂️  Created %d passages", len(passages))

		// Embed and store each passage
		source := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		for i, passage := range passages {
			embedding, err := geminiService.GenerateEmbedding(ctx, passage)
			if err != nil {
				log.Printf("   ❌ Failed to generate embedding for passage %d: %v", i+1, err)
				continue
			}

			passageID := fmt.Sprintf("%s_passage_%d", source, i)

			if err := index.UpsertPassage(ctx, passageID, source, passage, embedding); err != nil {
				log.Printf("   ❌ Failed to store passage %d: %v", i+1, err)
				continue
			}

			if (i+1)%5 == 0 || i == len(passages)-1 {
				log.Printf("   📊 Progress: %d/%d passages stored", i+1, len(passages))
			}
		}

		log.Printf("   ✅ Successfully ingested %s", entry.Name())
		successCount++
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Ingestion Summary:")
	log.Printf("   ✅ Successful: %d documents", successCount)
	log.Printf("   ❌ Failed: %d documents", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some documents failed to ingest. Please check the logs above.")
		os.Exit(1)
	}

	log.Println("✅ Reference corpus ingested successfully!")
}
