package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"alfredoptarigan/essay-marker/internal/config"
	"alfredoptarigan/essay-marker/internal/services"
)

// Ingests examiner reports and mark schemes into Qdrant. Every PDF under the
// guidance directory (first argument, default ./guidance_docs) is chunked,
// embedded and stored. Re-running replaces a document's previous passages.
func main() {
	log.Println("🚀 Starting guidance ingestion...")

	cfg := config.Load()

	dir := "./guidance_docs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		log.Fatalf("❌ Failed to list %s: %v", dir, err)
	}
	if len(paths) == 0 {
		log.Fatalf("❌ No PDF files found in %s", dir)
	}

	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	store, err := services.NewQdrantStore(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	ctx := context.Background()

	if err := store.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	chunker := services.NewTextChunker()

	successCount := 0
	failCount := 0

	for _, path := range paths {
		source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		kind := guidanceKind(source)

		log.Printf("\n📄 Processing: %s (%s)", source, kind)

		content, err := pdfParser.ExtractText(path)
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}
		log.Printf("   ✅ Extracted %d pages, %d characters", content.PageCount, len(content.Text))

		chunks := chunker.ChunkText(content.Text, 1000, 200)
		log.Printf("   ✂️  Created %d chunks", len(chunks))

		if err := store.DeleteSource(ctx, source); err != nil {
			log.Printf("   ❌ Failed to clear previous passages: %v", err)
			failCount++
			continue
		}

		stored := 0
		for i, chunk := range chunks {
			embedding, err := geminiService.GenerateEmbedding(ctx, chunk)
			if err != nil {
				log.Printf("   ❌ Failed to generate embedding for chunk %d: %v", i+1, err)
				continue
			}

			passage := services.GuidancePassage{
				Source:     source,
				Kind:       kind,
				ChunkIndex: i,
				Text:       chunk,
			}
			if err := store.UpsertPassage(ctx, passage, embedding); err != nil {
				log.Printf("   ❌ Failed to store chunk %d: %v", i+1, err)
				continue
			}
			stored++

			if (i+1)%5 == 0 || i == len(chunks)-1 {
				log.Printf("   📊 Progress: %d/%d chunks stored", i+1, len(chunks))
			}
		}

		if stored == 0 {
			failCount++
			continue
		}
		log.Printf("   ✅ Ingested %s", source)
		successCount++
	}

	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Ingestion Summary:")
	log.Printf("   ✅ Successful: %d documents", successCount)
	log.Printf("   ❌ Failed: %d documents", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some documents failed to ingest. Please check the logs above.")
		os.Exit(1)
	}

	log.Println("✅ All guidance ingested successfully!")
}

func guidanceKind(source string) string {
	name := strings.ToLower(source)
	switch {
	case strings.Contains(name, "mark_scheme") || strings.Contains(name, "markscheme"):
		return "mark_scheme"
	case strings.Contains(name, "examiner"):
		return "examiner_report"
	}
	return "guidance"
}
