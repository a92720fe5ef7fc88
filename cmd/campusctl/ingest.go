package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/campusnav/campus-navigator-go/internal/app"
	"github.com/campusnav/campus-navigator-go/internal/genai"
	"github.com/campusnav/campus-navigator-go/internal/logger"
	"github.com/campusnav/campus-navigator-go/internal/rag"
	"github.com/campusnav/campus-navigator-go/internal/ratelimit"
	"github.com/campusnav/campus-navigator-go/internal/storage"
)

var (
	ingestDir     string
	ingestWorkers int
	ingestBatch   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed knowledge text files into the database",
	Long: `Split every *.txt file in --dir into sentences, embed them as retrieval
documents and replace the stored knowledge chunks. Batches that fail to
embed are logged and skipped. Requires a Gemini API key.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestDir, "dir", "d", "", "directory of .txt knowledge files (default: CAMPUS_KNOWLEDGE_DIR)")
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 4, "concurrent embedding requests")
	ingestCmd.Flags().IntVar(&ingestBatch, "batch", 16, "sentences per embedding request")
	rootCmd.AddCommand(ingestCmd)
}

// documentEmbedder embeds corpus text. *genai.GeminiEmbedder implements it.
type documentEmbedder interface {
	EmbedDocuments(ctx context.Context, title string, texts []string) ([][]float32, error)
}

// sourceFile is one knowledge file split into sentences.
type sourceFile struct {
	name      string
	sentences []string
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	dir := ingestDir
	if dir == "" {
		dir = e.cfg.Data.KnowledgeDir
	}
	files, err := readSources(dir)
	if err != nil {
		return err
	}
	total := 0
	for _, f := range files {
		total += len(f.sentences)
	}
	if total == 0 {
		return fmt.Errorf("no sentences found in %s", dir)
	}

	if !e.cfg.HasEmbedder() {
		return errors.New("ingest needs a Gemini API key for embeddings")
	}
	llm := app.BuildLLMConfig(e.cfg, e.log)
	emb, err := genai.NewEmbedder(ctx, llm,
		genai.WithBlockingLimiter(ratelimit.New(e.cfg.RateLimit.LLMBurst, e.cfg.RateLimit.LLMRefill)),
		genai.WithLogger(e.log.WithModule("genai").Logger))
	if err != nil {
		return err
	}
	if emb == nil {
		return errors.New("ingest needs a Gemini API key for embeddings")
	}

	section(fmt.Sprintf("Ingesting %d sentences from %d files", total, len(files)))
	bar := newProgressBar(total, "Embedding")

	var chunks []storage.KnowledgeChunk
	skipped := 0
	for _, f := range files {
		got := embedFile(ctx, emb, f, ingestBatch, ingestWorkers, e.log, bar)
		skipped += len(f.sentences) - len(got)
		chunks = append(chunks, got...)
	}
	_ = bar.Finish()
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return errors.New("every embedding request failed, keeping existing knowledge")
	}

	if err := e.db.ReplaceChunks(ctx, chunks); err != nil {
		return err
	}

	success("Stored %d knowledge chunks", len(chunks))
	field(os.Stderr, "model", emb.Model())
	field(os.Stderr, "database", e.db.Path())
	if skipped > 0 {
		warn("%d sentences skipped after embedding errors", skipped)
	}
	return nil
}

// readSources reads every .txt file in dir in name order.
func readSources(dir string) ([]sourceFile, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .txt files in %s", dir)
	}
	slices.Sort(paths)

	files := make([]sourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, sourceFile{
			name:      filepath.Base(p),
			sentences: rag.SplitSentences(string(data)),
		})
	}
	return files, nil
}

// embedFile embeds f's sentences in batches, at most workers at a time,
// and returns chunks in sentence order. Failed batches are logged and left
// out.
func embedFile(ctx context.Context, emb documentEmbedder, f sourceFile, batchSize, workers int, log *logger.Logger, bar *progressbar.ProgressBar) []storage.KnowledgeChunk {
	batchSize = max(1, batchSize)
	batches := slices.Collect(slices.Chunk(f.sentences, batchSize))
	vectors := make([][][]float32, len(batches))
	title := "Content from " + f.name

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, batch := range batches {
		g.Go(func() error {
			defer func() {
				if bar != nil {
					_ = bar.Add(len(batch))
				}
			}()
			v, err := emb.EmbedDocuments(gctx, title, batch)
			if err != nil {
				log.WithError(err).WithFields(map[string]any{
					"file":  f.name,
					"batch": i,
				}).Warn("Embedding batch failed, skipping")
				return nil
			}
			if len(v) != len(batch) {
				log.WithFields(map[string]any{
					"file":  f.name,
					"batch": i,
					"got":   len(v),
				}).Warn("Embedding batch size mismatch, skipping")
				return nil
			}
			vectors[i] = v
			return nil
		})
	}
	_ = g.Wait()

	chunks := make([]storage.KnowledgeChunk, 0, len(f.sentences))
	for i, batch := range batches {
		if vectors[i] == nil {
			continue
		}
		for j, sentence := range batch {
			chunks = append(chunks, storage.KnowledgeChunk{
				Content:   strings.TrimSpace(sentence),
				Source:    f.name,
				Embedding: vectors[i][j],
			})
		}
	}
	return chunks
}
