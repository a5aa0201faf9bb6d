package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/libria-search/libria/internal/core/domain"
	"github.com/libria-search/libria/internal/core/ports/driven"
	"github.com/libria-search/libria/internal/core/ports/driving"
	"github.com/libria-search/libria/internal/fileutil"
	"github.com/libria-search/libria/internal/logger"
)

// BatchEmbedder is the slice of the embedder the pipeline needs.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// IngestPipeline implements driving.IngestService: download, extract,
// embed, validate and upload, with per-item fault isolation. A failing
// source is recorded with its stage and skipped; only batch-level
// failures (schema, context) abort the run.
type IngestPipeline struct {
	fetcher   driven.Fetcher
	extractor driven.TextExtractor
	embedder  BatchEmbedder
	manager   *IndexManager
	files     *fileutil.Manager
}

var _ driving.IngestService = (*IngestPipeline)(nil)

// NewIngestPipeline wires the pipeline's collaborators.
func NewIngestPipeline(
	fetcher driven.Fetcher,
	extractor driven.TextExtractor,
	embedder BatchEmbedder,
	manager *IndexManager,
	files *fileutil.Manager,
) *IngestPipeline {
	return &IngestPipeline{
		fetcher:   fetcher,
		extractor: extractor,
		embedder:  embedder,
		manager:   manager,
		files:     files,
	}
}

// Run ingests urls into the index. Outcomes are ordered by input index
// and every source gets exactly one entry. When no document survives
// all stages the run fails with domain.ErrNoDocuments; the report still
// carries the per-item diagnoses.
func (p *IngestPipeline) Run(ctx context.Context, urls []string) (*domain.IngestReport, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("run ingestion: %w", domain.ErrEmptyInput)
	}

	logger.Section("Ingestion")
	logger.Info("starting run over %d sources", len(urls))

	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}

	report := &domain.IngestReport{
		RunID:     uuid.NewString(),
		IndexName: p.manager.IndexName(),
		Outcomes:  make([]domain.ItemOutcome, len(urls)),
	}

	// Download and extract each source. srcIdx maps a position in docs
	// back to its input index for failure attribution in later stages.
	var docs []domain.Document
	var srcIdx []int
	for i, url := range urls {
		docID := fmt.Sprintf("doc_%d", i+1)
		report.Outcomes[i] = domain.ItemOutcome{Index: i, URL: url, DocID: docID}

		doc, err := p.processSource(ctx, i, url, docID)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Warn("source %d (%s) failed: %v", i+1, url, err)
			report.Outcomes[i].Err = err
			continue
		}
		docs = append(docs, *doc)
		srcIdx = append(srcIdx, i)
	}

	// Embed in batches. A document whose embedding fails is dropped:
	// the schema requires a vector, so uploading it without one would
	// only fail later with a less useful error.
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return report, fmt.Errorf("embed batch: %w", err)
	}

	var ready []domain.Document
	var readyIdx []int
	for i := range docs {
		if vectors[i] == nil {
			report.Outcomes[srcIdx[i]].Err = domain.NewStageError(
				domain.StageEmbed, fmt.Errorf("no embedding generated for %s", docs[i].ID))
			continue
		}
		docs[i].ContentVector = vectors[i]
		ready = append(ready, docs[i])
		readyIdx = append(readyIdx, srcIdx[i])
	}

	if len(ready) == 0 {
		return report, domain.ErrNoDocuments
	}

	up, err := p.manager.Upload(ctx, ready)
	if err != nil {
		for _, idx := range readyIdx {
			report.Outcomes[idx].Err = domain.NewStageError(domain.StageUpload, err)
		}
		return report, err
	}
	p.recordUpload(report, ready, readyIdx, up)

	if len(report.Documents) == 0 {
		return report, domain.ErrNoDocuments
	}

	logger.Info("run %s complete: %d succeeded, %d failed", report.RunID, report.Succeeded(), report.Failed())
	return report, nil
}

// ensureSchema prepares the index, recovering once from an incompatible
// existing index by retargeting to a timestamp-suffixed name.
func (p *IngestPipeline) ensureSchema(ctx context.Context) error {
	err := p.manager.EnsureSchema(ctx)
	if err == nil {
		return nil
	}

	var incompat *domain.SchemaIncompatibleError
	if !errors.As(err, &incompat) {
		return err
	}

	fresh := fmt.Sprintf("%s-%d", incompat.Index, time.Now().Unix())
	logger.Warn("index %q is schema-incompatible (%s), creating %q instead", incompat.Index, incompat.Reason, fresh)
	p.manager.Rename(fresh)

	return p.manager.EnsureSchema(ctx)
}

// processSource downloads one source to a scoped temp file, extracts
// its text and builds the document record. The temp file never outlives
// the call.
func (p *IngestPipeline) processSource(ctx context.Context, i int, url, docID string) (*domain.Document, error) {
	var doc *domain.Document

	err := p.files.WithTemp(fmt.Sprintf("doc_%d_*.pdf", i+1), func(path string) error {
		f, err := os.Create(path)
		if err != nil {
			return domain.NewStageError(domain.StageDownload, err)
		}
		size, err := p.fetcher.Fetch(ctx, url, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return domain.NewStageError(domain.StageDownload, err)
		}
		logger.Debug("downloaded %s (%d bytes)", url, size)

		in, err := os.Open(path)
		if err != nil {
			return domain.NewStageError(domain.StageExtract, err)
		}
		defer in.Close()

		result, err := p.extractor.Analyze(ctx, in)
		if err != nil {
			return domain.NewStageError(domain.StageExtract, err)
		}

		content := result.Text()
		if content == "" {
			return domain.NewStageError(domain.StageExtract, domain.ErrEmptyContent)
		}

		product := result.Metadata.Title
		if product == "" {
			product = "Unknown Product"
		}

		doc = &domain.Document{
			ID:            docID,
			Content:       content,
			ProductName:   product,
			Filename:      fmt.Sprintf("doc_%d.pdf", i+1),
			Filepath:      path,
			DocumentURL:   url,
			ContentLength: len(content),
			ProcessedAt:   time.Now().UTC(),
		}
		logger.Debug("extracted %d characters from %s (%d pages)", len(content), url, len(result.Pages))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// recordUpload folds the upload report back into per-item outcomes.
func (p *IngestPipeline) recordUpload(report *domain.IngestReport, ready []domain.Document, readyIdx []int, up *UploadReport) {
	rejected := make(map[string]error, len(up.Invalid)+len(up.Results))
	for _, inv := range up.Invalid {
		rejected[inv.ID] = domain.NewStageError(domain.StageValidate, inv.Err)
	}
	for _, res := range up.Results {
		if !res.Succeeded {
			rejected[res.ID] = domain.NewStageError(domain.StageUpload, errors.New(res.Message))
		}
	}

	for i, doc := range ready {
		if err, ok := rejected[doc.ID]; ok {
			report.Outcomes[readyIdx[i]].Err = err
			continue
		}
		report.Documents = append(report.Documents, doc)
	}
}
