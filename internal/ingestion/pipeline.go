// Package ingestion implements the staged PDF -> chunks -> embeddings ->
// vector store pipeline: fetch, rasterize, OCR+categorize, embed and
// persist, finalize. Grounded on the teacher's activity/workflow
// staging idiom (each stage is a retryable Temporal activity, see
// internal/activities and internal/workflows), generalized from
// multi-agent task execution to a fixed five-stage document pipeline.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/apperr"
	"github.com/smeasylife/highlog-ai/internal/blobstore"
	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/metrics"
	"github.com/smeasylife/highlog-ai/internal/modelgateway"
	"github.com/smeasylife/highlog-ai/internal/records"
	"github.com/smeasylife/highlog-ai/internal/streaming"
	"github.com/smeasylife/highlog-ai/internal/vectorstore"
)

const defaultBatchPages = 3 // pages per OCR+categorize batch, per the fixed B=3 nominal

// Progress budget boundaries per stage, per spec §4.4.
const (
	progressFetchStart    = 10
	progressFetchEnd      = 20
	progressRasterizeEnd  = 30
	progressCategorizeEnd = 70
	progressEmbedEnd      = 95
	progressFinalizeEnd   = 100
)

// Pipeline wires the five ingestion stages together.
type Pipeline struct {
	blobs      blobstore.Store
	gateway    *modelgateway.Gateway
	schemas    *modelgateway.SchemaSet
	vectors    *vectorstore.Store
	records    *records.Service
	progress   *streaming.Manager
	rasterizer *Rasterizer
	batchPages int
	logger     *zap.Logger
}

// New constructs a Pipeline. batchPages <= 0 falls back to the nominal
// B=3 from spec §4.4.
func New(blobs blobstore.Store, gateway *modelgateway.Gateway, schemas *modelgateway.SchemaSet,
	vectors *vectorstore.Store, recs *records.Service, progress *streaming.Manager, rasterizer *Rasterizer,
	batchPages int, logger *zap.Logger) *Pipeline {
	if batchPages <= 0 {
		batchPages = defaultBatchPages
	}
	return &Pipeline{
		blobs: blobs, gateway: gateway, schemas: schemas, vectors: vectors,
		records: recs, progress: progress, rasterizer: rasterizer, batchPages: batchPages, logger: logger,
	}
}

// ocrChunk is one element of the OCR+categorize schema's chunks array.
type ocrChunk struct {
	Category  string `json:"category"`
	ChunkText string `json:"chunk_text"`
}

// Run executes the whole pipeline for one record, emitting progress at
// every stage boundary. Idempotent: existing chunks for recordID are
// purged before the embed+persist stage commits new ones, so a retried
// run never leaves stale chunks from a prior failed attempt.
func (p *Pipeline) Run(ctx context.Context, recordID, blobKey, title string) error {
	metrics.IngestionsStarted.Inc()

	if err := p.records.StartProcessing(ctx, recordID); err != nil {
		return p.fail(ctx, recordID, err)
	}

	// Stage 1: fetch
	p.emit(ctx, recordID, streaming.KindProcessing, progressFetchStart, nil)
	raw, err := p.blobs.GetBlob(ctx, blobKey)
	if err != nil {
		return p.fail(ctx, recordID, err)
	}
	p.emit(ctx, recordID, streaming.KindProcessing, progressFetchEnd, nil)

	// Stage 2: rasterize
	pages, err := p.rasterizer.RasterizePages(ctx, raw)
	if err != nil {
		return p.fail(ctx, recordID, err)
	}
	p.emit(ctx, recordID, streaming.KindProcessing, progressRasterizeEnd, nil)

	// Stage 3: OCR + categorize, in batches of p.batchPages, preserving a
	// running chunk_index across batches.
	var chunks []vectorstore.Chunk
	chunkIndex := 0
	for start := 0; start < len(pages); start += p.batchPages {
		end := start + p.batchPages
		if end > len(pages) {
			end = len(pages)
		}
		batchChunks, err := p.categorizeBatch(ctx, recordID, pages[start:end])
		if err != nil {
			return p.fail(ctx, recordID, err)
		}
		for _, bc := range batchChunks {
			chunks = append(chunks, vectorstore.Chunk{
				ID:         uuid.New().String(),
				RecordID:   recordID,
				ChunkIndex: chunkIndex,
				Text:       bc.ChunkText,
				Category:   dbpkg.Category(bc.Category),
			})
			chunkIndex++
		}

		progressed := progressRasterizeEnd + (progressCategorizeEnd-progressRasterizeEnd)*(end)/max1(len(pages))
		p.emit(ctx, recordID, streaming.KindProcessing, progressed, nil)
	}

	// Stage 4: embed + persist, atomically per record.
	if err := p.vectors.DeleteByRecord(ctx, recordID); err != nil {
		return p.fail(ctx, recordID, err)
	}
	for i := range chunks {
		vec, err := p.gateway.Embed(ctx, chunks[i].Text)
		if err != nil {
			return p.fail(ctx, recordID, err)
		}
		chunks[i].Embedding = vec

		progressed := progressCategorizeEnd + (progressEmbedEnd-progressCategorizeEnd)*(i+1)/max1(len(chunks))
		p.emit(ctx, recordID, streaming.KindProcessing, progressed, nil)
	}
	if err := p.vectors.PutChunks(ctx, recordID, chunks); err != nil {
		return p.fail(ctx, recordID, err)
	}
	p.emit(ctx, recordID, streaming.KindProcessing, progressEmbedEnd, nil)

	// Stage 5: finalize
	if err := p.records.MarkReady(ctx, recordID); err != nil {
		return p.fail(ctx, recordID, err)
	}
	p.emit(ctx, recordID, streaming.KindComplete, progressFinalizeEnd, nil)
	metrics.IngestionsCompleted.WithLabelValues("ready").Inc()
	return nil
}

func (p *Pipeline) categorizeBatch(ctx context.Context, recordID string, batch [][]byte) ([]ocrChunk, error) {
	prompt := ocrBatchPrompt(recordID, len(batch))
	raw, err := p.gateway.Generate(ctx, "ocr_batch", prompt, p.schemas.OCRBatch, batch...)
	if err != nil {
		return nil, err
	}
	var result struct {
		Chunks []ocrChunk `json:"chunks"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperr.ModelSchema(err, "decode ocr_batch result")
	}
	return result.Chunks, nil
}

func (p *Pipeline) fail(ctx context.Context, recordID string, cause error) error {
	if err := p.vectors.DeleteByRecord(ctx, recordID); err != nil {
		p.logger.Warn("ingestion: cleanup after failure also failed", zap.String("record_id", recordID), zap.Error(err))
	}
	_ = p.records.MarkFailed(ctx, recordID)
	p.emit(ctx, recordID, streaming.KindError, 0, cause)
	metrics.IngestionsCompleted.WithLabelValues("failed").Inc()
	return cause
}

func (p *Pipeline) emit(ctx context.Context, recordID string, kind streaming.Kind, progress int, err error) {
	evt := streaming.Event{Subject: streaming.SubjectIngestion, ID: recordID, Kind: kind, Progress: progress}
	if err != nil {
		evt.Reason = err.Error()
	}
	if pubErr := p.progress.Publish(ctx, evt); pubErr != nil {
		p.logger.Warn("ingestion: publish progress failed", zap.Error(pubErr))
	}
}

func ocrBatchPrompt(recordID string, pageCount int) string {
	return fmt.Sprintf(
		"You are transcribing %d scanned pages of a Korean student life record for record %s. "+
			"Copy source text verbatim: preserve whitespace, punctuation, and line breaks exactly. "+
			"Do not summarize, paraphrase, or infer content. Replace illegible regions with the literal "+
			"token [일부 텍스트 누락]. Elide PII fields (name, school name, student id, resident id). "+
			"Classify each transcribed span into exactly one category from the fixed set "+
			"{성적, 세특, 창체, 행특, 출결, 독서, 수상, 진로, 기타}. "+
			"Reply with JSON matching the required schema only.",
		pageCount, recordID,
	)
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
