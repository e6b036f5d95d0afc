// Package qgen implements the per-category, retrieval-driven question
// generator: for each category present in a record's chunks, ask the
// Model Gateway for up to 5 grounded questions, then coalesce all
// categories into one QuestionSet. Categories run concurrently up to a
// configured parallelism, grounded on the teacher's workflow.Go fan-out
// idiom for independent, individually-retryable units of work.
package qgen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/apperr"
	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/metrics"
	"github.com/smeasylife/highlog-ai/internal/modelgateway"
	"github.com/smeasylife/highlog-ai/internal/records"
	"github.com/smeasylife/highlog-ai/internal/streaming"
	"github.com/smeasylife/highlog-ai/internal/vectorstore"
)

const maxQuestionsPerCategory = 5

// Pipeline wires the question generation stages together.
type Pipeline struct {
	gateway     *modelgateway.Gateway
	schemas     *modelgateway.SchemaSet
	vectors     *vectorstore.Store
	records     *records.Service
	db          *dbpkg.Client
	progress    *streaming.Manager
	parallelism int
	logger      *zap.Logger
}

// New constructs a Pipeline.
func New(gateway *modelgateway.Gateway, schemas *modelgateway.SchemaSet, vectors *vectorstore.Store,
	recs *records.Service, db *dbpkg.Client, progress *streaming.Manager, parallelism int, logger *zap.Logger) *Pipeline {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Pipeline{gateway: gateway, schemas: schemas, vectors: vectors, records: recs, db: db,
		progress: progress, parallelism: parallelism, logger: logger}
}

type generatedQuestion struct {
	Body        string  `json:"body"`
	Difficulty  string  `json:"difficulty"`
	ModelAnswer *string `json:"model_answer,omitempty"`
	Purpose     *string `json:"purpose,omitempty"`
}

// Run executes question generation for a record, returning the created
// QuestionSet id.
func (p *Pipeline) Run(ctx context.Context, recordID, targetSchool, targetMajor, interviewType, title string) (string, error) {
	if err := p.records.RequireReady(ctx, recordID); err != nil {
		return "", err
	}

	categories, err := p.vectors.Categories(ctx, recordID)
	if err != nil {
		return "", p.fail(ctx, recordID, err)
	}
	if len(categories) == 0 {
		return "", p.fail(ctx, recordID, apperr.PreconditionFailed("record %s has no chunks", recordID))
	}

	setID := uuid.New().String()

	type result struct {
		category  dbpkg.Category
		questions []dbpkg.Question
		err       error
	}

	sem := make(chan struct{}, p.parallelism)
	var wg sync.WaitGroup
	results := make([]result, len(categories))

	var done int32
	var mu sync.Mutex

	for i, cat := range categories {
		wg.Add(1)
		go func(i int, cat dbpkg.Category) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			qs, err := p.generateForCategory(ctx, setID, recordID, cat)
			results[i] = result{category: cat, questions: qs, err: err}

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			p.emit(ctx, recordID, streaming.KindProcessing, int(100*n/int32(len(categories))), nil)
		}(i, cat)
	}
	wg.Wait()

	var allQuestions []dbpkg.Question
	for _, r := range results {
		if r.err != nil {
			return "", p.fail(ctx, recordID, r.err)
		}
		allQuestions = append(allQuestions, r.questions...)
	}

	qs := dbpkg.QuestionSet{
		ID: setID, RecordID: recordID, TargetSchool: targetSchool,
		TargetMajor: targetMajor, InterviewType: interviewType, Title: title,
	}
	if err := p.db.CreateQuestionSet(ctx, qs, allQuestions); err != nil {
		return "", p.fail(ctx, recordID, err)
	}

	metrics.QuestionSetsGenerated.Inc()
	p.emit(ctx, recordID, streaming.KindComplete, 100, nil)
	return setID, nil
}

func (p *Pipeline) generateForCategory(ctx context.Context, setID, recordID string, category dbpkg.Category) ([]dbpkg.Question, error) {
	chunks, err := p.vectors.GetByCategory(ctx, recordID, category)
	if err != nil {
		return nil, err
	}

	prompt := questionBatchPrompt(category, chunks)
	raw, err := p.gateway.Generate(ctx, "question_batch", prompt, p.schemas.QuestionBatch)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Questions []generatedQuestion `json:"questions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperr.ModelSchema(err, "decode question_batch result")
	}
	if len(parsed.Questions) > maxQuestionsPerCategory {
		parsed.Questions = parsed.Questions[:maxQuestionsPerCategory]
	}

	metrics.QuestionsPerCategory.WithLabelValues(string(category)).Observe(float64(len(parsed.Questions)))

	questions := make([]dbpkg.Question, 0, len(parsed.Questions))
	for _, gq := range parsed.Questions {
		questions = append(questions, dbpkg.Question{
			ID:           uuid.New().String(),
			QuestionSetID: setID,
			Category:     category,
			Body:         gq.Body,
			Difficulty:   dbpkg.Difficulty(gq.Difficulty),
			ModelAnswer:  gq.ModelAnswer,
			Purpose:      gq.Purpose,
		})
	}
	return questions, nil
}

func (p *Pipeline) fail(ctx context.Context, recordID string, cause error) error {
	p.emit(ctx, recordID, streaming.KindError, 0, cause)
	return cause
}

func (p *Pipeline) emit(ctx context.Context, recordID string, kind streaming.Kind, progress int, err error) {
	evt := streaming.Event{Subject: streaming.SubjectQGen, ID: recordID, Kind: kind, Progress: progress}
	if err != nil {
		evt.Reason = err.Error()
	}
	if pubErr := p.progress.Publish(ctx, evt); pubErr != nil {
		p.logger.Warn("qgen: publish progress failed", zap.Error(pubErr))
	}
}

func questionBatchPrompt(category dbpkg.Category, chunks []vectorstore.Chunk) string {
	var body string
	for _, c := range chunks {
		body += fmt.Sprintf("- %s\n", c.Text)
	}
	return fmt.Sprintf(
		"Using ONLY the following %s records, produce at most %d interview questions as JSON matching "+
			"the required schema. Each question's content must be strictly grounded in this material; do "+
			"not invent facts not present below. Assign a difficulty of BASIC or DEEP, and include a model "+
			"answer and the pedagogical purpose of each question.\n\n%s",
		category, maxQuestionsPerCategory, body,
	)
}
