package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "highlog_ingestions_started_total",
			Help: "Total number of record ingestions started",
		},
	)

	IngestionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "highlog_ingestions_completed_total",
			Help: "Total number of record ingestions completed by terminal status",
		},
		[]string{"status"},
	)

	IngestionStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "highlog_ingestion_stage_duration_seconds",
			Help:    "Duration of each ingestion stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	ChunksPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "highlog_chunks_persisted_total",
			Help: "Total number of chunks persisted to the vector store",
		},
		[]string{"category"},
	)

	// Question generation metrics
	QuestionSetsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "highlog_question_sets_generated_total",
			Help: "Total number of question sets generated",
		},
	)

	QuestionsPerCategory = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "highlog_questions_per_category",
			Help:    "Number of questions generated per category",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
		[]string{"category"},
	)

	// Interview metrics
	InterviewTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "highlog_interview_turns_total",
			Help: "Total number of interview turns processed, by routed action",
		},
		[]string{"action"},
	)

	InterviewSessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "highlog_interview_sessions_completed_total",
			Help: "Total number of interview sessions reaching a terminal status",
		},
		[]string{"status"},
	)

	CheckpointsCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "highlog_checkpoints_committed_total",
			Help: "Total number of interview state checkpoints committed",
		},
	)

	// Model Gateway metrics
	ModelGatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "highlog_model_gateway_calls_total",
			Help: "Total number of Model Gateway calls by capability and outcome",
		},
		[]string{"capability", "outcome"},
	)

	ModelGatewayRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "highlog_model_gateway_retries_total",
			Help: "Total number of Model Gateway retries by capability and reason",
		},
		[]string{"capability", "reason"},
	)

	ModelGatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "highlog_model_gateway_latency_seconds",
			Help:    "Model Gateway call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"capability"},
	)

	// Vector store metrics
	VectorSearchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "highlog_vector_search_latency_seconds",
			Help:    "Vector store search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Progress stream metrics
	ProgressEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "highlog_progress_events_published_total",
			Help: "Total number of progress events published",
		},
		[]string{"subject", "type"},
	)
)
