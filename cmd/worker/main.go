// Command worker is the process entrypoint: it wires every internal
// package together and runs Temporal workers for the three task queues,
// mirroring the teacher's single-binary orchestrator main.go (config,
// logger, circuit breaker metrics, Temporal worker, metrics HTTP
// server, graceful shutdown) generalized to three task queues instead
// of one.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/activities"
	"github.com/smeasylife/highlog-ai/internal/blobstore"
	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	"github.com/smeasylife/highlog-ai/internal/config"
	"github.com/smeasylife/highlog-ai/internal/constants"
	dbpkg "github.com/smeasylife/highlog-ai/internal/db"
	"github.com/smeasylife/highlog-ai/internal/ingestion"
	"github.com/smeasylife/highlog-ai/internal/interview"
	"github.com/smeasylife/highlog-ai/internal/logging"
	"github.com/smeasylife/highlog-ai/internal/modelgateway"
	"github.com/smeasylife/highlog-ai/internal/qgen"
	"github.com/smeasylife/highlog-ai/internal/records"
	"github.com/smeasylife/highlog-ai/internal/registry"
	"github.com/smeasylife/highlog-ai/internal/streaming"
	temporalpkg "github.com/smeasylife/highlog-ai/internal/temporal"
	"github.com/smeasylife/highlog-ai/internal/tracing"
	"github.com/smeasylife/highlog-ai/internal/ttsstt"
	"github.com/smeasylife/highlog-ai/internal/vectorstore"
	"github.com/smeasylife/highlog-ai/internal/workflows"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	circuitbreaker.StartMetricsCollection()

	if cfg.Tracing.Enabled {
		if err := tracing.Initialize(cfg.Tracing, logger); err != nil {
			logger.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		}
	}

	dbClient, err := dbpkg.NewClient(dbpkg.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifeMins) * time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer dbClient.Close()

	ctx := context.Background()
	if err := dbClient.Bootstrap(ctx, cfg.ModelGateway.EmbeddingDim); err != nil {
		logger.Fatal("bootstrap schema", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	gateway := modelgateway.New(modelgateway.Config{
		BaseURL:            cfg.ModelGateway.BaseURL,
		APIKey:             cfg.ModelGateway.APIKey,
		CallTimeout:        time.Duration(cfg.ModelGateway.CallTimeoutMS) * time.Millisecond,
		MaxRetries:         cfg.ModelGateway.MaxRetries,
		BackoffBase:        time.Duration(cfg.ModelGateway.BackoffBaseMS) * time.Millisecond,
		BackoffMax:         time.Duration(cfg.ModelGateway.BackoffMaxMS) * time.Millisecond,
		MaxConcurrentCalls: cfg.ModelGateway.MaxConcurrentCalls,
		CallsPerSecond:     cfg.ModelGateway.CallsPerSecond,
		EmbeddingDim:       cfg.ModelGateway.EmbeddingDim,
	}, rdb, logger)

	schemas, err := modelgateway.LoadSchemas("config/schemas")
	if err != nil {
		logger.Fatal("load generation schemas", zap.Error(err))
	}

	vectors := vectorstore.New(dbClient.DB, cfg.ModelGateway.EmbeddingDim, logger)
	blobs := blobstore.NewHTTPStore(cfg.BlobStore.Endpoint, cfg.BlobStore.Bucket, logger)
	progress := streaming.New(rdb, logger)
	recs := records.New(dbClient)

	rasterizer, err := ingestion.NewRasterizer()
	if err != nil {
		logger.Fatal("init pdf rasterizer", zap.Error(err))
	}
	defer rasterizer.Close()

	ingestPipeline := ingestion.New(blobs, gateway, schemas, vectors, recs, progress, rasterizer, cfg.Ingestion.BatchPages, logger)
	qgenPipeline := qgen.New(gateway, schemas, vectors, recs, dbClient, progress, cfg.QGen.Parallelism, logger)

	nodes := &interview.Nodes{
		Gateway: gateway,
		Schemas: schemas,
		Vectors: vectors,
		Routing: interview.RoutingConfig{
			WrapUpThresholdS: cfg.Interview.WrapUpThresholdS,
			MaxFollowUps:     cfg.Interview.MaxFollowUps,
			MaxTopics:        cfg.Interview.MaxTopics,
		},
	}
	sessionRegistry := registry.New(dbClient, logger)
	synthesizer := ttsstt.NewHTTPSynthesizer(cfg.BlobStore.Endpoint, logger)

	acts := &activities.Activities{
		Ingestion:   ingestPipeline,
		QGen:        qgenPipeline,
		Nodes:       nodes,
		DB:          dbClient,
		Registry:    sessionRegistry,
		Progress:    progress,
		Synthesizer: synthesizer,
		Logger:      logger,
	}

	tClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporalpkg.NewZapAdapter(logger),
	})
	if err != nil {
		logger.Fatal("dial temporal", zap.Error(err))
	}
	defer tClient.Close()

	ingestionWorker := startWorker(tClient, constants.IngestionTaskQueue, acts, logger)
	qgenWorker := startWorker(tClient, constants.QGenTaskQueue, acts, logger)
	interviewWorker := startWorker(tClient, constants.InterviewTaskQueue, acts, logger)

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.MetricsPort)
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error("metrics server exited", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	ingestionWorker.Stop()
	qgenWorker.Stop()
	interviewWorker.Stop()
	progress.Shutdown()
}

func startWorker(tClient client.Client, taskQueue string, acts *activities.Activities, logger *zap.Logger) worker.Worker {
	w := worker.New(tClient, taskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.IngestionWorkflow)
	w.RegisterWorkflow(workflows.QuestionGenerationWorkflow)
	w.RegisterWorkflow(workflows.InterviewWorkflow)

	registerActivity := func(name string, fn interface{}) {
		w.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	registerActivity(constants.IngestDocumentActivity, acts.IngestDocument)
	registerActivity(constants.GenerateQuestionsActivity, acts.GenerateQuestions)
	registerActivity(constants.CommitCheckpointActivity, acts.CommitCheckpoint)
	registerActivity(constants.LoadLatestCheckpointActivity, acts.LoadLatestCheckpoint)
	registerActivity(constants.EmitProgressActivity, acts.EmitProgress)
	registerActivity(constants.InitializeInterviewActivity, acts.InitializeInterview)
	registerActivity(constants.AnalyzeAnswerActivity, acts.AnalyzeAnswer)
	registerActivity(constants.FollowUpGeneratorActivity, acts.FollowUpGenerator)
	registerActivity(constants.RetrieveNewTopicActivity, acts.RetrieveNewTopic)
	registerActivity(constants.NewQuestionGeneratorActivity, acts.NewQuestionGenerator)
	registerActivity(constants.WrapUpActivity, acts.WrapUp)
	registerActivity(constants.TranscribeAnswerActivity, acts.TranscribeAnswer)
	registerActivity(constants.SynthesizeQuestionActivity, acts.SynthesizeQuestion)

	go func() {
		logger.Info("temporal worker started", zap.String("task_queue", taskQueue))
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("temporal worker exited with error", zap.String("task_queue", taskQueue), zap.Error(err))
		}
	}()
	return w
}

