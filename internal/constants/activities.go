package constants

// Activity names used for workflow registration and execution, matching
// the method names on activities.Activities exactly so workflow code can
// address them by string without importing that package's concrete type.
const (
	IngestDocumentActivity       = "IngestDocument"
	GenerateQuestionsActivity    = "GenerateQuestions"
	CommitCheckpointActivity     = "CommitCheckpoint"
	LoadLatestCheckpointActivity = "LoadLatestCheckpoint"
	EmitProgressActivity         = "EmitProgress"

	// Interview Orchestrator node activities
	InitializeInterviewActivity  = "InitializeInterview"
	AnalyzeAnswerActivity        = "AnalyzeAnswer"
	FollowUpGeneratorActivity    = "FollowUpGenerator"
	RetrieveNewTopicActivity     = "RetrieveNewTopic"
	NewQuestionGeneratorActivity = "NewQuestionGenerator"
	WrapUpActivity               = "WrapUp"
	TranscribeAnswerActivity     = "TranscribeAnswer"
	SynthesizeQuestionActivity   = "SynthesizeQuestion"
)

// Task queue names. One queue per long-running flow keeps worker pool
// sizing independent: ingestion and question generation are CPU/IO-bound
// batch work, interview turns are latency-sensitive.
const (
	IngestionTaskQueue = "highlog-ingestion"
	QGenTaskQueue      = "highlog-qgen"
	InterviewTaskQueue = "highlog-interview"
)
