// Package modelgateway wraps the external LLM and embedding model behind
// the structured-output contract: generate() validates against a JSON
// Schema with bounded reformat retries, embed() is cached two levels
// deep, and transport errors retry with exponential backoff and full
// jitter. Grounded on the teacher's internal/embeddings.Service (HTTP
// client shape, LRU+Redis cache chain, tracing spans) and
// internal/budget.Manager (rate.Limiter usage for the concurrency cap).
package modelgateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/apperr"
	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	"github.com/smeasylife/highlog-ai/internal/interceptors"
	"github.com/smeasylife/highlog-ai/internal/metrics"
	"github.com/smeasylife/highlog-ai/internal/tracing"
)

// Config controls the gateway's transport, retry, and concurrency
// behavior.
type Config struct {
	BaseURL            string
	APIKey             string
	CallTimeout        time.Duration
	MaxRetries         int
	BackoffBase        time.Duration
	BackoffMax         time.Duration
	MaxConcurrentCalls int
	CallsPerSecond     int
	EmbeddingDim       int
}

// Gateway is the Model Gateway client.
type Gateway struct {
	cfg    Config
	http   *circuitbreaker.HTTPWrapper
	gate   *concurrencyGate
	lru    *localLRU
	cache  *embeddingCache
	logger *zap.Logger
}

// New constructs a Gateway. rdb may be nil, disabling the Redis cache tier.
func New(cfg Config, rdb *redis.Client, logger *zap.Logger) *Gateway {
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   cfg.CallTimeout,
		Transport: interceptors.NewWorkflowHTTPRoundTripper(nil),
	}
	return &Gateway{
		cfg:    cfg,
		http:   circuitbreaker.NewHTTPWrapper(httpClient, "model-gateway", "model-gateway", logger),
		gate:   newConcurrencyGate(cfg.MaxConcurrentCalls, cfg.CallsPerSecond),
		lru:    newLocalLRU(4096),
		cache:  newEmbeddingCache(rdb, time.Hour),
		logger: logger,
	}
}

// EmbeddingDim is the fixed embedding dimension for the process lifetime.
func (g *Gateway) EmbeddingDim() int { return g.cfg.EmbeddingDim }

// Embed returns the embedding vector for text, consulting the local LRU
// then the Redis cache before calling the external embedding model.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embedKey(text)
	if v, ok := g.lru.Get(key); ok {
		return v, nil
	}
	if v, ok := g.cache.Get(ctx, key); ok {
		g.lru.Set(key, v)
		return v, nil
	}

	start := time.Now()
	ctx, span := tracing.StartHTTPSpan(ctx, "POST", g.cfg.BaseURL+"/embeddings")
	defer span.End()

	var result []float32
	op := func() error {
		release, err := g.gate.Acquire(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer release()

		v, err := g.doEmbed(ctx, text)
		if err != nil {
			return err
		}
		result = v
		return nil
	}

	if err := backoff.Retry(op, g.backoffPolicy(ctx)); err != nil {
		metrics.ModelGatewayCalls.WithLabelValues("embed", "error").Inc()
		metrics.ModelGatewayLatency.WithLabelValues("embed").Observe(time.Since(start).Seconds())
		return nil, apperr.ModelTransient(err, "embed call failed")
	}

	metrics.ModelGatewayCalls.WithLabelValues("embed", "ok").Inc()
	metrics.ModelGatewayLatency.WithLabelValues("embed").Observe(time.Since(start).Seconds())

	g.lru.Set(key, result)
	g.cache.Set(ctx, key, result)
	return result, nil
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (g *Gateway) doEmbed(ctx context.Context, text string) ([]float32, error) {
	buf, _ := json.Marshal(embedRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/embeddings", bytes.NewReader(buf))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	g.authorize(req)
	tracing.InjectTraceparent(ctx, req)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("embedding transient status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("embedding status %d", resp.StatusCode))
	}
	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, backoff.Permanent(err)
	}
	if len(er.Embedding) != g.cfg.EmbeddingDim {
		return nil, backoff.Permanent(fmt.Errorf("embedding dimension %d != expected %d", len(er.Embedding), g.cfg.EmbeddingDim))
	}
	return er.Embedding, nil
}

// Generate issues a structured request and validates the response against
// schema. Schema failures trigger up to MaxRetries deterministic reformat
// retries; transport failures retry with exponential backoff and full
// jitter. Capability labels metrics and is free text (e.g. "ocr_batch").
func (g *Gateway) Generate(ctx context.Context, capability, prompt string, schema *jsonschema.Schema, images ...[]byte) (json.RawMessage, error) {
	start := time.Now()
	ctx, span := tracing.StartHTTPSpan(ctx, "POST", g.cfg.BaseURL+"/generate")
	defer span.End()

	currentPrompt := prompt
	var lastSchemaErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		raw, err := g.generateOnce(ctx, currentPrompt, images)
		if err != nil {
			metrics.ModelGatewayCalls.WithLabelValues(capability, "transport_error").Inc()
			metrics.ModelGatewayLatency.WithLabelValues(capability).Observe(time.Since(start).Seconds())
			return nil, apperr.ModelTransient(err, "%s: generate call failed", capability)
		}

		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			lastSchemaErr = err
		} else if err := schema.Validate(decoded); err != nil {
			lastSchemaErr = err
		} else {
			metrics.ModelGatewayCalls.WithLabelValues(capability, "ok").Inc()
			metrics.ModelGatewayLatency.WithLabelValues(capability).Observe(time.Since(start).Seconds())
			return raw, nil
		}

		metrics.ModelGatewayRetries.WithLabelValues(capability, "schema").Inc()
		currentPrompt = reformatPrompt(prompt, lastSchemaErr)
	}

	metrics.ModelGatewayCalls.WithLabelValues(capability, "schema_error").Inc()
	metrics.ModelGatewayLatency.WithLabelValues(capability).Observe(time.Since(start).Seconds())
	return nil, apperr.ModelSchema(lastSchemaErr, "%s: exceeded %d reformat retries", capability, g.cfg.MaxRetries)
}

type generateRequest struct {
	Prompt       string   `json:"prompt"`
	ImagesBase64 []string `json:"images_base64,omitempty"`
}

type generateResponse struct {
	Output json.RawMessage `json:"output"`
}

// generateOnce issues one HTTP call with its own backoff/jitter loop for
// transient transport failures, independent of the schema-retry loop in
// Generate. images carries page renders for the OCR+categorize capability;
// all other capabilities pass none.
func (g *Gateway) generateOnce(ctx context.Context, prompt string, images [][]byte) (json.RawMessage, error) {
	var out json.RawMessage
	op := func() error {
		release, err := g.gate.Acquire(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer release()

		encoded := make([]string, len(images))
		for i, img := range images {
			encoded[i] = base64.StdEncoding.EncodeToString(img)
		}
		buf, _ := json.Marshal(generateRequest{Prompt: prompt, ImagesBase64: encoded})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/generate", bytes.NewReader(buf))
		if err != nil {
			return backoff.Permanent(err)
		}
		g.authorize(req)
		tracing.InjectTraceparent(ctx, req)

		resp, err := g.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("generate transient status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("generate status %d", resp.StatusCode))
		}
		var gr generateResponse
		if err := json.Unmarshal(body, &gr); err != nil {
			return backoff.Permanent(err)
		}
		out = gr.Output
		return nil
	}

	if err := backoff.Retry(op, g.backoffPolicy(ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

// Transcribe delegates to the STT capability with the same retry/timeout
// discipline as Generate/Embed.
func (g *Gateway) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	start := time.Now()
	var text string
	op := func() error {
		release, err := g.gate.Acquire(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer release()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/transcribe", bytes.NewReader(audio))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", mime)
		g.authorize(req)
		tracing.InjectTraceparent(ctx, req)

		resp, err := g.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("transcribe transient status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("transcribe status %d", resp.StatusCode))
		}
		var tr struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return backoff.Permanent(err)
		}
		text = tr.Text
		return nil
	}

	if err := backoff.Retry(op, g.backoffPolicy(ctx)); err != nil {
		metrics.ModelGatewayCalls.WithLabelValues("transcribe", "error").Inc()
		metrics.ModelGatewayLatency.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())
		return "", apperr.ModelTransient(err, "transcribe call failed")
	}
	metrics.ModelGatewayCalls.WithLabelValues("transcribe", "ok").Inc()
	metrics.ModelGatewayLatency.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())
	return text, nil
}

func (g *Gateway) authorize(req *http.Request) {
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

// backoffPolicy builds an exponential-backoff-with-full-jitter policy
// bounded by the configured base/max and tied to ctx's lifetime.
func (g *Gateway) backoffPolicy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = g.cfg.BackoffBase
	eb.MaxInterval = g.cfg.BackoffMax
	eb.RandomizationFactor = 1 // jitter down to zero: delay drawn from [0, 2*interval]
	eb.MaxElapsedTime = 0     // bounded by MaxRetries and ctx instead
	bo := backoff.WithMaxRetries(eb, uint64(g.cfg.MaxRetries))
	return backoff.WithContext(bo, ctx)
}

func reformatPrompt(original string, schemaErr error) string {
	return fmt.Sprintf("%s\n\nYour previous response did not match the required schema (%v). Reply again with ONLY valid JSON matching the schema, no prose.", original, schemaErr)
}

func embedKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
