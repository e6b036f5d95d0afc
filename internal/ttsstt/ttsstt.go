// Package ttsstt defines the narrow interfaces to the external
// text-to-speech and speech-to-text services used by chat_turn_audio.
// Transcription is delegated to the Model Gateway (which already owns
// retry/timeout discipline for the STT capability); synthesis is a
// separate external collaborator that renders text to an addressable
// URL, reusing the same HTTP client shape as internal/blobstore.
package ttsstt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/apperr"
	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	"github.com/smeasylife/highlog-ai/internal/interceptors"
	"github.com/smeasylife/highlog-ai/internal/modelgateway"
)

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mime string) (string, error)
}

// Synthesizer renders text to speech, returning an addressable URL for
// the rendered audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// GatewayTranscriber delegates to the Model Gateway's transcribe
// capability so it shares that client's retry/backoff/timeout policy.
type GatewayTranscriber struct {
	Gateway *modelgateway.Gateway
}

func (t *GatewayTranscriber) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	return t.Gateway.Transcribe(ctx, audio, mime)
}

// HTTPSynthesizer calls an external TTS HTTP endpoint, through the same
// circuit breaker every other external client in this process goes
// through.
type HTTPSynthesizer struct {
	baseURL string
	client  *circuitbreaker.HTTPWrapper
}

// NewHTTPSynthesizer constructs a Synthesizer against baseURL.
func NewHTTPSynthesizer(baseURL string, logger *zap.Logger) *HTTPSynthesizer {
	httpClient := &http.Client{Transport: interceptors.NewWorkflowHTTPRoundTripper(nil)}
	return &HTTPSynthesizer{
		baseURL: baseURL,
		client:  circuitbreaker.NewHTTPWrapper(httpClient, "tts", "tts", logger),
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

type synthesizeResponse struct {
	AudioURL string `json:"audio_url"`
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	buf, _ := json.Marshal(synthesizeRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(buf))
	if err != nil {
		return "", apperr.Storage(err, "build synthesize request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperr.ModelTransient(err, "synthesize call failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperr.ModelTransient(fmt.Errorf("status %d", resp.StatusCode), "synthesize call failed")
	}

	var sr synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", apperr.Storage(err, "decode synthesize response")
	}
	return sr.AudioURL, nil
}
