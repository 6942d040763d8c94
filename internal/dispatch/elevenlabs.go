package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const batchCallingPath = "/v1/convai/batch-calling/submit"

// maxResponseBytes bounds how much of an upstream body is retained for diagnostics.
const maxResponseBytes = 1 << 20

// ElevenLabsDispatcher posts call orders straight to the ElevenLabs
// batch-calling API.
type ElevenLabsDispatcher struct {
	baseURL string
	apiKey  string
	client  *http.Client

	// Now is injectable for deterministic call names in tests.
	Now func() time.Time
}

func NewElevenLabsDispatcher(baseURL, apiKey string, timeout time.Duration) *ElevenLabsDispatcher {
	return &ElevenLabsDispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		Now:     time.Now,
	}
}

func (d *ElevenLabsDispatcher) Name() string { return "elevenlabs" }

func (d *ElevenLabsDispatcher) PlaceCall(ctx context.Context, order CallOrder) (Receipt, error) {
	payload := BuildPayload(order, d.Now())
	req, err := newJSONRequest(ctx, d.baseURL+batchCallingPath, payload)
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("xi-api-key", d.apiKey)

	return doOnce(d.client, req)
}

// WebhookDispatcher posts call orders to an intermediary automation webhook
// that forwards them to the voice platform. The payload is identical to the
// direct path; credentials live on the webhook side.
type WebhookDispatcher struct {
	url    string
	client *http.Client

	Now func() time.Time
}

func NewWebhookDispatcher(url string, timeout time.Duration) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		Now:    time.Now,
	}
}

func (d *WebhookDispatcher) Name() string { return "webhook" }

func (d *WebhookDispatcher) PlaceCall(ctx context.Context, order CallOrder) (Receipt, error) {
	payload := BuildPayload(order, d.Now())
	req, err := newJSONRequest(ctx, d.url, payload)
	if err != nil {
		return Receipt{}, err
	}
	return doOnce(d.client, req)
}

func newJSONRequest(ctx context.Context, url string, payload Payload) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dispatch: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dispatch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doOnce performs the single attempt. No retries anywhere in the pipeline.
func doOnce(client *http.Client, req *http.Request) (Receipt, error) {
	resp, err := client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("dispatch: call platform unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Receipt{}, fmt.Errorf("dispatch: read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return Receipt{Status: resp.StatusCode, Body: rawReceiptBody(body)}, nil
}
