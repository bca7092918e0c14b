package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/storyboard-gen/internal/config"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// maxResponseBytes caps how much of an image response is read into memory.
const maxResponseBytes = 64 << 20

// HTTPClient talks to the REST-style providers (Pollinations, Hugging Face).
type HTTPClient struct {
	provider   string
	baseURL    string
	token      string // optional bearer token
	httpClient *http.Client
}

// NewHTTPClient creates a client for provider at baseURL. A zero timeout
// uses the configured default.
func NewHTTPClient(provider, baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = config.DefaultInferenceTimeout
	}
	return &HTTPClient{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
	}
}

// Name returns the provider name.
func (c *HTTPClient) Name() string {
	return c.provider
}

// --- Hugging Face request types ---

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Generate issues one request for req and returns the response body.
func (c *HTTPClient) Generate(ctx context.Context, req Request) ([]byte, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	httpReq.Header.Set("Accept", "image/*")

	log.Debug().
		Str("provider", c.provider).
		Str("prompt", truncateString(req.Prompt, 100)).
		Int("width", req.Width).
		Int("height", req.Height).
		Msg("Starting inference request")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", c.provider, err)
	}

	log.Debug().
		Str("provider", c.provider).
		Int("status_code", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(startTime)).
		Msg("Inference HTTP call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().
			Str("provider", c.provider).
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(body), 500)).
			Msg("Inference API returned error")
		return nil, &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("%s returned an empty body", c.provider)
	}

	return body, nil
}

func (c *HTTPClient) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	switch c.provider {
	case config.ProviderHuggingFace:
		payload, err := json.Marshal(hfRequest{
			Inputs:     req.Prompt,
			Parameters: hfParameters{Width: req.Width, Height: req.Height},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil

	default:
		q := url.Values{}
		q.Set("width", strconv.Itoa(req.Width))
		q.Set("height", strconv.Itoa(req.Height))
		q.Set("nologo", "true")
		endpoint := c.baseURL + "/prompt/" + url.PathEscape(req.Prompt) + "?" + q.Encode()

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		return httpReq, nil
	}
}
