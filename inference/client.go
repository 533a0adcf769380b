// Package inference is the HTTP client for the external model-inference
// backend, a Python process exposing /health, /models, and /process.
// The backend is consumed only: circuitlens never manages its process.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/circuitlens/circuitlens/attention"
	"github.com/circuitlens/circuitlens/errors"
	"github.com/circuitlens/circuitlens/internal/httpclient"
)

// DefaultBaseURL is where the backend listens when started with its
// own defaults.
const DefaultBaseURL = "http://localhost:8000"

// Client talks to the inference backend.
type Client struct {
	baseURL string
	http    *httpclient.SaferClient
	logger  *zap.SugaredLogger
}

// NewClient creates a backend client. The backend normally runs on
// loopback, so the underlying client permits loopback addresses while
// keeping the rest of its SSRF policy.
func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpclient.New(timeout, httpclient.Options{AllowLoopback: true}),
		logger:  logger.Named("inference"),
	}
}

// HealthStatus is the backend's /health response.
type HealthStatus struct {
	Status       string   `json:"status"`
	LoadedModels []string `json:"loaded_models,omitempty"`
}

// modelsResponse is the backend's /models response.
type modelsResponse struct {
	AvailableModels []string `json:"available_models"`
	LoadedModels    []string `json:"loaded_models"`
}

// processRequest is the /process request body.
type processRequest struct {
	Text      string `json:"text"`
	ModelName string `json:"model_name"`
}

// errorDetail is the backend's non-2xx response body.
type errorDetail struct {
	Detail string `json:"detail"`
}

// Health probes the backend. Any transport failure or non-2xx status
// yields ErrBackendUnavailable; callers switch to offline sample-data
// mode on that signal.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, errors.Wrap(err, "building health request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrBackendUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(errors.ErrBackendUnavailable, "health returned status %d", resp.StatusCode)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, errors.Wrap(errors.ErrBackendUnavailable, err.Error())
	}
	return &status, nil
}

// Models lists the model names the backend can serve.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, errors.Wrap(err, "building models request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrBackendUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(errors.ErrBackendUnavailable, "models returned status %d", resp.StatusCode)
	}

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, errors.Wrap(errors.ErrBackendUnavailable, err.Error())
	}
	return models.AvailableModels, nil
}

// Process submits text for attention extraction and returns the
// validated dataset. Backend-reported failures (a non-2xx response)
// surface the body's detail string; the response payload is decoded
// through the attention validator, never trusted.
func (c *Client) Process(ctx context.Context, text, modelName string) (*attention.Dataset, error) {
	body, err := json.Marshal(processRequest{Text: text, ModelName: modelName})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling process request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building process request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrBackendUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, backendError(resp)
	}

	ds, err := attention.DecodeDataset(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "backend response")
	}
	if ds.ModelName == "" {
		ds.ModelName = modelName
	}

	c.logger.Infow("Processed text",
		"model", modelName,
		"tokens", ds.NumTokens,
		"patterns", len(ds.Edges),
		"duration", time.Since(start),
	)
	return ds, nil
}

// backendError extracts the {detail} message from a non-2xx response.
func backendError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var detail errorDetail
	if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
		return errors.Wrapf(errors.ErrBackendRejected, "backend: %s", detail.Detail)
	}
	return errors.Wrapf(errors.ErrBackendRejected, "backend returned status %d", resp.StatusCode)
}
