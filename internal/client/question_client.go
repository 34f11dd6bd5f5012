// Package client talks to the platform's question bank HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/noah-isme/qbank-admin-api/pkg/config"
)

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 8 << 20

// ErrBodyTooLarge is returned when a successful backend response exceeds the body limit.
var ErrBodyTooLarge = errors.New("backend response body too large")

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// QuestionClient calls the search and list-all endpoints of the question backend.
type QuestionClient struct {
	baseURL    string
	searchPath string
	listPath   string
	token      string
	maxBody    int64
	http       *retryablehttp.Client
}

// NewQuestionClient builds a client with retries on transport errors and 5xx responses.
func NewQuestionClient(cfg config.BackendConfig, logger *zap.Logger) *QuestionClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient = &http.Client{Timeout: timeout}
	retryClient.Logger = leveledLogger{logger.Named("question-client").Sugar()}

	return &QuestionClient{
		baseURL:    cfg.BaseURL,
		searchPath: cfg.SearchPath,
		listPath:   cfg.ListPath,
		token:      cfg.AuthToken,
		maxBody:    maxBodyBytes,
		http:       retryClient,
	}
}

// Search posts the flattened filter body and returns the raw response payload.
func (c *QuestionClient) Search(ctx context.Context, body map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.searchPath, payload)
}

// ListAll fetches the unfiltered question list.
func (c *QuestionClient) ListAll(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.listPath, nil)
}

func (c *QuestionClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	uri, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build backend url: %w", err)
	}

	var body interface{}
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, uri, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	// One byte past the limit tells a body of exactly maxBody bytes apart from a longer one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, uri, err)
	}
	tooLarge := int64(len(data)) > c.maxBody
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{Method: method, URL: uri, StatusCode: resp.StatusCode, Body: snippet}
	}
	if tooLarge {
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, uri, ErrBodyTooLarge, c.maxBody)
	}
	return data, nil
}

// leveledLogger routes retryablehttp logs through zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
