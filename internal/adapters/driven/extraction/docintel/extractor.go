// Package docintel adapts a hosted document-analysis service. Analysis
// is asynchronous: a submit call returns an operation URL which is
// polled until the extraction completes.
package docintel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/libria-search/libria/internal/core/ports/driven"
	"github.com/libria-search/libria/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = time.Second
	DefaultModel        = "prebuilt-read"

	apiVersion = "2024-11-30"
)

// Config holds configuration for the extraction service.
type Config struct {
	// Endpoint is the service base URL (required).
	Endpoint string

	// APIKey authenticates requests (required).
	APIKey string

	// Model selects the analysis model (default: prebuilt-read).
	Model string

	// Timeout bounds each HTTP request (default: 60s).
	Timeout time.Duration

	// PollInterval is the wait between status checks (default: 1s).
	PollInterval time.Duration
}

// Extractor submits documents for analysis and polls for the result.
type Extractor struct {
	client       *http.Client
	endpoint     string
	apiKey       string
	model        string
	pollInterval time.Duration
}

// analyzeStatus is the polled operation state.
type analyzeStatus struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Result *analyzeResult `json:"analyzeResult,omitempty"`
}

type analyzeResult struct {
	Pages []struct {
		Lines []struct {
			Content string `json:"content"`
		} `json:"lines"`
	} `json:"pages"`
	Metadata struct {
		Author    string    `json:"author"`
		Title     string    `json:"title"`
		Created   time.Time `json:"createdDateTime"`
		PageCount int       `json:"pageCount"`
		Language  string    `json:"language"`
	} `json:"metadata"`
}

// NewExtractor creates an extraction adapter.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("docintel: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("docintel: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Extractor{
		client:       &http.Client{Timeout: cfg.Timeout},
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		pollInterval: cfg.PollInterval,
	}, nil
}

// Analyze submits document bytes and blocks until the service finishes,
// honouring ctx for cancellation between polls.
func (e *Extractor) Analyze(ctx context.Context, content io.Reader) (*driven.ExtractionResult, error) {
	opURL, err := e.submit(ctx, content)
	if err != nil {
		return nil, err
	}
	logger.Debug("analysis submitted, polling %s", opURL)

	for {
		status, err := e.poll(ctx, opURL)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "succeeded":
			return convertResult(status.Result), nil
		case "failed":
			if status.Error != nil {
				return nil, fmt.Errorf("docintel: analysis failed (%s): %s", status.Error.Code, status.Error.Message)
			}
			return nil, fmt.Errorf("docintel: analysis failed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

// submit posts the document and returns the operation URL to poll.
func (e *Extractor) submit(ctx context.Context, content io.Reader) (string, error) {
	url := fmt.Sprintf("%s/documentModels/%s:analyze?api-version=%s", e.endpoint, e.model, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, content)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("docintel: submit returned status %d: %s", resp.StatusCode, string(body))
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("docintel: submit response missing Operation-Location")
	}
	return opURL, nil
}

// poll fetches the operation state once.
func (e *Extractor) poll(ctx context.Context, opURL string) (*analyzeStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("docintel: poll returned status %d: %s", resp.StatusCode, string(body))
	}

	var status analyzeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &status, nil
}

// convertResult maps the wire format to the port types.
func convertResult(r *analyzeResult) *driven.ExtractionResult {
	out := &driven.ExtractionResult{}
	if r == nil {
		return out
	}

	out.Pages = make([][]string, len(r.Pages))
	for i, page := range r.Pages {
		lines := make([]string, len(page.Lines))
		for j, line := range page.Lines {
			lines[j] = line.Content
		}
		out.Pages[i] = lines
	}

	out.Metadata = driven.ExtractionMetadata{
		Author:    r.Metadata.Author,
		Title:     r.Metadata.Title,
		Created:   r.Metadata.Created,
		PageCount: r.Metadata.PageCount,
		Language:  r.Metadata.Language,
	}
	if out.Metadata.PageCount == 0 {
		out.Metadata.PageCount = len(r.Pages)
	}
	return out
}

// Close releases resources.
func (e *Extractor) Close() error {
	return nil
}
