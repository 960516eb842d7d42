package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dreamreel/internal/config"
)

// Classification is one (label, score) pair returned by a hosted
// text-classification model.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// APIError carries the status and message of a failed inference call so
// callers can tell a remote rejection from a transport failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference api: status=%d msg=%s", e.Status, e.Message)
}

// Client talks to the hosted inference API. It is constructed once at
// startup and injected into everything that needs it; there is no
// package-level instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.InferenceConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// TextClassification submits text to a classification model and returns
// the label/score pairs. The API nests the pairs one level deep for a
// single input.
func (c *Client) TextClassification(ctx context.Context, text, model string) ([]Classification, error) {
	body, err := c.post(ctx, model, inferenceRequest{Inputs: text}, "application/json")
	if err != nil {
		return nil, err
	}

	var nested [][]Classification
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var flat []Classification
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode classification response: %w", err)
	}
	return flat, nil
}

// TextToImage submits a prompt to an image model and returns the raw
// image bytes the API responds with.
func (c *Client) TextToImage(ctx context.Context, prompt, model string) ([]byte, error) {
	return c.post(ctx, model, inferenceRequest{Inputs: prompt}, "image/png")
}

func (c *Client) post(ctx context.Context, model string, payload any, accept string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().
		Str("model", model).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("inference call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: readErrMsg(body)}
	}

	return body, nil
}

func readErrMsg(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
