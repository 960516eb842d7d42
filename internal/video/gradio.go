// Package video drives the remote gradio space that animates a still
// image into a short video clip.
package video

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dreamreel/internal/config"
)

// Fixed invocation parameters of the video space. The model ignores
// camera motion and renders at a low frame rate; neither is exposed to
// callers.
const (
	motionBucketID = 0
	framesPerSec   = 10
)

type Client struct {
	baseURL  string
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

func NewClient(cfg config.VideoConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "video"
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Generate uploads the image, invokes the space's named endpoint and
// blocks until the result event arrives, then downloads the produced
// video to a temp file and returns its path. The caller owns the file.
func (c *Client) Generate(ctx context.Context, imagePath string) (string, error) {
	serverPath, err := c.upload(ctx, imagePath)
	if err != nil {
		return "", err
	}

	eventID, err := c.call(ctx, serverPath)
	if err != nil {
		return "", err
	}

	videoURL, err := c.await(ctx, eventID)
	if err != nil {
		return "", err
	}

	return c.download(ctx, videoURL)
}

// upload pushes the local file into the space's file store and returns
// the server-side path the space will reference it by.
func (c *Client) upload(ctx context.Context, imagePath string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy image into form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload image: status %d", resp.StatusCode)
	}

	var paths []string
	if err := json.NewDecoder(resp.Body).Decode(&paths); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("upload response contained no file path")
	}
	return paths[0], nil
}

type fileRef struct {
	Path string            `json:"path"`
	Meta map[string]string `json:"meta"`
}

func (c *Client) call(ctx context.Context, serverPath string) (string, error) {
	payload := map[string]any{
		"data": []any{
			fileRef{Path: serverPath, Meta: map[string]string{"_type": "gradio.FileData"}},
			motionBucketID,
			framesPerSec,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode call payload: %w", err)
	}

	url := fmt.Sprintf("%s/call/%s", c.baseURL, c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke video endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("invoke video endpoint: status %d", resp.StatusCode)
	}

	var parsed struct {
		EventID string `json:"event_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode call response: %w", err)
	}
	if parsed.EventID == "" {
		return "", fmt.Errorf("video endpoint returned no event id")
	}
	return parsed.EventID, nil
}

// await reads the server-sent event stream for the invocation until the
// complete event carries the result payload.
func (c *Client) await(ctx context.Context, eventID string) (string, error) {
	url := fmt.Sprintf("%s/call/%s/%s", c.baseURL, c.endpoint, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build result request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("stream video result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stream video result: status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	event := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "complete":
				return c.extractVideoURL([]byte(data))
			case "error":
				return "", fmt.Errorf("video generation failed: %s", data)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read result stream: %w", err)
	}
	return "", fmt.Errorf("result stream ended without completion")
}

// extractVideoURL digs the video file reference out of the completion
// payload: the first result entry holds {"video": {url|path}}.
func (c *Client) extractVideoURL(data []byte) (string, error) {
	var results []struct {
		Video struct {
			URL  string `json:"url"`
			Path string `json:"path"`
		} `json:"video"`
	}
	if err := json.Unmarshal(data, &results); err != nil {
		return "", fmt.Errorf("decode completion payload: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("completion payload contained no video")
	}

	if url := results[0].Video.URL; url != "" {
		return url, nil
	}
	if p := results[0].Video.Path; p != "" {
		return c.baseURL + "/file=" + p, nil
	}
	return "", fmt.Errorf("completion payload contained no video reference")
}

func (c *Client) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download video: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "dreamreel-video-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create temp video: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp video: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp video: %w", err)
	}

	c.log.Debug().Str("path", tmp.Name()).Msg("video downloaded")
	return tmp.Name(), nil
}
