package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamreel/internal/config"
)

const videoContent = "fake-mp4-bytes"

// newSpaceServer emulates the gradio REST contract: file upload, named
// endpoint invocation, SSE result stream, file download.
func newSpaceServer(t *testing.T, failCall bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var baseURL string

	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		file.Close()
		json.NewEncoder(w).Encode([]string{"/tmp/gradio/input.jpg"})
	})

	mux.HandleFunc("POST /call/video", func(w http.ResponseWriter, r *http.Request) {
		if failCall {
			http.Error(w, "queue full", http.StatusServiceUnavailable)
			return
		}
		var payload struct {
			Data []any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Data, 3)
		assert.Equal(t, float64(0), payload.Data[1], "motion bucket id is fixed at 0")
		assert.Equal(t, float64(10), payload.Data[2], "frame rate is fixed at 10")
		json.NewEncoder(w).Encode(map[string]string{"event_id": "evt-1"})
	})

	mux.HandleFunc("GET /call/video/evt-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "event: generating\ndata: null\n\n")
		fmt.Fprintf(w, "event: complete\ndata: [{\"video\":{\"url\":%q}}]\n\n", baseURL+"/file=result.mp4")
	})

	mux.HandleFunc("GET /file=result.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(videoContent))
	})

	srv := httptest.NewServer(mux)
	baseURL = srv.URL
	return srv
}

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return path
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.VideoConfig{
		BaseURL:  baseURL,
		Endpoint: "video",
		Timeout:  5 * time.Second,
	}, zerolog.Nop())
}

func TestGenerate(t *testing.T) {
	srv := newSpaceServer(t, false)
	defer srv.Close()

	client := newTestClient(srv.URL)
	path, err := client.Generate(context.Background(), testImage(t))
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, videoContent, string(data))
}

func TestGenerate_RemoteFailurePropagates(t *testing.T) {
	srv := newSpaceServer(t, true)
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), testImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	_, err := client.Generate(context.Background(), testImage(t))
	assert.Error(t, err)
}

func TestGenerate_MissingImage(t *testing.T) {
	srv := newSpaceServer(t, false)
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), "/no/such/file.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open image")
}

func TestExtractVideoURL_PathFallback(t *testing.T) {
	client := newTestClient("http://space.example")
	url, err := client.extractVideoURL([]byte(`[{"video":{"path":"/tmp/out.mp4"}}]`))
	require.NoError(t, err)
	assert.Equal(t, "http://space.example/file=/tmp/out.mp4", url)
}

func TestExtractVideoURL_Empty(t *testing.T) {
	client := newTestClient("http://space.example")
	_, err := client.extractVideoURL([]byte(`[]`))
	assert.Error(t, err)
}
