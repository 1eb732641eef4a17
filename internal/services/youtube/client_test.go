package youtube_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/services/youtube"
)

func writeVideo(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "final_video.mp4")
	if err := os.WriteFile(path, []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestUploadResumableFlow(t *testing.T) {
	var sessionBody map[string]any
	var uploaded []byte

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if got := r.URL.Query().Get("uploadType"); got != "resumable" {
			t.Fatalf("expected resumable uploadType, got %q", got)
		}
		if got := r.URL.Query().Get("part"); got != "snippet,status" {
			t.Fatalf("expected snippet,status part, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&sessionBody); err != nil {
			t.Fatalf("decode session body: %v", err)
		}
		w.Header().Set("Location", server.URL+"/session/abc")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/session/abc", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("unexpected method %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read upload body: %v", err)
		}
		uploaded = body
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "vid123"})
	})

	client := youtube.NewClient(
		youtube.Config{UploadBaseURL: server.URL},
		youtube.WithHTTPClient(server.Client()),
	)

	videoPath := writeVideo(t, t.TempDir())
	id, err := client.Upload(context.Background(), videoPath, youtube.Metadata{
		Title:         "Parliament WiFi Saga",
		Description:   "Satire short",
		Tags:          []string{"satire", "shorts"},
		CategoryID:    "24",
		PrivacyStatus: "public",
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if id != "vid123" {
		t.Fatalf("expected video id vid123, got %q", id)
	}
	if string(uploaded) != "mp4-bytes" {
		t.Fatalf("expected video bytes uploaded, got %q", uploaded)
	}

	snippet := sessionBody["snippet"].(map[string]any)
	if snippet["title"] != "Parliament WiFi Saga" {
		t.Fatalf("unexpected snippet title: %v", snippet["title"])
	}
	if snippet["categoryId"] != "24" {
		t.Fatalf("unexpected category: %v", snippet["categoryId"])
	}
	status := sessionBody["status"].(map[string]any)
	if status["privacyStatus"] != "public" {
		t.Fatalf("unexpected privacy status: %v", status["privacyStatus"])
	}
}

func TestUploadSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "quotaExceeded"},
		})
	}))
	defer server.Close()

	client := youtube.NewClient(
		youtube.Config{UploadBaseURL: server.URL},
		youtube.WithHTTPClient(server.Client()),
	)

	videoPath := writeVideo(t, t.TempDir())
	_, err := client.Upload(context.Background(), videoPath, youtube.Metadata{Title: "x"})
	if err == nil {
		t.Fatal("expected error from API failure")
	}
	if !strings.Contains(err.Error(), "quotaExceeded") {
		t.Fatalf("expected quota message, got %v", err)
	}
}

func TestUploadRequiresSessionLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := youtube.NewClient(
		youtube.Config{UploadBaseURL: server.URL},
		youtube.WithHTTPClient(server.Client()),
	)

	videoPath := writeVideo(t, t.TempDir())
	_, err := client.Upload(context.Background(), videoPath, youtube.Metadata{Title: "x"})
	if err == nil || !strings.Contains(err.Error(), "Location") {
		t.Fatalf("expected missing Location error, got %v", err)
	}
}

func TestWatchURL(t *testing.T) {
	client := youtube.NewClient(youtube.Config{})
	if got := client.WatchURL("vid123"); got != "https://www.youtube.com/watch?v=vid123" {
		t.Fatalf("unexpected watch url %q", got)
	}
}
