package sdwebui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Steps: 20, TimeoutSeconds: 5})
}

func TestGenerateImage(t *testing.T) {
	pngBytes := []byte("\x89PNG fake image data")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sdapi/v1/txt2img" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req txt2imgRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Steps != 20 || req.Width != 512 {
			t.Errorf("unexpected render settings: %+v", req)
		}
		if req.AlwaysonScripts != nil {
			t.Error("still image request must not carry alwayson_scripts")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"images": []string{base64.StdEncoding.EncodeToString(pngBytes)},
		})
	})

	out := filepath.Join(t.TempDir(), "scene_01.png")
	if err := client.GenerateImage(context.Background(), "a parliament in 3d cartoon style", out); err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != string(pngBytes) {
		t.Fatal("output file does not match decoded image")
	}
}

func TestGenerateAnimationCarriesAnimateDiffPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AlwaysonScripts map[string]struct {
				Args []map[string]any `json:"args"`
			} `json:"alwayson_scripts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		ad, ok := req.AlwaysonScripts["AnimateDiff"]
		if !ok || len(ad.Args) != 1 {
			t.Fatalf("expected AnimateDiff args, got %+v", req.AlwaysonScripts)
		}
		args := ad.Args[0]
		if args["model"] != "mm_sd_v15_v2.ckpt" {
			t.Errorf("unexpected motion model %v", args["model"])
		}
		if args["enable"] != true {
			t.Error("expected enable=true")
		}
		if args["video_length"] != float64(16) || args["fps"] != float64(8) {
			t.Errorf("unexpected animation settings: %+v", args)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"images": []string{base64.StdEncoding.EncodeToString([]byte("GIF89a fake"))},
		})
	})

	out := filepath.Join(t.TempDir(), "scene_01.gif")
	if err := client.GenerateAnimation(context.Background(), "petrol pump spinning", out); err != nil {
		t.Fatalf("GenerateAnimation: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected gif written: %v", err)
	}
}

func TestGenerateImageErrorDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"images": []string{}, "detail": "no checkpoint loaded"})
	})
	err := client.GenerateImage(context.Background(), "prompt", filepath.Join(t.TempDir(), "x.png"))
	if err == nil || !strings.Contains(err.Error(), "no checkpoint loaded") {
		t.Fatalf("expected detail error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sdapi/v1/sd-models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]string{{"title": "sd15"}})
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
