package video_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexgenlabs/studio/internal/adapter/video"
	"github.com/nexgenlabs/studio/internal/port/provider"
)

func TestGeneratePollsUntilComplete(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/jobs":
			_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1", "status": "processing"})
		case r.Method == http.MethodGet && r.URL.Path == "/jobs/job-1":
			if polls.Add(1) < 3 {
				_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1", "status": "processing"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"job_id": "job-1", "status": "succeeded", "video_url": "https://cdn.example.com/v.mp4",
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := video.NewClient("runware", srv.URL, "key", time.Millisecond, time.Second)
	res, err := client.Generate(context.Background(), provider.VideoRequest{
		Prompt: "rooftop chase at dusk", DurationSeconds: 5, AspectRatio: "16:9", Quality: "preview",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Status != "completed" {
		t.Errorf("expected completed, got %s", res.Status)
	}
	if res.VideoURL != "https://cdn.example.com/v.mp4" {
		t.Errorf("unexpected url %s", res.VideoURL)
	}
	if polls.Load() < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls.Load())
	}
}

func TestGenerateImmediateCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"job_id": "job-2", "status": "completed", "video_url": "https://cdn.example.com/fast.mp4",
		})
	}))
	defer srv.Close()

	client := video.NewClient("doubao", srv.URL, "key", time.Millisecond, time.Second)
	res, err := client.Generate(context.Background(), provider.VideoRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.VideoURL != "https://cdn.example.com/fast.mp4" {
		t.Errorf("unexpected url %s", res.VideoURL)
	}
}

func TestGenerateFailedJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-3", "status": "processing"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"job_id": "job-3", "status": "failed", "error": "content policy rejection",
		})
	}))
	defer srv.Close()

	client := video.NewClient("runway", srv.URL, "key", time.Millisecond, time.Second)
	_, err := client.Generate(context.Background(), provider.VideoRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected failure error")
	}
}

func TestGeneratePollTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-4", "status": "processing"})
	}))
	defer srv.Close()

	client := video.NewClient("runware", srv.URL, "key", time.Millisecond, 20*time.Millisecond)
	_, err := client.Generate(context.Background(), provider.VideoRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
