package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nexgenlabs/studio/internal/adapter/llm"
	"github.com/nexgenlabs/studio/internal/port/provider"
	"github.com/nexgenlabs/studio/internal/resilience"
)

func chatServer(t *testing.T, content string, inspect func(body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(body)
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
			"usage": map[string]int{
				"prompt_tokens":     12,
				"completion_tokens": 34,
				"total_tokens":      46,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestComplete(t *testing.T) {
	srv := chatServer(t, "a cinematic opening shot", func(body map[string]any) {
		if body["model"] != "test-model" {
			t.Errorf("unexpected model %v", body["model"])
		}
	})
	defer srv.Close()

	client := llm.NewClient(srv.URL, "test-key", "test-model")
	out, err := client.Complete(context.Background(), "write an opening shot", 0.7)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "a cinematic opening shot" {
		t.Errorf("unexpected content %q", out)
	}
}

func TestStructuredCompleteUsageAndFormat(t *testing.T) {
	srv := chatServer(t, `{"scenes":[]}`, func(body map[string]any) {
		rf, ok := body["response_format"].(map[string]any)
		if !ok || rf["type"] != "json_object" {
			t.Errorf("expected json_object response format, got %v", body["response_format"])
		}
	})
	defer srv.Close()

	client := llm.NewClient(srv.URL, "test-key", "test-model")
	res, err := client.StructuredComplete(context.Background(),
		[]provider.Message{
			{Role: "system", Content: "you split scripts"},
			{Role: "user", Content: "split this"},
		},
		provider.CompleteOptions{ResponseFormat: "json_object"})
	if err != nil {
		t.Fatalf("StructuredComplete failed: %v", err)
	}
	if res.Usage.TotalTokens != 46 {
		t.Errorf("expected usage 46 total tokens, got %d", res.Usage.TotalTokens)
	}
}

func TestAnalyzeImage(t *testing.T) {
	srv := chatServer(t, "a storyboard panel of a rooftop chase", func(body map[string]any) {
		msgs, ok := body["messages"].([]any)
		if !ok || len(msgs) != 1 {
			t.Fatalf("expected 1 message, got %v", body["messages"])
		}
		first := msgs[0].(map[string]any)
		parts, ok := first["content"].([]any)
		if !ok || len(parts) != 2 {
			t.Fatalf("expected 2 content parts, got %v", first["content"])
		}
	})
	defer srv.Close()

	client := llm.NewClient(srv.URL, "", "test-model")
	out, err := client.AnalyzeImage(context.Background(), "https://example.com/panel.png", "describe this panel")
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if out == "" {
		t.Fatal("expected description")
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := llm.NewClient(srv.URL, "key", "test-model")
	if _, err := client.Complete(context.Background(), "hi", 0); err == nil {
		t.Fatal("expected error from 503 response")
	}
}

func TestBreakerRejectsWhenOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := llm.NewClient(srv.URL, "key", "test-model")
	client.SetBreaker(resilience.NewBreaker("llm", 2, time.Minute))

	for i := 0; i < 2; i++ {
		_, _ = client.Complete(context.Background(), "hi", 0)
	}

	_, err := client.Complete(context.Background(), "hi", 0)
	if err == nil {
		t.Fatal("expected circuit open error")
	}
}
