package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("test-key")
	c.baseURL = srv.URL
	return c
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			}},
		},
	}
}

func TestEnhancePromptParsesText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, enhanceModel) {
			t.Errorf("path %q, want the enhance model", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key %q", got)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		raw, _ := json.Marshal(payload)
		if !strings.Contains(string(raw), "a lipstick") {
			t.Error("user prompt missing from the instruction")
		}

		json.NewEncoder(w).Encode(textResponse("  A glossy red lipstick, studio lit.\n"))
	})

	enhanced, err := client.EnhancePrompt(context.Background(), "a lipstick")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enhanced != "A glossy red lipstick, studio lit." {
		t.Errorf("enhanced %q, want whitespace trimmed", enhanced)
	}
}

func TestEnhancePromptNoText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	_, err := client.EnhancePrompt(context.Background(), "a lipstick")
	if err == nil {
		t.Fatal("expected an error when no candidate carries text")
	}
}

func TestGenerateImageDecodesInlineData(t *testing.T) {
	png := []byte("fake-png-bytes")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, imageModel) {
			t.Errorf("path %q, want the image model", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"parts": []map[string]any{
						{"text": "here is your image"},
						{"inlineData": map[string]string{
							"mimeType": "image/png",
							"data":     base64.StdEncoding.EncodeToString(png),
						}},
					},
				}},
			},
		})
	})

	data, err := client.GenerateImage(context.Background(), "a lipstick")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(png) {
		t.Errorf("got %q, want the decoded bytes", data)
	}
}

func TestGenerateImageNoInlineData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(textResponse("no image today"))
	})

	_, err := client.GenerateImage(context.Background(), "a lipstick")
	if err == nil {
		t.Fatal("expected an error when no candidate carries image data")
	}
}

func TestUpstreamErrorStatusSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.EnhancePrompt(context.Background(), "a lipstick")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("got %v, want the upstream status in the error", err)
	}
}

func TestNotConfigured(t *testing.T) {
	client := New("")

	if _, err := client.EnhancePrompt(context.Background(), "p"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("enhance: got %v, want ErrNotConfigured", err)
	}
	if _, err := client.GenerateImage(context.Background(), "p"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("generate: got %v, want ErrNotConfigured", err)
	}
}
