package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func imageResponse(model string) string {
	return fmt.Sprintf(`{
		"id": "gen-1",
		"model": %q,
		"choices": [{
			"message": {
				"role": "assistant",
				"content": "",
				"images": [{"type": "image_url", "image_url": {"url": "data:image/png;base64,%s"}}]
			},
			"finish_reason": "stop"
		}]
	}`, model, tinyPNG)
}

func testClient(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenRouterClient(OpenRouterConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		Model:             "test/model",
		RequestsPerMinute: 10000,
		MaxRetries:        3,
		RetryDelay:        time.Millisecond,
	})
}

func TestGenerateExtractsImage(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq orRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, imageResponse("test/model"))
	})

	res, err := c.Generate(context.Background(), &Request{Prompt: "a red ball", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if len(gotReq.Modalities) != 2 {
		t.Errorf("modalities = %v", gotReq.Modalities)
	}

	want, _ := base64.StdEncoding.DecodeString(tinyPNG)
	if string(res.Data) != string(want) {
		t.Error("image bytes do not match the data URL payload")
	}
	if res.MimeType != "image/png" {
		t.Errorf("mime = %q", res.MimeType)
	}
	if res.Model != "test/model" {
		t.Errorf("model = %q", res.Model)
	}
}

func TestGenerateRetriesOn429AndServerErrors(t *testing.T) {
	var calls atomic.Int64
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, imageResponse("test/model"))
		}
	})

	if _, err := c.Generate(context.Background(), &Request{Prompt: "p"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "bad prompt"}}`)
	})

	if _, err := c.Generate(context.Background(), &Request{Prompt: "p"}); err == nil {
		t.Fatal("400 should fail without retry")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGenerateRejectsMissingImage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "text only"}}]}`)
	})
	if _, err := c.Generate(context.Background(), &Request{Prompt: "p"}); err == nil {
		t.Fatal("response without images should fail")
	}
}

func TestGenerateValidatesInputs(t *testing.T) {
	c := NewOpenRouterClient(OpenRouterConfig{Model: "m"})
	if _, err := c.Generate(context.Background(), &Request{Prompt: "p"}); err == nil {
		t.Error("missing api key should fail")
	}
	c = NewOpenRouterClient(OpenRouterConfig{APIKey: "k"})
	if _, err := c.Generate(context.Background(), &Request{Prompt: "   "}); err == nil {
		t.Error("blank prompt should fail")
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, mime, err := decodeDataURL("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("abc")))
	if err != nil {
		t.Fatalf("decodeDataURL: %v", err)
	}
	if mime != "image/png" || string(data) != "abc" {
		t.Errorf("mime=%q data=%q", mime, data)
	}

	for _, bad := range []string{
		"https://example.com/x.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
	} {
		if _, _, err := decodeDataURL(bad); err == nil {
			t.Errorf("decodeDataURL(%q) should fail", bad)
		}
	}
}

func TestRateLimiterWaitAndStatus(t *testing.T) {
	r := NewRateLimiter(60)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := r.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	st := r.Status()
	if st.TotalConsumed != 5 {
		t.Errorf("TotalConsumed = %d", st.TotalConsumed)
	}
	if st.TokensLimit != 60 {
		t.Errorf("TokensLimit = %d", st.TokensLimit)
	}

	r.Record429()
	st = r.Status()
	if st.Last429Time.IsZero() {
		t.Error("Record429 did not stamp the time")
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	r := NewRateLimiter(1)
	r.Record429() // drain
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); err == nil {
		t.Fatal("drained limiter should respect context deadline")
	}
}
