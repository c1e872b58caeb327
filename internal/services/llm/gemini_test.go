package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazardwatch/internal/domain"
)

func testRequest() domain.PromptRequest {
	return domain.PromptRequest{
		UserText:        "is it safe outside?",
		MaxOutputTokens: 300,
		System:          "system instructions",
		Body:            "prompt body",
	}
}

func geminiServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *GeminiClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewGeminiClient("test-key", "gemini-1.5-flash", 0.4, &http.Client{Timeout: 5 * time.Second}).WithBaseURL(srv.URL)
	return srv, c
}

func TestGemini_Success(t *testing.T) {
	_, c := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "prompt body", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, 300, req.GenerationConfig.MaxOutputTokens)

		resp := generateContentResponse{
			Candidates: []geminiCandidate{
				{Content: &geminiContent{Parts: []geminiPart{{Text: "Stay indoors. "}, {Text: "Follow local advisories."}}}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeSuccess, out.Kind)
	assert.Equal(t, "Stay indoors. Follow local advisories.", out.Text)
}

func TestGemini_BlockedWhenNoCandidatesWithBlockReason(t *testing.T) {
	_, c := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		resp := generateContentResponse{
			PromptFeedback: &promptFeedback{BlockReason: "SAFETY"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeBlocked, out.Kind)
	assert.Equal(t, "SAFETY", out.Reason)
}

func TestGemini_EmptyWhenNoCandidatesWithoutBlockReason(t *testing.T) {
	_, c := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(generateContentResponse{}))
	})

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeEmpty, out.Kind)
}

func TestGemini_TransportErrorWhenCandidateHasNoText(t *testing.T) {
	_, c := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		resp := generateContentResponse{
			Candidates: []geminiCandidate{{FinishReason: "MAX_TOKENS"}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
	assert.Contains(t, out.Detail, "no extractable text")
}

func TestGemini_TransportErrorOnHTTPFailure(t *testing.T) {
	_, c := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	})

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
	assert.Contains(t, out.Detail, "503")
}

func TestGemini_TransportErrorWhenUnreachable(t *testing.T) {
	srv, c := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	srv.Close()

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
}

func TestGemini_TransportErrorWhenClientTimeoutExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		require.NoError(t, json.NewEncoder(w).Encode(generateContentResponse{}))
	}))
	t.Cleanup(srv.Close)
	c := NewGeminiClient("test-key", "gemini-1.5-flash", 0.4, &http.Client{Timeout: 50 * time.Millisecond}).WithBaseURL(srv.URL)

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
}

func TestGemini_WhitespaceOnlyTextIsTransportError(t *testing.T) {
	_, c := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		resp := generateContentResponse{
			Candidates: []geminiCandidate{
				{Content: &geminiContent{Parts: []geminiPart{{Text: "   \n  "}}}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
}
