package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"

	"hazardwatch/internal/domain"
)

func openAIServer(t *testing.T, body string) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIClient("test-key", "gpt-4o-mini", 0.4, 5*time.Second, option.WithBaseURL(srv.URL))
}

func TestOpenAI_Success(t *testing.T) {
	c := openAIServer(t, `{
		"id": "chatcmpl-1",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "Move to higher ground."}}]
	}`)

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeSuccess, out.Kind)
	assert.Equal(t, "Move to higher ground.", out.Text)
}

func TestOpenAI_RefusalIsBlocked(t *testing.T) {
	c := openAIServer(t, `{
		"id": "chatcmpl-1",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "", "refusal": "I cannot help with that."}}]
	}`)

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeBlocked, out.Kind)
	assert.Equal(t, "I cannot help with that.", out.Reason)
}

func TestOpenAI_NoChoicesIsEmpty(t *testing.T) {
	c := openAIServer(t, `{"id": "chatcmpl-1", "choices": []}`)

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeEmpty, out.Kind)
}

func TestOpenAI_ChoiceWithoutTextIsTransportError(t *testing.T) {
	c := openAIServer(t, `{
		"id": "chatcmpl-1",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "   "}}]
	}`)

	out := c.Generate(context.Background(), testRequest())
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
	assert.Contains(t, out.Detail, "no extractable text")
}
