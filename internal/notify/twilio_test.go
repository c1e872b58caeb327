package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *TwilioClient {
	return NewTwilioClient("AC123", "token", "+15550001111", &http.Client{Timeout: 5 * time.Second}).WithBaseURL(baseURL)
}

func TestSend_Queued(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+919812345678", r.PostForm.Get("To"))
		assert.Equal(t, "+15550001111", r.PostForm.Get("From"))
		assert.Equal(t, "Cyclone alert: move to higher ground.", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM123", "status": "queued"}`))
	}))
	defer srv.Close()

	sent := testClient(srv.URL).Send(context.Background(), "+919812345678", "Cyclone alert: move to higher ground.")
	assert.True(t, sent)
}

func TestSend_RejectedByTwilio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	sent := testClient(srv.URL).Send(context.Background(), "+919812345678", "alert")
	assert.False(t, sent)
}

func TestSend_FailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"sid": "SM123", "status": "failed", "error_message": "unreachable"}`))
	}))
	defer srv.Close()

	sent := testClient(srv.URL).Send(context.Background(), "+919812345678", "alert")
	assert.False(t, sent)
}

func TestSend_InvalidRecipientNeverHitsAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	assert.False(t, c.Send(context.Background(), "9812345678", "alert"))
	assert.False(t, c.Send(context.Background(), "+98abc45678", "alert"))
	assert.False(t, c.Send(context.Background(), "", "alert"))
	assert.False(t, c.Send(context.Background(), "+919812345678", ""))
}

func TestSend_Unconfigured(t *testing.T) {
	c := NewTwilioClient("", "", "", nil)
	assert.False(t, c.Configured())
	assert.False(t, c.Send(context.Background(), "+919812345678", "alert"))
}

func TestValidE164(t *testing.T) {
	assert.True(t, validE164("+919812345678"))
	assert.True(t, validE164("+15550001111"))
	assert.False(t, validE164("919812345678"))
	assert.False(t, validE164("+1-555-000"))
	assert.False(t, validE164("+12"))
	assert.False(t, validE164("+1234567890123456789"))
}
