package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "Global Dialogues PRI Assessment", r.Header.Get("X-Title"))
		assert.Equal(t, "https://example.org", r.Header.Get("HTTP-Referer"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"confidence_score\":0.9}"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("secret", srv.URL, time.Second, 0.1, 500)
	c.Referer = "https://example.org"

	content, err := c.Complete(context.Background(), "openai/gpt-4o-mini", "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"confidence_score":0.9}`, content)

	assert.Equal(t, "openai/gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestHTTPClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient("k", srv.URL, time.Second, 0.1, 10)
	_, err := c.Complete(context.Background(), "m", "p")

	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 500: upstream exploded")
}

func TestHTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewHTTPClient("k", srv.URL, 50*time.Millisecond, 0.1, 10)
	_, err := c.Complete(context.Background(), "m", "p")

	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "Request timeout", err.Error())
}

func TestHTTPClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient("k", srv.URL, time.Second, 0, 0).Complete(context.Background(), "m", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Request error")
}

func TestHTTPClientMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `<html>bad gateway</html>`, "invalid response envelope"},
		{"no message", `{"choices":[{"finish_reason":"length"}]}`, "no choices in response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient("k", srv.URL, time.Second, 0, 0).Complete(context.Background(), "m", "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
