package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var payload completionPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "gpt-4", payload.Model)
		require.Equal(t, 0.3, payload.Temperature)
		require.Len(t, payload.Messages, 2)
		require.Equal(t, "system", payload.Messages[0].Role)
		require.Equal(t, "user", payload.Messages[1].Role)

		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "Key themes: access."}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", "")
	out, err := client.Complete(context.Background(), "You are an analyst.", "Summarize.")
	require.NoError(t, err)
	require.Equal(t, "Key themes: access.", out)
}

func TestCompleteApiError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad", "")
	_, err := client.Complete(context.Background(), "s", "u")
	require.ErrorContains(t, err, "Incorrect API key")
}
