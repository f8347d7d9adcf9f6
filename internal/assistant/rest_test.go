package assistant

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

func TestRESTGenerator_Generate(t *testing.T) {
	var got restRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/"+Model+":generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"It is "},{"text":"currently warm."}]}}]}`))
	}))
	defer srv.Close()

	gen := NewRESTGenerator(srv.URL+"/v1beta/", "secret", time.Second)
	text, err := gen.Generate(context.Background(), Model, []Turn{
		{Role: RoleUser, Text: "system"},
		{Role: RoleUser, Text: "What is the temperature?"},
	})

	require.NoError(t, err)
	assert.Equal(t, "It is currently warm.", text)
	require.Len(t, got.Contents, 2)
	assert.Equal(t, "user", got.Contents[1].Role)
	assert.Equal(t, "What is the temperature?", got.Contents[1].Parts[0].Text)
}

func TestRESTGenerator_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	text, err := NewRESTGenerator(srv.URL, "k", time.Second).Generate(context.Background(), Model, nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestRESTGenerator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	_, err := NewRESTGenerator(srv.URL, "bad", time.Second).Generate(context.Background(), Model, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestRESTGenerator_ThroughGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGateway(NewRESTGenerator(srv.URL, "k", time.Second))
	assert.Equal(t, ErrorResponse, g.Respond(context.Background(), "hi", defaultContext()))
}
