package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateExample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "ubiquitous")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  Smartphones are ubiquitous these days.\n"}},
			},
		})
	}))
	defer srv.Close()

	c, err := New("test-key")
	require.NoError(t, err)
	c.apiURL = srv.URL

	example, err := c.GenerateExample(context.Background(), "ubiquitous", "вездесущий")
	require.NoError(t, err)
	assert.Equal(t, "Smartphones are ubiquitous these days.", example)
}

func TestGenerateExampleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	c, err := New("test-key")
	require.NoError(t, err)
	c.apiURL = srv.URL

	_, err = c.GenerateExample(context.Background(), "word", "слово")
	assert.ErrorContains(t, err, "rate limited")
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
