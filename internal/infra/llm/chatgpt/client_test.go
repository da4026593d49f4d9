package chatgpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateEmbedding_OrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"a", "b"}, req.Input)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}],"model":"m"}`))
	}))
	defer srv.Close()

	client, err := NewClient("secret", srv.URL+"/")
	require.NoError(t, err)
	resp, err := client.CreateEmbedding(context.Background(), EmbeddingRequest{Model: "m", Input: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	require.Equal(t, []float32{1, 0}, resp.Data[0].Embedding)
}

func TestCreateEmbedding_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient("secret", srv.URL)
	require.NoError(t, err)
	_, err = client.CreateEmbedding(context.Background(), EmbeddingRequest{Model: "m", Input: []string{"a"}})
	require.ErrorContains(t, err, "status=429")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(" ", "")
	require.Error(t, err)
}
