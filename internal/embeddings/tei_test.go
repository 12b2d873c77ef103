package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTEI serves the TEI /embed contract: a vector per input, in order.
func fakeTEI(t *testing.T, vector []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Inputs   any  `json:"inputs"`
			Truncate bool `json:"truncate"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		n := 1
		if inputs, ok := req.Inputs.([]any); ok {
			n = len(inputs)
		}
		out := make([][]float32, n)
		for i := range out {
			out[i] = vector
		}
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
}

func TestEmbedDocuments(t *testing.T) {
	srv := fakeTEI(t, []float32{0.1, 0.2, 0.3})
	defer srv.Close()

	svc, err := NewTEIService(TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])
}

func TestEmbedQuery(t *testing.T) {
	srv := fakeTEI(t, []float32{1, 2})
	defer srv.Close()

	svc, err := NewTEIService(TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	vec, err := svc.EmbedQuery(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)
}

func TestEmptyInputRejected(t *testing.T) {
	svc, err := NewTEIService(TEIConfig{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, err := NewTEIService(TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "question")
	require.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ProviderConfig
		wantErr  error
		wantType bool
	}{
		{
			name:     "tei",
			cfg:      ProviderConfig{Provider: "tei", BaseURL: "http://localhost:8080"},
			wantType: true,
		},
		{
			name:     "default is tei",
			cfg:      ProviderConfig{BaseURL: "http://localhost:8080"},
			wantType: true,
		},
		{
			name:    "missing base url",
			cfg:     ProviderConfig{Provider: "tei"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown provider",
			cfg:     ProviderConfig{Provider: "astral", BaseURL: "http://localhost"},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, &TEIService{}, p)
		})
	}
}
