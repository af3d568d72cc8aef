package remover

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteRemoverSuccess(t *testing.T) {
	input := []byte("raw-photo-bytes")
	output := []byte("png-without-background")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret-key", r.Header.Get("X-Api-Key"))

		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "auto", r.FormValue("size"))

		file, _, err := r.FormFile("image_file")
		require.NoError(t, err)
		defer file.Close()
		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, input, got)

		w.WriteHeader(http.StatusOK)
		w.Write(output)
	}))
	defer server.Close()

	r := NewRemoteRemover(server.URL, "secret-key", 5*time.Second)
	got, err := r.Remove(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, output, got)
}

func TestRemoteRemoverQuota(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "too many requests", status: http.StatusTooManyRequests},
		{name: "payment required", status: http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"errors":[{"title":"Insufficient credits"}]}`))
			}))
			defer server.Close()

			r := NewRemoteRemover(server.URL, "k", 5*time.Second)
			_, err := r.Remove(context.Background(), []byte("img"))

			var quotaErr *QuotaError
			require.ErrorAs(t, err, &quotaErr)
			assert.Equal(t, "Insufficient credits", quotaErr.Message)
		})
	}
}

func TestRemoteRemoverServiceError(t *testing.T) {
	t.Run("structured body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errors":[{"title":"","detail":"File too large"}]}`))
		}))
		defer server.Close()

		r := NewRemoteRemover(server.URL, "k", 5*time.Second)
		_, err := r.Remove(context.Background(), []byte("img"))

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, http.StatusBadRequest, svcErr.Status)
		assert.Equal(t, "File too large", svcErr.Message)
	})

	t.Run("raw body fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("upstream exploded"))
		}))
		defer server.Close()

		r := NewRemoteRemover(server.URL, "k", 5*time.Second)
		_, err := r.Remove(context.Background(), []byte("img"))

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "upstream exploded", svcErr.Message)
	})
}

func TestRemoteRemoverNetworkError(t *testing.T) {
	// Closed server: connection refused before any HTTP response.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	r := NewRemoteRemover(url, "k", 2*time.Second)
	_, err := r.Remove(context.Background(), []byte("img"))

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)

	var svcErr *ServiceError
	assert.False(t, errors.As(err, &svcErr), "connection failure must never classify as ServiceError")
}
