package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemote(t *testing.T, status int, body string) *RemoteClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewRemoteClient(srv.URL, "svc-token", 5*time.Second)
}

func TestRemoteClientVerify(t *testing.T) {
	c := newRemote(t, http.StatusOK, `{"verified":true,"score":0.8,"reason":"Pages visible."}`)

	verdict, err := c.Verify(context.Background(), "p.jpg", "Read")
	require.NoError(t, err)
	assert.True(t, verdict.Verified)
	assert.InDelta(t, 0.8, verdict.Score, 1e-9)
	assert.Equal(t, "Pages visible.", verdict.Reason)
}

func TestRemoteClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"bad request", http.StatusBadRequest, `{"error":"imagePath and goalTitle are required"}`, ErrInvalidInput},
		{"upstream failure", http.StatusBadGateway, `{"error":"OpenAI API error","detail":"timeout"}`, ErrUnavailable},
		{"server error", http.StatusInternalServerError, `oops`, ErrUnavailable},
		{"missing fields", http.StatusOK, `{"reason":"?"}`, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newRemote(t, tt.status, tt.body)
			_, err := c.Verify(context.Background(), "p.jpg", "Read")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
