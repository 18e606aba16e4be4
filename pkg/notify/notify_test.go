package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSend_PostsJSON(t *testing.T) {
	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	userID := uuid.New()
	svc := NewService(server.URL, discard())
	err := svc.Send(context.Background(), &Message{
		UserID: userID, Kind: "limit_exceeded", Title: "Food", Body: "Limit exceeded",
	})
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "limit_exceeded", got.Kind)
}

func TestSend_RejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewService(server.URL, discard())
	err := svc.Send(context.Background(), &Message{Body: "x"})
	assert.ErrorContains(t, err, "502")
}

func TestSend_WithoutWebhookOnlyLogs(t *testing.T) {
	svc := NewService("", discard())
	assert.NoError(t, svc.Send(context.Background(), &Message{Body: "hello"}))
	assert.Error(t, svc.Send(context.Background(), &Message{}))
}

func TestSendBatch_JoinsFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(server.URL, discard())
	err := svc.SendBatch(context.Background(), []*Message{{Body: "a"}, {}, {Body: "b"}})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}
