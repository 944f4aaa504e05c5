package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_SendCheckIn(t *testing.T) {
	var received CheckInRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL})
	err := n.SendCheckIn(context.Background(), CheckInRequest{
		UserID: "u1",
		Candidates: []CandidateVenue{
			{ID: "v1", Name: "Radio Coffee", Address: "4204 Menchaca Rd"},
		},
		PushTitle: "Check in!",
		PushBody:  "It looks like you're in a venue! Please check in",
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", received.UserID)
	assert.NotEmpty(t, received.RequestID, "request id is filled in when missing")
	assert.Equal(t, KindCheckIn, received.Kind)
	assert.False(t, received.Timestamp.IsZero())
	require.Len(t, received.Candidates, 1)
	assert.Equal(t, "Radio Coffee", received.Candidates[0].Name)
}

func TestWebhookNotifier_KeepsCallerRequestID(t *testing.T) {
	var received CheckInRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL})
	err := n.SendCheckIn(context.Background(), CheckInRequest{RequestID: "req-7", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "req-7", received.RequestID)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := NewWebhookNotifier(Config{WebhookURL: server.URL})
	err := n.SendCheckIn(context.Background(), CheckInRequest{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestWebhookNotifier_NoURLDropsRequest(t *testing.T) {
	n := NewWebhookNotifier(Config{})
	err := n.SendCheckIn(context.Background(), CheckInRequest{UserID: "u1"})
	assert.NoError(t, err, "unconfigured webhook is a silent no-op")
}
