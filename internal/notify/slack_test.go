package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1048576 * 1024, "1.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatSize(tt.bytes))
		})
	}
}

func TestSlackNotifier_Notify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload slackPayload
		err := json.NewDecoder(r.Body).Decode(&payload)
		assert.NoError(t, err)

		assert.Len(t, payload.Attachments, 1)
		att := payload.Attachments[0]
		assert.Equal(t, "#36a64f", att.Color)
		assert.Equal(t, "✅ Backup Successful", att.Title)
		assert.Len(t, att.Fields, 5) // Repository, Duration, Snapshot, Files, Data

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL, "")
	stats := Stats{
		Status:     StatusSuccess,
		Operation:  "Backup",
		Repository: "work",
		Snapshot:   "abc123",
		Files:      42,
		Bytes:      1048576,
		Duration:   5 * time.Second,
	}

	err := notifier.Notify(context.Background(), stats)
	assert.NoError(t, err)
}

func TestSlackNotifier_Notify_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload slackPayload
		json.NewDecoder(r.Body).Decode(&payload)

		att := payload.Attachments[0]
		assert.Equal(t, "#ff0000", att.Color)
		assert.Equal(t, "❌ Restore Failed", att.Title)
		assert.Contains(t, att.Text, "connection refused")

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL, "")
	stats := Stats{
		Status:     StatusError,
		Operation:  "Restore",
		Repository: "work",
		Duration:   2 * time.Second,
		Error:      errors.New("connection refused"),
	}

	err := notifier.Notify(context.Background(), stats)
	assert.NoError(t, err)
}

func TestSlackNotifier_Notify_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload slackPayload
		json.NewDecoder(r.Body).Decode(&payload)

		att := payload.Attachments[0]
		assert.Equal(t, "#ffaa00", att.Color)
		assert.Equal(t, "⚠️ Backup Cancelled", att.Title)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL, "")
	err := notifier.Notify(context.Background(), Stats{
		Status:     StatusCancelled,
		Operation:  "Backup",
		Repository: "work",
	})
	assert.NoError(t, err)
}

func TestSlackNotifier_Template(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Backup of work took 5s", payload["text"])
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL,
		`{"text": "{{.Operation}} of {{.Repository}} took {{.FormattedDuration}}"}`)
	err := notifier.Notify(context.Background(), Stats{
		Operation:  "Backup",
		Repository: "work",
		Duration:   5 * time.Second,
	})
	assert.NoError(t, err)
}

func TestSlackNotifier_EmptyURL(t *testing.T) {
	notifier := NewSlackNotifier("", "")
	err := notifier.Notify(context.Background(), Stats{Operation: "Test"})
	assert.NoError(t, err) // Should silently return nil if no URL
}

func TestWebhookNotifier_DefaultPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Token"))

		var stats map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&stats))
		assert.Equal(t, "Backup", stats["Operation"])

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "PUT", "", map[string]string{"X-Token": "secret"})
	err := notifier.Notify(context.Background(), Stats{Status: StatusSuccess, Operation: "Backup"})
	assert.NoError(t, err)
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "", "", nil)
	err := notifier.Notify(context.Background(), Stats{})
	assert.Error(t, err)
}
