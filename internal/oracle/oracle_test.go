package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkaudit/internal/audit"
)

func completionServer(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: reply}},
			},
		})
	}))
}

func TestClassifyDisabledSkipsCall(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := New(Config{Enabled: false, BaseURL: srv.URL}, zap.NewNop())
	verdict, err := client.Classify(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, audit.VerdictInconclusive, verdict)
	require.False(t, called, "disabled oracle must never call out")
}

func TestClassifyMissingKeySkipsCall(t *testing.T) {
	t.Parallel()

	client := New(Config{Enabled: true}, zap.NewNop())
	verdict, err := client.Classify(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, audit.VerdictInconclusive, verdict)
}

func TestClassifyParsesVerdicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply string
		want  audit.OracleVerdict
	}{
		{"PARKED", audit.VerdictConfirmedParked},
		{"parked.", audit.VerdictConfirmedParked},
		{"NORMAL", audit.VerdictNormal},
		{"This looks NORMAL to me", audit.VerdictNormal},
		{"NOT PARKED, looks normal", audit.VerdictNormal},
		{"UNSURE", audit.VerdictInconclusive},
		{"", audit.VerdictInconclusive},
	}
	for _, tc := range tests {
		srv := completionServer(t, tc.reply, http.StatusOK)
		client := New(Config{Enabled: true, APIKey: "test-key", BaseURL: srv.URL}, zap.NewNop())
		verdict, err := client.Classify(context.Background(), "Title: something\nbody text")
		srv.Close()
		require.NoError(t, err)
		require.Equal(t, tc.want, verdict, "reply %q", tc.reply)
	}
}

func TestClassifyServerErrorIsInconclusive(t *testing.T) {
	t.Parallel()

	srv := completionServer(t, "PARKED", http.StatusInternalServerError)
	defer srv.Close()

	client := New(Config{Enabled: true, APIKey: "test-key", BaseURL: srv.URL}, zap.NewNop())
	verdict, err := client.Classify(context.Background(), "summary")
	require.Error(t, err)
	require.Equal(t, audit.VerdictInconclusive, verdict)
}

func TestClassifyTimeoutIsInconclusive(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := New(Config{
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
	}, zap.NewNop())
	verdict, err := client.Classify(context.Background(), "summary")
	require.Error(t, err)
	require.Equal(t, audit.VerdictInconclusive, verdict)
}
