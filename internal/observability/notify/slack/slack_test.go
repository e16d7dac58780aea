package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Liad-hossain/test-voice-export/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#alerts",
		Username:   "bot",
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.RunFailurePayload{
		RunID:      "run-1",
		MatterID:   "matter-1",
		ExportID:   "exp-9",
		Stage:      "ARCHIVE_FETCHED",
		Error:      "boom",
		ErrorCode:  "transport",
		ErrorClass: "test_error",
		Metadata:   map[string]string{"published": "2"},
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#alerts" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}

	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	want := []string{
		"Export run failed", "run-1", "matter-1", "exp-9", "ARCHIVE_FETCHED",
		"boom", "transport", "test_error", "published: 2", "Severity: critical",
	}
	for _, s := range want {
		if !strings.Contains(text, s) {
			t.Fatalf("message text missing %q: %s", s, text)
		}
	}
}

func TestFormatMessageDefaults(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.RunFailurePayload{})
	if msg["username"] != "vaultsync" {
		t.Fatalf("expected default username, got %v", msg["username"])
	}
	if _, ok := msg["channel"]; ok {
		t.Fatal("channel should be omitted when not configured")
	}
}

func TestFormatMessageEscapesError(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.RunFailurePayload{Error: "read <archive> & fail"})
	text, _ := msg["text"].(string)
	if !strings.Contains(text, "read &lt;archive&gt; &amp; fail") {
		t.Fatalf("expected escaped error, got: %s", text)
	}
}

func TestSendRunFailureRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if n == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 1, Client: srv.Client()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.SendRunFailure(context.Background(), notify.RunFailurePayload{RunID: "r"}); err != nil {
		t.Fatalf("expected delivery to succeed on retry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestSendRunFailureReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Client: srv.Client()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.SendRunFailure(context.Background(), notify.RunFailurePayload{})
	if err == nil || !strings.Contains(err.Error(), "invalid_token") {
		t.Fatalf("expected status error with body, got %v", err)
	}
}
