package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rewired-gh/stakewatch/internal/models"
	"github.com/rewired-gh/stakewatch/internal/notify"
)

// fakeBotAPI answers getMe and sendMessage the way the Bot API does and
// records every sent text.
type fakeBotAPI struct {
	mu       sync.Mutex
	texts    []string
	chatIDs  []string
	failSend bool
}

func (f *fakeBotAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"stakewatch","username":"stakewatch_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse form: %v", err)
			}
			f.mu.Lock()
			f.texts = append(f.texts, r.PostForm.Get("text"))
			f.chatIDs = append(f.chatIDs, r.PostForm.Get("chat_id"))
			fail := f.failSend
			f.mu.Unlock()
			if fail {
				_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
		default:
			t.Errorf("unexpected Bot API call %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func newTestClient(t *testing.T, api *fakeBotAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	client, err := NewClient("test-token", "42", server.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Btc (30) is available for staking!", `Btc \(30\) is available for staking\!`},
		{"my_coin", `my\_coin`},
		{"plain", "plain"},
		{`a\b`, `a\\b`},
	}

	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.in); got != tt.expected {
			t.Errorf("escapeMarkdownV2(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	if _, err := NewClient("token", "not-a-number", ""); err == nil {
		t.Error("Expected error for invalid chat ID")
	}
}

func TestNotify(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	err := client.Notify(context.Background(), models.CategoryLocked, models.NewProductKey("btc", "30"), true)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(api.texts))
	}
	if api.texts[0] != `Btc \(30\) is available for staking\!` {
		t.Errorf("Unexpected text %q", api.texts[0])
	}
	if api.chatIDs[0] != "42" {
		t.Errorf("Expected chat_id 42, got %q", api.chatIDs[0])
	}
}

func TestNotify_FailureIsNotifyError(t *testing.T) {
	api := &fakeBotAPI{failSend: true}
	client := newTestClient(t, api)

	err := client.Notify(context.Background(), models.CategoryDefi, models.NewProductKey("eth", "60"), false)

	var notifyErr *notify.Error
	if !errors.As(err, &notifyErr) {
		t.Fatalf("Expected *notify.Error, got %T: %v", err, err)
	}
	if notifyErr.Category != models.CategoryDefi || notifyErr.Key != models.NewProductKey("eth", "60") {
		t.Errorf("Unexpected error fields %+v", notifyErr)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 1 {
		t.Errorf("Expected exactly one delivery attempt, got %d", len(api.texts))
	}
}

func TestHealthReports(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	var _ notify.HealthReporter = client

	if err := client.ReportFailure(context.Background(), models.CategoryLocked, errors.New("timeout")); err != nil {
		t.Fatalf("ReportFailure failed: %v", err)
	}
	if err := client.ReportRecovery(context.Background(), models.CategoryLocked, 3); err != nil {
		t.Fatalf("ReportRecovery failed: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(api.texts))
	}
	if !strings.Contains(api.texts[0], "locked staking failed: timeout") {
		t.Errorf("Unexpected failure text %q", api.texts[0])
	}
	if !strings.Contains(api.texts[1], "recovered after 3 failed attempts") {
		t.Errorf("Unexpected recovery text %q", api.texts[1])
	}
}

func TestSend_CancelledContext(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.Notify(ctx, models.CategoryLocked, models.NewProductKey("btc", "30"), true); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
