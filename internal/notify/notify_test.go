package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rewired-gh/stakewatch/internal/logger"
	"github.com/rewired-gh/stakewatch/internal/models"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		key       models.ProductKey
		available bool
		expected  string
	}{
		{models.NewProductKey("BTC", "30"), true, "Btc (30) is available for staking!"},
		{models.NewProductKey("btc", "30"), false, "Btc (30) is no longer available for staking!"},
		{models.NewProductKey("dot", ""), true, "Dot (flexible) is available for staking!"},
	}

	for _, tt := range tests {
		if got := Message(tt.key, tt.available); got != tt.expected {
			t.Errorf("Message(%v, %v) = %q, expected %q", tt.key, tt.available, got, tt.expected)
		}
	}
}

func TestError(t *testing.T) {
	cause := errors.New("chat not found")
	err := error(&Error{Category: models.CategoryDefi, Key: models.NewProductKey("eth", "60"), Err: cause})

	if !errors.Is(err, cause) {
		t.Error("Expected Error to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "defi eth_60") {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger.Init("info", "text")
	logger.SetOutput(&buf)

	n := NewLogNotifier()
	if err := n.Notify(context.Background(), models.CategoryLocked, models.NewProductKey("axs", "90"), true); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if !strings.Contains(buf.String(), "[locked] Axs (90) is available for staking!") {
		t.Errorf("Unexpected log output %q", buf.String())
	}
}
