package notify

import (
	"errors"
	"testing"

	"github.com/drivedeck/drivedeck/internal/config"
	"github.com/drivedeck/drivedeck/internal/logging"
)

func testSettings() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:            true,
		ShowUploadComplete: true,
		ShowUploadFailed:   true,
	}
}

func TestSendRetriesTransientFailures(t *testing.T) {
	n := NewNotifier(testSettings(), logging.NewDefaultLogger())

	calls := 0
	n.sendFn = func(title, message string) error {
		calls++
		if calls < 3 {
			return errors.New("write unix @->/run/user/1000/bus: connection reset by peer")
		}
		return nil
	}

	n.UploadComplete("report.pdf")

	if calls != 3 {
		t.Errorf("send attempted %d times, want 3", calls)
	}
}

func TestSendDoesNotRetryPermanentFailures(t *testing.T) {
	n := NewNotifier(testSettings(), logging.NewDefaultLogger())

	calls := 0
	n.sendFn = func(title, message string) error {
		calls++
		return errors.New("no notification daemon installed")
	}

	n.UploadFailed("report.pdf", "backend unavailable")

	if calls != 1 {
		t.Errorf("send attempted %d times on a permanent failure, want 1", calls)
	}
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	settings := testSettings()
	settings.Enabled = false
	n := NewNotifier(settings, logging.NewDefaultLogger())

	calls := 0
	n.sendFn = func(title, message string) error {
		calls++
		return nil
	}

	n.UploadStarted(3)
	n.UploadComplete("report.pdf")
	n.UploadFailed("report.pdf", "backend unavailable")

	if calls != 0 {
		t.Errorf("disabled notifier attempted %d sends", calls)
	}
}
