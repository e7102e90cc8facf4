// Package notify provides cross-platform desktop notifications for
// upload milestones. It uses github.com/gen2brain/beeep.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/drivedeck/drivedeck/internal/config"
	"github.com/drivedeck/drivedeck/internal/httpx"
	"github.com/drivedeck/drivedeck/internal/logging"
)

// Notifier handles desktop notifications.
type Notifier struct {
	logger *logging.Logger

	// sendFn performs one delivery attempt. Tests substitute it.
	sendFn func(title, message string) error

	mu           sync.RWMutex
	enabled      bool
	showComplete bool
	showFailed   bool
}

// NewNotifier creates a notifier from the notification settings.
func NewNotifier(cfg config.NotificationConfig, logger *logging.Logger) *Notifier {
	return &Notifier{
		logger: logger,
		// beeep.Notify is cross-platform:
		// - Windows: toast notifications
		// - macOS: NSUserNotificationCenter
		// - Linux: D-Bus notifications
		sendFn: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		enabled:      cfg.Enabled,
		showComplete: cfg.ShowUploadComplete,
		showFailed:   cfg.ShowUploadFailed,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// UploadStarted sends the aggregate batch notification. One call
// covers the whole batch regardless of file count.
func (n *Notifier) UploadStarted(count int) {
	if !n.IsEnabled() {
		return
	}

	message := fmt.Sprintf("Uploading %d file(s)...", count)
	if err := n.send("DriveDeck", message); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send upload started notification")
	}
}

// UploadComplete sends a notification for one committed upload.
func (n *Notifier) UploadComplete(name string) {
	n.mu.RLock()
	show := n.enabled && n.showComplete
	n.mu.RUnlock()
	if !show {
		return
	}

	message := fmt.Sprintf("\"%s\" uploaded.", truncate(name, 40))
	if err := n.send("Upload Complete", message); err != nil {
		n.logger.Warn().Err(err).Str("file", name).Msg("Failed to send upload complete notification")
	}
}

// UploadFailed sends a notification for a failed upload.
func (n *Notifier) UploadFailed(name, reason string) {
	n.mu.RLock()
	show := n.enabled && n.showFailed
	n.mu.RUnlock()
	if !show {
		return
	}

	message := fmt.Sprintf("\"%s\" failed:\n%s", truncate(name, 40), truncate(reason, 100))
	if err := n.send("Upload Failed", message); err != nil {
		n.logger.Warn().Err(err).Str("file", name).Msg("Failed to send upload failed notification")
	}
}

// Alert sends a prominent notification for critical issues, such as
// the session expiring mid-session.
func (n *Notifier) Alert(message string) {
	if !n.IsEnabled() {
		return
	}

	title := "DriveDeck Alert"
	if err := beeep.Alert(title, message, ""); err != nil {
		// Fall back to a regular notification
		if err := n.send(title, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}

// send delivers one notification, retrying transient transport
// failures. The D-Bus and toast backends drop sends while the desktop
// notification daemon restarts; anything classified fatal (no daemon
// installed, bad payload) fails on the first attempt.
func (n *Notifier) send(title, message string) error {
	cfg := httpx.DefaultRetryConfig()
	cfg.MaxRetries = 3
	cfg.InitialDelay = 50 * time.Millisecond
	cfg.MaxDelay = time.Second
	cfg.OnRetry = func(attempt int, err error, errType httpx.ErrorType) {
		n.logger.Debug().
			Int("attempt", attempt).
			Str("class", httpx.ErrorTypeName(errType)).
			Err(err).
			Msg("Retrying notification send")
	}

	return httpx.ExecuteWithRetry(context.Background(), cfg, func() error {
		return n.sendFn(title, message)
	})
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
