package cli

import (
	"fmt"

	"github.com/drivedeck/drivedeck/internal/api"
	"github.com/drivedeck/drivedeck/internal/config"
	"github.com/drivedeck/drivedeck/internal/events"
	"github.com/drivedeck/drivedeck/internal/notify"
	"github.com/drivedeck/drivedeck/internal/session"
	"github.com/drivedeck/drivedeck/internal/store"
)

// app wires the console core for one command invocation.
type app struct {
	cfg      *config.Config
	bus      *events.EventBus
	sess     *session.Session
	client   *api.Client
	notifier *notify.Notifier
}

// newApp loads configuration, applies flag overrides, and builds the
// session-bound API client.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.PlatformURL = apiURL
	}
	if apiToken != "" {
		cfg.Token = apiToken
	}

	bus := events.NewEventBus(0)

	sess := session.New(bus)
	sess.RestoreFromConfig(cfg)

	notifier := notify.NewNotifier(cfg.Notifications, logger)

	sess.OnExpired(func() {
		logger.Warn().Msg("session expired, run 'drivedeck login'")
		notifier.Alert("Your session has expired. Please log in again.")
	})

	client, err := api.NewClient(cfg, sess, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		bus:      bus,
		sess:     sess,
		client:   client,
		notifier: notifier,
	}, nil
}

// requireAuth verifies connection settings before an API command runs.
func (a *app) requireAuth() error {
	return a.cfg.Validate()
}

// openStore opens the local fallback store at the configured path.
func (a *app) openStore() (*store.Store, error) {
	if !a.cfg.LocalStore.Enabled {
		return nil, fmt.Errorf("local store is disabled (enable it with 'drivedeck config set localstore.enabled true')")
	}
	path, err := a.cfg.StorePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path, logger)
}

// close tears down the shared event bus.
func (a *app) close() {
	a.bus.Close()
}
