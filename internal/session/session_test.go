package session

import (
	"testing"
	"time"

	"github.com/drivedeck/drivedeck/internal/config"
	"github.com/drivedeck/drivedeck/internal/events"
)

func TestRestoreFromConfig(t *testing.T) {
	s := New(nil)
	if s.Authenticated() {
		t.Error("fresh session reports authenticated")
	}

	cfg := config.New()
	cfg.Token = "tok-1"
	s.RestoreFromConfig(cfg)

	if !s.Authenticated() || s.Token() != "tok-1" {
		t.Errorf("token = %q, authenticated = %v", s.Token(), s.Authenticated())
	}
}

func TestExpireFiresCallbackOnce(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventSessionExpired)

	s := New(bus)
	s.SetToken("tok-1")

	fired := 0
	s.OnExpired(func() { fired++ })

	s.Expire()
	s.Expire()
	s.Expire()

	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
	if s.Authenticated() {
		t.Error("session still authenticated after expiry")
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no session expired event published")
	}
	select {
	case <-ch:
		t.Error("session expired event published more than once")
	default:
	}
}

func TestSetTokenRearmsExpiry(t *testing.T) {
	s := New(nil)
	s.SetToken("tok-1")

	fired := 0
	s.OnExpired(func() { fired++ })

	s.Expire()
	s.SetToken("tok-2")
	s.Expire()

	if fired != 2 {
		t.Errorf("callback fired %d times across two sessions, want 2", fired)
	}
}

func TestExpireWithoutTokenIsNoOp(t *testing.T) {
	s := New(nil)

	fired := 0
	s.OnExpired(func() { fired++ })
	s.Expire()

	if fired != 0 {
		t.Error("expiry fired on an unauthenticated session")
	}
}
