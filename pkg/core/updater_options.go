package core

import (
	"time"

	"github.com/metabranch/metabranch/pkg/events"
	"go.uber.org/zap"
)

// UpdaterOption alters the defaults of an AccountsUpdater
type UpdaterOption func(*AccountsUpdater)

const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = 10 * time.Millisecond
)

// WithLogger sets a zap logger. It defaults to a no-op logger.
func WithLogger(l *zap.Logger) UpdaterOption {
	return func(u *AccountsUpdater) {
		if l != nil {
			u.l = l
		}
	}
}

// WithEventBus sets the bus receiving ref update notifications.
// Without a bus, updates are applied but nothing is notified.
func WithEventBus(bus *events.Bus) UpdaterOption {
	return func(u *AccountsUpdater) {
		u.bus = bus
	}
}

// WithMaxRetries bounds the number of retries after a conflicting
// concurrent update. It defaults to 5.
func WithMaxRetries(retries uint64) UpdaterOption {
	return func(u *AccountsUpdater) {
		u.maxRetries = retries
	}
}

// WithRetryBackoff sets the constant delay between retry attempts.
// It defaults to 10ms.
func WithRetryBackoff(delay time.Duration) UpdaterOption {
	return func(u *AccountsUpdater) {
		if delay > 0 {
			u.retryBackoff = delay
		}
	}
}

// withAfterRead installs a hook running after the branch head has been
// read and before the commit attempt. Tests use it to interleave
// concurrent writers deterministically.
func withAfterRead(hook func()) UpdaterOption {
	return func(u *AccountsUpdater) {
		if hook != nil {
			u.afterRead = hook
		}
	}
}
