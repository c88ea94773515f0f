package catalog

import (
	"errors"
	"math/rand/v2"
	"os"
	"time"
)

// MaxReloadRetries bounds retries of a watched reload.
const MaxReloadRetries = 3

// transientError marks a reload failure that may clear on its own, such as a
// file caught half-written or between an editor's rename and create.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// IsTransient checks if a reload error is worth retrying.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int, base time.Duration) time.Duration {
	d := base << uint(attempt)
	if limit := 20 * base; d > limit {
		d = limit
	}
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int64N(int64(d)/2+1))
}

func transientRead(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return &transientError{err: err}
	}
	return err
}

// reloadWithRetry reloads name, retrying transient failures. Each attempt is
// counted in the reload stats.
func (c *Catalog) reloadWithRetry(name string) (bool, error) {
	for attempt := 0; ; attempt++ {
		changed, err := c.Reload(name)
		if err == nil || !IsTransient(err) || attempt >= MaxReloadRetries {
			return changed, err
		}
		wait := Backoff(attempt, c.retryBase)
		c.log.Debug("source reload retry", "name", name, "attempt", attempt+1, "wait", wait, "error", err)
		c.sleep(wait)
	}
}
