package sqldb

import (
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/metrics"
)

// retryPolicy re-attempts operations which fail with SQLITE_BUSY or
// SQLITE_LOCKED, sleeping |interval| between attempts for at most |count|
// retries. A |count| of zero or less never retries.
type retryPolicy struct {
	count    int
	interval time.Duration
	clock    clock.Clock
}

func newRetryPolicy(opts Options) retryPolicy {
	return retryPolicy{
		count:    opts.RetryCount,
		interval: opts.RetryInterval,
		clock:    opts.clock(),
	}
}

// do invokes |fn| until it returns a result other than busy or locked, or
// until the retry budget is exhausted. In the latter case the timeout is
// logged and the last native error is returned.
func (p retryPolicy) do(op, query string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); !isRetryable(err) {
			return err
		} else if attempt >= p.count {
			break
		}
		metrics.SQLRetriesTotal.WithLabelValues(op).Inc()
		p.clock.Sleep(p.interval)
	}

	metrics.SQLRetriesExhaustedTotal.WithLabelValues(op).Inc()
	log.WithFields(log.Fields{
		"op":       op,
		"query":    query,
		"retries":  p.count,
		"interval": p.interval,
		"err":      err,
	}).Warn("database timeout")

	return err
}
