package sqldb

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

const (
	// DefaultRetryCount is the default number of retries of a busy or locked
	// prepare or step.
	DefaultRetryCount = 200
	// DefaultRetryInterval is the default delay between retries.
	DefaultRetryInterval = 100 * time.Millisecond
)

// Options configure Database handles. Options may be populated from flags,
// environment, and INI files (via go-flags tags), and are further overridden
// per database by the query of a DSN (via schema tags).
type Options struct {
	RetryCount    int           `long:"retry-count" env:"RETRY_COUNT" default:"200" description:"Number of times a busy or locked statement is retried" schema:"retry_count"`
	RetryInterval time.Duration `long:"retry-interval" env:"RETRY_INTERVAL" default:"100ms" description:"Delay between retries of a busy or locked statement" schema:"retry_interval"`
	BusyTimeout   time.Duration `long:"busy-timeout" env:"BUSY_TIMEOUT" default:"0s" description:"SQLite busy handler timeout, applied before the retry policy. Zero disables the handler" schema:"busy_timeout"`
	JournalMode   string        `long:"journal-mode" env:"JOURNAL_MODE" description:"SQLite journal mode (DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF). Empty retains the engine default" schema:"journal_mode"`

	// Clock used for retry delays and step timing. Defaults to the wall clock.
	Clock clock.Clock `no-flag:"t" schema:"-"`
}

// DefaultOptions returns Options having default retry policy.
func DefaultOptions() Options {
	return Options{
		RetryCount:    DefaultRetryCount,
		RetryInterval: DefaultRetryInterval,
	}
}

// Validate returns an error if the Options are invalid.
func (o Options) Validate() error {
	if o.RetryCount < 0 {
		return fmt.Errorf("invalid RetryCount (%d; expected >= 0)", o.RetryCount)
	} else if o.RetryInterval < 0 {
		return fmt.Errorf("invalid RetryInterval (%s; expected >= 0)", o.RetryInterval)
	} else if o.BusyTimeout < 0 {
		return fmt.Errorf("invalid BusyTimeout (%s; expected >= 0)", o.BusyTimeout)
	}
	switch strings.ToUpper(o.JournalMode) {
	case "", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return fmt.Errorf("invalid JournalMode (%s)", o.JournalMode)
	}
	return nil
}

func (o Options) clock() clock.Clock {
	if o.Clock == nil {
		return clock.New()
	}
	return o.Clock
}

// driverDSN builds the DSN passed to the native driver for |path|.
func (o Options) driverDSN(path string) string {
	var q = url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(o.BusyTimeout.Milliseconds()))
	if o.JournalMode != "" {
		q.Set("_journal_mode", strings.ToUpper(o.JournalMode))
	}
	// The driver consumes and strips these parameters before opening |path|.
	return path + "?" + q.Encode()
}

// ParseDSN splits |dsn| into its path and the Options resulting from
// applying its query parameters to |base|. For example,
// "settings.db?retry_count=5&retry_interval=10ms".
func ParseDSN(dsn string, base Options) (string, Options, error) {
	var path, rawQuery, _ = strings.Cut(dsn, "?")
	if path == "" {
		return "", base, errors.New("DSN has an empty path")
	}

	var opts = base
	if rawQuery != "" {
		var query, err = url.ParseQuery(rawQuery)
		if err != nil {
			return "", base, errors.WithMessagef(err, "parsing DSN query %q", rawQuery)
		} else if err = dsnDecoder.Decode(&opts, query); err != nil {
			return "", base, errors.WithMessagef(err, "decoding DSN query %q", rawQuery)
		}
	}
	if err := opts.Validate(); err != nil {
		return "", base, errors.WithMessagef(err, "DSN %q", dsn)
	}
	return path, opts, nil
}

var dsnDecoder = newDSNDecoder()

func newDSNDecoder() *schema.Decoder {
	var d = schema.NewDecoder()
	d.IgnoreUnknownKeys(false)
	d.RegisterConverter(time.Duration(0), func(s string) reflect.Value {
		if v, err := time.ParseDuration(s); err == nil {
			return reflect.ValueOf(v)
		}
		return reflect.Value{}
	})
	return d
}
