// Package errs models the error taxonomy of spec §7 as wrapped sentinel
// values so job drivers can decide local-recovery vs. abort with
// errors.Is/errors.As instead of string matching.
package errs

import (
	"errors"
	"sync"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrSourceBlocked is returned by an adapter when the bot-detection
	// classifier judged the response blocked. Local recovery: record the
	// failure, bump counters, possibly cool down; try the next source.
	ErrSourceBlocked = errors.New("source: blocked response")

	// ErrParseSkip marks a single malformed row. Local recovery: skip the
	// row, keep going; counted as a failed item, never a job failure.
	ErrParseSkip = errors.New("adapter: row skipped on parse error")

	// ErrProxyExhausted is returned by the proxy manager when every
	// provider is cooling down. Local recovery: use the earliest-expiring
	// cooldown, or proceed without a proxy if the source allows it.
	ErrProxyExhausted = errors.New("proxy: all providers exhausted")

	// ErrStoreWrite marks a failed store mutation for a single item. Local
	// recovery: roll back that item's transaction and move to the next.
	ErrStoreWrite = errors.New("store: write failed")

	// ErrFatal marks an infrastructure failure (store unreachable, browser
	// unlaunchable) that aborts the job and is re-thrown to the platform
	// for retry semantics.
	ErrFatal = errors.New("driver: fatal error")
)

// Wrap attaches a sentinel to a lower-level error for errors.Is matching,
// keeping the original error visible via errors.Unwrap.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return nil
	}
	return &wrapped{sentinel: sentinel, cause: cause}
}

type wrapped struct {
	sentinel error
	cause    error
}

func (w *wrapped) Error() string { return w.sentinel.Error() + ": " + w.cause.Error() }
func (w *wrapped) Is(target error) bool { return target == w.sentinel }
func (w *wrapped) Unwrap() error { return w.cause }

// Collector accumulates per-item failures (ErrStoreWrite and friends) a job
// driver hits while working through a batch, so one bad item never aborts
// the run (spec §4.9: the run is "partial", not "failed") while every
// failure still ends up in the run log's error_message column.
type Collector struct {
	mu  sync.Mutex
	err *multierror.Error
}

// Add records err, wrapped with context, if non-nil.
func (c *Collector) Add(context string, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = multierror.Append(c.err, Wrap(ErrStoreWrite, errors.New(context+": "+err.Error())))
}

// Len reports how many errors have been recorded.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return 0
	}
	return len(c.err.Errors)
}

// String renders every recorded error for the run log, or "" if none were
// recorded.
func (c *Collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return ""
	}
	return c.err.Error()
}
