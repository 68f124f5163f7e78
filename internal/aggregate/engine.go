// Package aggregate polls the status store and produces immutable snapshots of every worker.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/undrift/agentmon/internal/status"
)

// ErrStoreUnavailable is set on a snapshot when the store root cannot be read.
var ErrStoreUnavailable = errors.New("status store unavailable")

const (
	DefaultPollInterval = time.Second
	DefaultStaleAfter   = 10 * time.Minute
	DefaultReapAfter    = 24 * time.Hour
	DefaultMaxEntries   = 4096
)

// Options tune polling. Zero values fall back to the defaults above.
type Options struct {
	// ReapAfter drops records older than this from snapshots.
	ReapAfter time.Duration
	// MaxEntries caps how many record files a single poll reads.
	MaxEntries int
	// Hide lists doublestar patterns matched against "project/worker".
	Hide []string
}

// Snapshot is the state of every worker at one poll. It is never modified
// after Poll returns.
type Snapshot struct {
	TakenAt time.Time
	// Projects maps project key to its records, sorted by worker.
	Projects map[string][]status.Record
	// Err is non-nil (wrapping ErrStoreUnavailable) when the store could not be read.
	Err       error
	Skipped   int
	Reaped    int
	Truncated bool
}

// ProjectKeys returns the project keys in alphabetical order.
func (s Snapshot) ProjectKeys() []string {
	keys := make([]string, 0, len(s.Projects))
	for k := range s.Projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int {
	n := 0
	for _, recs := range s.Projects {
		n += len(recs)
	}
	return n
}

// Record looks up one worker's record.
func (s Snapshot) Record(project, worker string) (status.Record, bool) {
	for _, rec := range s.Projects[project] {
		if rec.Worker == worker {
			return rec, true
		}
	}
	return status.Record{}, false
}

// Engine reads the store into snapshots. Poll keeps no state between calls,
// so it is safe to call concurrently.
type Engine struct {
	store  *status.Store
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	latest atomic.Pointer[Snapshot]
}

// New creates an engine over store. A nil logger discards diagnostics.
func New(store *status.Store, opts Options, logger *slog.Logger) *Engine {
	if opts.ReapAfter <= 0 {
		opts.ReapAfter = DefaultReapAfter
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Engine{
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Store returns the underlying store.
func (e *Engine) Store() *status.Store {
	return e.store
}

// Poll scans the store once. Bad entries are skipped and logged; a store
// that cannot be read at all yields an empty snapshot with Err set.
func (e *Engine) Poll() Snapshot {
	now := e.now()
	snap := Snapshot{
		TakenAt:  now,
		Projects: map[string][]status.Record{},
	}

	listing, err := e.store.Entries(e.opts.MaxEntries)
	if err != nil {
		snap.Err = fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, e.store.Root(), err)
		e.logger.Warn("status store unreadable", "root", e.store.Root(), "error", err)
		return snap
	}
	for _, derr := range listing.Errs {
		e.logger.Debug("skipping project directory", "error", derr)
	}
	if listing.Truncated {
		snap.Truncated = true
		e.logger.Warn("entry limit reached, some records not shown", "limit", e.opts.MaxEntries)
	}

	byKey := make(map[string]status.Record, len(listing.Entries))
	for _, entry := range listing.Entries {
		rec, err := e.store.Read(entry, now)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // cleared mid-scan
			}
			snap.Skipped++
			e.logger.Debug("skipping status record", "path", entry.Path, "error", err)
			continue
		}

		if e.hidden(rec) {
			continue
		}
		if !rec.TimestampInferred && rec.Age(now) > e.opts.ReapAfter {
			snap.Reaped++
			continue
		}

		if prev, ok := byKey[rec.Key()]; ok && !rec.Supersedes(prev) {
			continue
		}
		byKey[rec.Key()] = rec
	}

	for _, rec := range byKey {
		snap.Projects[rec.Project] = append(snap.Projects[rec.Project], rec)
	}
	for _, recs := range snap.Projects {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Worker < recs[j].Worker
		})
	}

	return snap
}

func (e *Engine) hidden(rec status.Record) bool {
	for _, pattern := range e.opts.Hide {
		if ok, _ := doublestar.Match(pattern, rec.Key()); ok {
			return true
		}
	}
	return false
}

// Latest returns the snapshot most recently published by Run, or nil before the first tick.
func (e *Engine) Latest() *Snapshot {
	return e.latest.Load()
}

// Run polls immediately and then every interval, handing each snapshot to fn.
// It returns when ctx is cancelled; a poll in progress always completes first.
func (e *Engine) Run(ctx context.Context, interval time.Duration, fn func(Snapshot)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap := e.Poll()
		e.latest.Store(&snap)
		if fn != nil {
			fn(snap)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
