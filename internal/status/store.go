package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const recordExt = ".json"

// fileRecord is the JSON document stored for each worker.
type fileRecord struct {
	SessionID string `json:"session_id,omitempty"`
	Repo      string `json:"repo"`
	Worktree  string `json:"worktree"`
	Status    string `json:"status"`
	Summary   string `json:"summary"`
	Path      string `json:"path"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Entry is one record file found under the store root.
type Entry struct {
	Path    string
	Project string // unescaped directory name; empty for legacy flat files
	Worker  string // unescaped file name without extension
	Legacy  bool   // stored directly under the root
}

// Listing is the result of enumerating the store.
type Listing struct {
	Entries   []Entry
	Truncated bool
	// Errs holds per-project directory read failures; the rest of the listing is still usable.
	Errs []error
}

// Store reads and writes status records under a root directory laid out as
// <root>/<project>/<worker>.json. Files written directly under the root are
// the older flat layout and are still read.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir. The directory is created lazily on write.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file path for a worker's record.
func (s *Store) Path(project, worker string) string {
	if project == "" {
		project = DefaultProject
	}
	return filepath.Join(s.root, sanitizeKey(project), sanitizeKey(worker)+recordExt)
}

// Write replaces the record for rec's identity. The file is written to a
// temporary name and renamed so readers never observe a partial record.
func (s *Store) Write(rec Record) (string, error) {
	if strings.TrimSpace(rec.Worker) == "" {
		return "", fmt.Errorf("worker name is required")
	}
	if _, err := ParseState(string(rec.State)); err != nil {
		return "", err
	}
	rec.Project = strings.TrimSpace(rec.Project)
	rec.Worker = strings.TrimSpace(rec.Worker)
	if rec.Project == "" {
		rec.Project = DefaultProject
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	path := s.Path(rec.Project, rec.Worker)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(fileRecord{
		SessionID: rec.SessionID,
		Repo:      rec.Project,
		Worktree:  rec.Worker,
		Status:    string(rec.State),
		Summary:   rec.Summary,
		Path:      rec.WorkingDirectory,
		UpdatedAt: rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode status record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write status record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write status record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to replace status record: %w", err)
	}
	return path, nil
}

// Clear removes a worker's record. It reports whether a file was removed.
// The project directory is removed too once it holds no records.
func (s *Store) Clear(project, worker string) (bool, error) {
	path := s.Path(project, worker)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove status record: %w", err)
	}

	dir := filepath.Dir(path)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}
	return true, nil
}

// Entries enumerates record files. At most max entries are returned when max > 0.
// A missing root is an empty store, not an error.
func (s *Store) Entries(max int) (Listing, error) {
	var out Listing

	items, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, err
	}

	add := func(e Entry) bool {
		if max > 0 && len(out.Entries) >= max {
			out.Truncated = true
			return false
		}
		out.Entries = append(out.Entries, e)
		return true
	}

	for _, item := range items {
		name := item.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if item.IsDir() {
			files, err := os.ReadDir(filepath.Join(s.root, name))
			if err != nil {
				// The directory may have been removed by a clear mid-scan.
				if !errors.Is(err, fs.ErrNotExist) {
					out.Errs = append(out.Errs, fmt.Errorf("read project %s: %w", name, err))
				}
				continue
			}
			for _, f := range files {
				if !isRecordFile(f) {
					continue
				}
				if !add(Entry{
					Path:    filepath.Join(s.root, name, f.Name()),
					Project: unescapeKey(name),
					Worker:  unescapeKey(strings.TrimSuffix(f.Name(), recordExt)),
				}) {
					return out, nil
				}
			}
			continue
		}

		if isRecordFile(item) {
			if !add(Entry{
				Path:   filepath.Join(s.root, name),
				Worker: unescapeKey(strings.TrimSuffix(name, recordExt)),
				Legacy: true,
			}) {
				return out, nil
			}
		}
	}

	return out, nil
}

// Read parses one entry into a Record. A missing or unparseable updated_at
// is replaced by now and flagged; a future timestamp is clamped to now.
// Parse failures wrap ErrMalformedRecord; a vanished file wraps fs.ErrNotExist.
func (s *Store) Read(e Entry, now time.Time) (Record, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return Record{}, err
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, e.Path, err)
	}

	state, err := ParseState(fr.Status)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, e.Path, err)
	}

	rec := Record{
		Project:          e.Project,
		Worker:           e.Worker,
		State:            state,
		Summary:          fr.Summary,
		WorkingDirectory: fr.Path,
		SessionID:        fr.SessionID,
	}
	switch {
	case e.Legacy:
		rec.Project = fr.Repo
		if fr.Worktree != "" {
			rec.Worker = fr.Worktree
		}
	case fr.Repo != "" && fr.Worktree != "" && s.Path(fr.Repo, fr.Worktree) == e.Path:
		// Stored names win only when they map back to this file, so Clear still finds it.
		rec.Project = fr.Repo
		rec.Worker = fr.Worktree
	}
	if rec.Project == "" {
		rec.Project = DefaultProject
	}

	ts, ok := ParseTimestamp(fr.UpdatedAt)
	switch {
	case !ok:
		rec.UpdatedAt = now
		rec.TimestampInferred = true
	case ts.After(now):
		rec.UpdatedAt = now
	default:
		rec.UpdatedAt = ts
	}

	return rec, nil
}

// Prune removes records last updated more than olderThan before now.
// Unreadable entries are left alone.
func (s *Store) Prune(olderThan time.Duration, now time.Time) ([]Record, error) {
	listing, err := s.Entries(0)
	if err != nil {
		return nil, err
	}

	var removed []Record
	for _, e := range listing.Entries {
		rec, err := s.Read(e, now)
		if err != nil || rec.TimestampInferred {
			continue
		}
		if rec.Age(now) <= olderThan {
			continue
		}
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Path, err)
		}
		removed = append(removed, rec)
		if !e.Legacy {
			dir := filepath.Dir(e.Path)
			if left, err := os.ReadDir(dir); err == nil && len(left) == 0 {
				_ = os.Remove(dir)
			}
		}
	}
	return removed, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 timestamp. Timestamps without an offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isRecordFile(d fs.DirEntry) bool {
	name := d.Name()
	return !d.IsDir() && !strings.HasPrefix(name, ".") && strings.HasSuffix(name, recordExt)
}

var (
	keyEscaper   = strings.NewReplacer("%", "%25", "/", "%2F", "\\", "%5C", ":", "%3A")
	keyUnescaper = strings.NewReplacer("%25", "%", "%2F", "/", "%5C", "\\", "%3A", ":", "%2E", ".")
)

// sanitizeKey makes a project or worker name safe to use as a single path
// element. Separators and leading dots are percent-escaped, so distinct names
// never share a file.
func sanitizeKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = keyEscaper.Replace(name)
	trimmed := strings.TrimLeft(name, ".")
	return strings.Repeat("%2E", len(name)-len(trimmed)) + trimmed
}

// unescapeKey reverses sanitizeKey.
func unescapeKey(name string) string {
	return keyUnescaper.Replace(name)
}
