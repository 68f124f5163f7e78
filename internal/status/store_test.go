package status

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		input   string
		want    State
		wantErr bool
	}{
		{"running", StateRunning, false},
		{"waiting_input", StateWaitingInput, false},
		{"idle", StateIdle, false},
		{"error", StateError, false},
		{" idle ", StateIdle, false},
		{"unknown", "", true},
		{"", "", true},
		{"RUNNING", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseState(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidState) {
				t.Errorf("ParseState(%q) error should wrap ErrInvalidState, got %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStateLabel(t *testing.T) {
	tests := map[State]string{
		StateRunning:      "RUNNING",
		StateWaitingInput: "WAITING",
		StateIdle:         "IDLE",
		StateError:        "ERROR",
		State("bogus"):    "UNKNOWN",
	}
	for state, want := range tests {
		if got := state.Label(); got != want {
			t.Errorf("State(%q).Label() = %q, want %q", state, got, want)
		}
	}
}

func TestStore_WriteThenRead(t *testing.T) {
	store := NewStore(t.TempDir())
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	path, err := store.Write(Record{
		Project:          "webapp",
		Worker:           "feature-auth",
		State:            StateWaitingInput,
		Summary:          "OAuth or JWT?",
		WorkingDirectory: "/src/webapp-feature-auth",
		SessionID:        "abc",
		UpdatedAt:        updated,
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := filepath.Join(store.Root(), "webapp", "feature-auth.json")
	if path != want {
		t.Errorf("Write() path = %q, want %q", path, want)
	}

	listing, err := store.Entries(0)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(listing.Entries) != 1 {
		t.Fatalf("Entries() returned %d entries, want 1", len(listing.Entries))
	}

	rec, err := store.Read(listing.Entries[0], updated.Add(time.Minute))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rec.Project != "webapp" || rec.Worker != "feature-auth" {
		t.Errorf("Read() identity = %s, want webapp/feature-auth", rec.Key())
	}
	if rec.State != StateWaitingInput {
		t.Errorf("Read() state = %q, want %q", rec.State, StateWaitingInput)
	}
	if rec.Summary != "OAuth or JWT?" {
		t.Errorf("Read() summary = %q", rec.Summary)
	}
	if rec.WorkingDirectory != "/src/webapp-feature-auth" {
		t.Errorf("Read() path = %q", rec.WorkingDirectory)
	}
	if !rec.UpdatedAt.Equal(updated) {
		t.Errorf("Read() updatedAt = %v, want %v", rec.UpdatedAt, updated)
	}
	if rec.TimestampInferred {
		t.Error("Read() should not flag a well-formed timestamp as inferred")
	}
}

func TestStore_WriteReplacesWholeRecord(t *testing.T) {
	store := NewStore(t.TempDir())
	now := time.Now()

	if _, err := store.Write(Record{Project: "p", Worker: "w", State: StateRunning, Summary: "first", WorkingDirectory: "/a", UpdatedAt: now}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := store.Write(Record{Project: "p", Worker: "w", State: StateIdle, UpdatedAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	listing, _ := store.Entries(0)
	if len(listing.Entries) != 1 {
		t.Fatalf("Entries() returned %d entries, want 1", len(listing.Entries))
	}
	rec, err := store.Read(listing.Entries[0], now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rec.State != StateIdle || rec.Summary != "" || rec.WorkingDirectory != "" {
		t.Errorf("Read() = %+v, want only the second write's fields", rec)
	}
}

func TestStore_WriteRejectsInvalidState(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Write(Record{Project: "p", Worker: "w", State: "busy"})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Write() error = %v, want ErrInvalidState", err)
	}
	if _, err := store.Write(Record{Project: "p", State: StateIdle}); err == nil {
		t.Error("Write() expected error for empty worker")
	}
}

func TestStore_WriteSanitizesKeys(t *testing.T) {
	store := NewStore(t.TempDir())
	path, err := store.Write(Record{Project: "org/repo", Worker: "../feat", State: StateIdle})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if filepath.Dir(filepath.Dir(path)) != store.Root() {
		t.Errorf("Write() path %q escaped the project directory", path)
	}
}

func TestStore_DistinctNamesStayDistinct(t *testing.T) {
	store := NewStore(t.TempDir())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	writes := []Record{
		{Project: "proj", Worker: "feature/login", State: StateRunning, UpdatedAt: now},
		{Project: "proj", Worker: "feature-login", State: StateIdle, UpdatedAt: now},
		{Project: "proj", Worker: "feature%2Flogin", State: StateError, UpdatedAt: now},
		{Project: "proj", Worker: ".hidden", State: StateWaitingInput, UpdatedAt: now},
		{Project: "proj", Worker: "hidden", State: StateIdle, UpdatedAt: now},
		{Project: "org/repo", Worker: "main", State: StateIdle, UpdatedAt: now},
		{Project: "org-repo", Worker: "main", State: StateRunning, UpdatedAt: now},
	}
	for _, rec := range writes {
		if _, err := store.Write(rec); err != nil {
			t.Fatalf("Write(%s) error = %v", rec.Key(), err)
		}
	}

	listing, err := store.Entries(0)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	got := map[string]State{}
	for _, e := range listing.Entries {
		rec, err := store.Read(e, now)
		if err != nil {
			t.Fatalf("Read(%s) error = %v", e.Path, err)
		}
		got[rec.Key()] = rec.State
	}

	if len(got) != len(writes) {
		t.Fatalf("read back %d records, want %d: %v", len(got), len(writes), got)
	}
	for _, rec := range writes {
		if got[rec.Key()] != rec.State {
			t.Errorf("record %s state = %q, want %q", rec.Key(), got[rec.Key()], rec.State)
		}
	}

	if removed, err := store.Clear("proj", "feature/login"); err != nil || !removed {
		t.Errorf("Clear(proj, feature/login) = %v, %v; want true, nil", removed, err)
	}
	if _, err := os.Stat(store.Path("proj", "feature-login")); err != nil {
		t.Errorf("Clear() removed the wrong record: %v", err)
	}
}

func TestStore_ReadNameFromPathWhenFieldsDisagree(t *testing.T) {
	root := t.TempDir()
	writeRaw(t, filepath.Join(root, "webapp", "feature%2Fauth.json"), `{"repo":"other","worktree":"elsewhere","status":"idle"}`)

	store := NewStore(root)
	listing, _ := store.Entries(0)
	if len(listing.Entries) != 1 {
		t.Fatalf("Entries() returned %d entries, want 1", len(listing.Entries))
	}
	rec, err := store.Read(listing.Entries[0], time.Now())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rec.Key() != "webapp/feature/auth" {
		t.Errorf("Read() key = %q, want %q", rec.Key(), "webapp/feature/auth")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"feature-auth", "feature-auth"},
		{"feature/auth", "feature%2Fauth"},
		{"a\\b:c", "a%5Cb%3Ac"},
		{"50%", "50%25"},
		{"..", "%2E%2E"},
		{"../x", "%2E%2E%2Fx"},
		{"  padded ", "padded"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		got := sanitizeKey(tt.in)
		if got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.in != "" && unescapeKey(got) != strings.TrimSpace(tt.in) {
			t.Errorf("unescapeKey(%q) = %q, want %q", got, unescapeKey(got), strings.TrimSpace(tt.in))
		}
	}
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Write(Record{Project: "p", Worker: "w", State: StateRunning}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	removed, err := store.Clear("p", "w")
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if !removed {
		t.Error("Clear() = false, want true")
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "p")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("Clear() should remove the empty project directory")
	}

	removed, err = store.Clear("p", "w")
	if err != nil {
		t.Fatalf("Clear() second call error = %v", err)
	}
	if removed {
		t.Error("Clear() on a missing record = true, want false")
	}
}

func TestStore_EntriesMissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))
	listing, err := store.Entries(0)
	if err != nil {
		t.Fatalf("Entries() error = %v, want nil for a missing root", err)
	}
	if len(listing.Entries) != 0 {
		t.Errorf("Entries() = %d entries, want 0", len(listing.Entries))
	}
}

func TestStore_EntriesLayouts(t *testing.T) {
	root := t.TempDir()
	writeRaw(t, filepath.Join(root, "webapp", "a.json"), `{"status":"idle"}`)
	writeRaw(t, filepath.Join(root, "webapp", "b.json"), `{"status":"idle"}`)
	writeRaw(t, filepath.Join(root, "webapp", ".b.json.123.tmp"), `{"sta`)
	writeRaw(t, filepath.Join(root, "webapp", "notes.txt"), `ignored`)
	writeRaw(t, filepath.Join(root, "legacy.json"), `{"repo":"old","worktree":"legacy","status":"running"}`)

	listing, err := NewStore(root).Entries(0)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(listing.Entries) != 3 {
		t.Fatalf("Entries() returned %d entries, want 3: %+v", len(listing.Entries), listing.Entries)
	}

	var legacy int
	for _, e := range listing.Entries {
		if e.Legacy {
			legacy++
			if e.Worker != "legacy" {
				t.Errorf("legacy entry worker = %q, want %q", e.Worker, "legacy")
			}
		}
	}
	if legacy != 1 {
		t.Errorf("found %d legacy entries, want 1", legacy)
	}
}

func TestStore_EntriesLimit(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeRaw(t, filepath.Join(root, "p", name+".json"), `{"status":"idle"}`)
	}

	listing, err := NewStore(root).Entries(2)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(listing.Entries) != 2 {
		t.Errorf("Entries(2) returned %d entries, want 2", len(listing.Entries))
	}
	if !listing.Truncated {
		t.Error("Entries(2) should report truncation")
	}
}

func TestStore_ReadLegacyAndDefaults(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writeRaw(t, filepath.Join(root, "solo.json"), `{"status":"running","updated_at":"2026-03-01T11:59:00+00:00"}`)
	writeRaw(t, filepath.Join(root, "tagged.json"), `{"repo":"svc","worktree":"hotfix","status":"error"}`)

	store := NewStore(root)
	listing, _ := store.Entries(0)

	got := map[string]Record{}
	for _, e := range listing.Entries {
		rec, err := store.Read(e, now)
		if err != nil {
			t.Fatalf("Read(%s) error = %v", e.Path, err)
		}
		got[rec.Key()] = rec
	}

	solo, ok := got["_default/solo"]
	if !ok {
		t.Fatalf("expected _default/solo, got %v", got)
	}
	if solo.UpdatedAt.Sub(now) != -time.Minute {
		t.Errorf("solo.UpdatedAt = %v, want one minute before now", solo.UpdatedAt)
	}

	tagged, ok := got["svc/hotfix"]
	if !ok {
		t.Fatalf("expected svc/hotfix, got %v", got)
	}
	if !tagged.TimestampInferred || !tagged.UpdatedAt.Equal(now) {
		t.Errorf("record without updated_at should use now and be flagged, got %+v", tagged)
	}
}

func TestStore_ReadMalformed(t *testing.T) {
	root := t.TempDir()
	writeRaw(t, filepath.Join(root, "p", "broken.json"), `{"status": "runn`)
	writeRaw(t, filepath.Join(root, "p", "badstate.json"), `{"status": "sleeping"}`)

	store := NewStore(root)
	listing, _ := store.Entries(0)
	for _, e := range listing.Entries {
		if _, err := store.Read(e, time.Now()); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("Read(%s) error = %v, want ErrMalformedRecord", e.Worker, err)
		}
	}
}

func TestStore_ReadClampsFutureTimestamp(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writeRaw(t, filepath.Join(root, "p", "skewed.json"), `{"status":"running","updated_at":"2026-03-01T13:00:00Z"}`)

	store := NewStore(root)
	listing, _ := store.Entries(0)
	rec, err := store.Read(listing.Entries[0], now)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !rec.UpdatedAt.Equal(now) {
		t.Errorf("Read() updatedAt = %v, want clamped to %v", rec.UpdatedAt, now)
	}
	if rec.TimestampInferred {
		t.Error("a clamped timestamp is still genuine and should not be flagged as inferred")
	}
}

func TestStore_ReadVanished(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Read(Entry{Path: filepath.Join(store.Root(), "p", "gone.json"), Project: "p", Worker: "gone"}, time.Now())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() error = %v, want fs.ErrNotExist", err)
	}
}

func TestStore_Prune(t *testing.T) {
	store := NewStore(t.TempDir())
	now := time.Now()

	store.Write(Record{Project: "p", Worker: "old", State: StateRunning, UpdatedAt: now.Add(-48 * time.Hour)})
	store.Write(Record{Project: "p", Worker: "fresh", State: StateRunning, UpdatedAt: now.Add(-time.Minute)})
	store.Write(Record{Project: "gone", Worker: "ancient", State: StateIdle, UpdatedAt: now.Add(-72 * time.Hour)})

	removed, err := store.Prune(24*time.Hour, now)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("Prune() removed %d records, want 2", len(removed))
	}

	listing, _ := store.Entries(0)
	if len(listing.Entries) != 1 || listing.Entries[0].Worker != "fresh" {
		t.Errorf("after Prune() entries = %+v, want only p/fresh", listing.Entries)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "gone")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("Prune() should remove emptied project directories")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2026-03-01T12:00:00Z", true},
		{"2026-03-01T12:00:00.123456+00:00", true},
		{"2026-03-01T12:00:00.123456", true},
		{"2026-03-01 12:00:00", true},
		{"yesterday", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if _, ok := ParseTimestamp(tt.input); ok != tt.ok {
				t.Errorf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
		})
	}
}

func TestRecordSupersedes(t *testing.T) {
	now := time.Now()
	genuineOld := Record{UpdatedAt: now.Add(-time.Hour)}
	inferredNow := Record{UpdatedAt: now, TimestampInferred: true}
	genuineNew := Record{UpdatedAt: now}

	if inferredNow.Supersedes(genuineOld) {
		t.Error("an inferred timestamp must not beat a genuine one")
	}
	if !genuineOld.Supersedes(inferredNow) {
		t.Error("a genuine timestamp should beat an inferred one")
	}
	if !genuineNew.Supersedes(genuineOld) {
		t.Error("the newer genuine record should win")
	}
}
