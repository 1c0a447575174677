package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRunNotifiesOnDatabaseWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tuifocus.db")

	changed := make(chan struct{}, 4)
	w, err := New(dbPath, 20*time.Millisecond, func() { changed <- struct{}{} })
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write unrelated: %v", err)
	}
	if err := os.WriteFile(dbPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected change notification")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestRelevantMatchesJournalFiles(t *testing.T) {
	w := &Watcher{base: "tuifocus.db"}
	cases := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{"/x/tuifocus.db", fsnotify.Write, true},
		{"/x/tuifocus.db-wal", fsnotify.Write, true},
		{"/x/tuifocus.db-journal", fsnotify.Create, true},
		{"/x/tuifocus.db", fsnotify.Remove, false},
		{"/x/other.db", fsnotify.Write, false},
		{"/x/tuifocus.dbx", fsnotify.Write, false},
	}
	for _, tc := range cases {
		got := w.relevant(fsnotify.Event{Name: tc.name, Op: tc.op})
		if got != tc.want {
			t.Fatalf("relevant(%s, %v) = %v, want %v", tc.name, tc.op, got, tc.want)
		}
	}
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "tuifocus.db"), 0, nil)
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
