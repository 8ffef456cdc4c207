package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestFileRepository_LoadMissing(t *testing.T) {
	repo := NewFileRepository(t.TempDir())

	st, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !st.IsEmpty() {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestFileRepository_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	repo := NewFileRepository(dir)

	var st State
	st.RecordLoad("/saves/000001 - Game0", "Taris")
	st.RecordSave("/saves/000001 - Game0")

	if err := repo.Save(context.Background(), st); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if filepath.Base(repo.Path()) != "session.json" {
		t.Fatalf("expected state file session.json, got %s", repo.Path())
	}
	assertNoTempFiles(t, dir)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.LastPath != st.LastPath || got.SaveName != "Taris" {
		t.Errorf("got %+v, want %+v", got, st)
	}
	if !got.LastSavedAt.Equal(st.LastSavedAt) {
		t.Errorf("LastSavedAt = %v, want %v", got.LastSavedAt, st.LastSavedAt)
	}
}

func TestFileRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	if err := os.WriteFile(repo.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestState_RecordSaveKeepsLoadedPath(t *testing.T) {
	var st State
	st.RecordLoad("/a", "A")
	st.RecordSave("/b")

	if st.LastPath != "/a" {
		t.Errorf("LastPath = %q, want /a", st.LastPath)
	}
	if st.LastSavedAt.IsZero() {
		t.Error("LastSavedAt not set")
	}
}

func TestFileRepository_ConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	ctx := context.Background()

	const writers = 16
	paths := make(map[string]bool, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		var st State
		st.RecordLoad(fmt.Sprintf("/saves/%06d - Game%d", i, i), strings.Repeat("x", i*64))
		paths[st.LastPath] = true

		wg.Add(1)
		go func(st State) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := repo.Save(ctx, st); err != nil {
					t.Errorf("Save returned error: %v", err)
					return
				}
			}
		}(st)
	}
	wg.Wait()

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !paths[got.LastPath] {
		t.Errorf("LastPath = %q, not one of the saved states", got.LastPath)
	}
	assertNoTempFiles(t, dir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
