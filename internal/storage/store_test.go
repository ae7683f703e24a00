package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestNewFileStore(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "saves")

	store, err := NewFileStore[*mockSpec](tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "path", store.path, tmpDir)

	info, err := os.Stat(tmpDir)
	if err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}
	testutil.AssertEqual(t, "is dir", info.IsDir(), true)
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	_, err := NewFileStore[*mockSpec]("")
	testutil.AssertErrorContains(t, err, "path is required")
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore[*mockSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = store.Save(ctx, "slot-1", &mockSpec{Name: "First", Value: 1})
	if err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}

	got, err := store.Load(ctx, "slot-1")
	if err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}
	testutil.AssertEqual(t, "name", got.Name, "First")
	testutil.AssertEqual(t, "value", got.Value, 1)

	err = store.Save(ctx, "slot-1", &mockSpec{Name: "Updated", Value: 2})
	if err != nil {
		t.Fatalf("unexpected error overwriting: %v", err)
	}
	got, err = store.Load(ctx, "slot-1")
	if err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}
	testutil.AssertEqual(t, "updated name", got.Name, "Updated")

	_, err = os.Stat(store.filePath("slot-1") + ".tmp")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected temp file to be renamed away, stat err = %v", err)
	}
}

func TestFileStore_Load(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		id       Identifier
		contents string
		expErr   string
		expNotFn bool
		expValue int
	}{
		"unversioned file": {
			id:       "legacy",
			contents: `{"name":"old","value":7}`,
			expValue: 7,
		},
		"missing file": {
			id:       "nothing",
			expNotFn: true,
		},
		"corrupt file": {
			id:       "corrupt",
			contents: `{invalid json`,
			expErr:   "unmarshalling asset",
		},
		"failed validation": {
			id:       "invalid",
			contents: `{"version":1,"id":"invalid","spec":{"name":"x","value":-4}}`,
			expErr:   "value must not be negative",
		},
		"invalid id": {
			id:     "../escape",
			expErr: "must be alphanumeric",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewFileStore[*mockSpec](dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.contents != "" {
				err = os.WriteFile(filepath.Join(dir, string(tt.id)+".json"), []byte(tt.contents), 0o644)
				if err != nil {
					t.Fatalf("failed to write test file: %v", err)
				}
			}

			got, err := store.Load(ctx, tt.id)
			if tt.expNotFn {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if tt.expErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				testutil.AssertEqual(t, "value", got.Value, tt.expValue)
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	store, err := NewFileStore[*mockSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = store.Save(context.Background(), "slot", &mockSpec{Value: -1})
	testutil.AssertErrorContains(t, err, "value must not be negative")
}

func TestFileStore_CancelledContext(t *testing.T) {
	store, err := NewFileStore[*mockSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Save(ctx, "slot", &mockSpec{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[*mockSpec]()

	_, err := store.Load(ctx, "slot")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err = store.Save(ctx, "slot", &mockSpec{Name: "mem", Value: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Load(ctx, "slot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "value", got.Value, 7)

	raw, ok := store.Raw("slot")
	testutil.AssertEqual(t, "raw present", ok, true)
	testutil.AssertEqual(t, "raw non-empty", len(raw) > 0, true)

	store.SetRaw("slot", []byte("garbage"))
	_, err = store.Load(ctx, "slot")
	testutil.AssertErrorContains(t, err, "unmarshalling asset")
}

func TestSqliteStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSqliteStore[*mockSpec](filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("unexpected error opening: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Load(ctx, "slot")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for i, name := range []string{"first", "second"} {
		err = store.Save(ctx, "slot", &mockSpec{Name: name, Value: i})
		if err != nil {
			t.Fatalf("unexpected error saving %s: %v", name, err)
		}
	}

	got, err := store.Load(ctx, "slot")
	if err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}
	testutil.AssertEqual(t, "name", got.Name, "second")
	testutil.AssertEqual(t, "value", got.Value, 1)
}

func TestOpenSqliteStore_EmptyPath(t *testing.T) {
	_, err := OpenSqliteStore[*mockSpec]("  ")
	testutil.AssertErrorContains(t, err, "storage path is required")
}
