package modelstore

import (
	"context"
	"errors"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, ArtifactCategories, []byte(`["food","other"]`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := store.Load(ctx, ArtifactCategories)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != `["food","other"]` {
		t.Errorf("Load returned %q", data)
	}

	ok, err := store.Exists(ctx, ArtifactCategories)
	if err != nil || !ok {
		t.Errorf("Exists = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	_, err = store.Load(context.Background(), "nope.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load missing artifact = %v, want ErrNotFound", err)
	}

	ok, err := store.Exists(context.Background(), "nope.json")
	if err != nil || ok {
		t.Errorf("Exists = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestFileStore_SaveReplaces(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, ArtifactSpendCorpus, []byte("v1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, ArtifactSpendCorpus, []byte("v2")); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	data, err := store.Load(ctx, ArtifactSpendCorpus)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("Load after replace = %q, want v2", data)
	}
}
