package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-scheduler/internal/persistence"
)

func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("missing key reports not found", func(t *testing.T) {
		t.Parallel()

		_, err := New().Load(context.Background(), "absent")
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("values are copied on save and load", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := New()
		value := []byte(`[1]`)
		if err := store.Save(ctx, "k", value); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		value[1] = '9'

		loaded, err := store.Load(ctx, "k")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(loaded) != "[1]" {
			t.Fatalf("stored value was mutated through caller slice: %s", loaded)
		}
		loaded[1] = '7'

		again, _ := store.Load(ctx, "k")
		if string(again) != "[1]" {
			t.Fatalf("stored value was mutated through loaded slice: %s", again)
		}
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := New().Save(ctx, "k", nil); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
