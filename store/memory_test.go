package store

import (
	"context"
	"testing"
	"time"

	"github.com/tunerec/tunerec/core"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) error = %v, want not found", err)
	}

	if err := ms.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Errorf("Get() = %q, %v; want v1", got, err)
	}

	// Overwrite is idempotent last-write-wins.
	if err := ms.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ = ms.Get(ctx, "k")
	if string(got) != "v2" {
		t.Errorf("Get() after overwrite = %q, want v2", got)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "k", []byte("v"), 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get() after expiry error = %v, want not found", err)
	}
}

func TestMemoryStore_ZRange(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	for _, m := range []struct {
		member string
		score  float64
	}{
		{"b", 90}, {"a", 100}, {"d", 80}, {"c", 80},
	} {
		if err := ms.ZAdd(ctx, "rank", m.score, m.member); err != nil {
			t.Fatalf("ZAdd() error = %v", err)
		}
	}

	got, err := ms.ZRange(ctx, "rank", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	// Score descending, member ascending on ties.
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("ZRange() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	top, err := ms.ZRange(ctx, "rank", 0, 1)
	if err != nil || len(top) != 2 || top[0] != "a" || top[1] != "b" {
		t.Errorf("ZRange(0,1) = %v, %v; want [a b]", top, err)
	}

	empty, err := ms.ZRange(ctx, "nothing", 0, -1)
	if err != nil || len(empty) != 0 {
		t.Errorf("ZRange(missing) = %v, %v; want empty", empty, err)
	}
}
