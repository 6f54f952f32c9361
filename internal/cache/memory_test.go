package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	m := NewMemory()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("get = %q, %v", got, err)
	}
	got[0] = 'x'
	again, _ := m.Get(ctx, "k")
	if string(again) != "v" {
		t.Fatalf("stored bytes were aliased")
	}

	now = now.Add(time.Minute)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expired entry not evicted")
	}
}

func TestMemoryMissAndClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, err := m.Get(ctx, "absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	_ = m.Set(ctx, "k", []byte("v"), 0)
	_ = m.Close()
	if m.Len() != 0 {
		t.Fatalf("close must drop entries")
	}
}
