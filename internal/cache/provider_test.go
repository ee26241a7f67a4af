package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	ctx := context.Background()

	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() err = %v, want ErrCacheMiss", err)
	}
	if err := p.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() err = %v", err)
	}
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() after Set should still miss, err = %v", err)
	}
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del() err = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() err = %v", err)
	}
}
