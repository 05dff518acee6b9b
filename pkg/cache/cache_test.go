package cache

import (
	"testing"
	"time"
)

func TestGetPut(t *testing.T) {
	c := New[string, int](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned a value")
	}

	c.Put("answer", 42)
	got, ok := c.Get("answer")
	if !ok || got != 42 {
		t.Errorf("Get = (%d, %v), want (42, true)", got, ok)
	}
}

func TestStaleness(t *testing.T) {
	c := New[string, string](5 * time.Minute)

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Put("folders", "a,b,c")

	// Just inside the threshold: still fresh.
	now = now.Add(5 * time.Minute)
	if _, ok := c.Get("folders"); !ok {
		t.Error("Entry went stale before the threshold")
	}

	// Past the threshold: stale, entry evicted.
	now = now.Add(time.Second)
	if _, ok := c.Get("folders"); ok {
		t.Error("Entry survived past the staleness threshold")
	}
}

func TestPutRefreshesTimestamp(t *testing.T) {
	c := New[string, int](time.Minute)

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Put("k", 1)
	now = now.Add(50 * time.Second)
	c.Put("k", 2)
	now = now.Add(30 * time.Second)

	got, ok := c.Get("k")
	if !ok || got != 2 {
		t.Errorf("Get = (%d, %v), want (2, true) after refresh", got, ok)
	}
}

func TestInvalidate(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Put("k", 1)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Entry survived Invalidate")
	}
}

func TestDefaultTTL(t *testing.T) {
	c := New[string, int](0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}
