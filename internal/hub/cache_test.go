package hub

import (
	"testing"
	"time"
)

func TestCacheGetPut(t *testing.T) {
	c := newCache(time.Minute)

	if _, ok := c.get("device:esp-1"); ok {
		t.Error("hit on empty cache")
	}

	c.put("device:esp-1", 42)
	v, ok := c.get("device:esp-1")
	if !ok || v.(int) != 42 {
		t.Errorf("get() = %v, %v", v, ok)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newCache(time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.put("zone:esp-1", "greenhouse-a")

	c.now = func() time.Time { return base.Add(time.Minute - time.Second) }
	if _, ok := c.get("zone:esp-1"); !ok {
		t.Error("entry expired before its TTL")
	}

	c.now = func() time.Time { return base.Add(time.Minute) }
	if _, ok := c.get("zone:esp-1"); ok {
		t.Error("entry survived past its TTL")
	}

	// The expired entry is gone for good, not just hidden.
	c.now = func() time.Time { return base }
	if _, ok := c.get("zone:esp-1"); ok {
		t.Error("expired entry was not deleted")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := newCache(time.Minute)
	c.put("sensor:esp-1/temp", 21.5)
	c.put("aggregate:esp-1", "stats")
	c.put("device:esp-2", "other")

	c.invalidate("sensor:esp-1/temp", "aggregate:esp-1")

	if _, ok := c.get("sensor:esp-1/temp"); ok {
		t.Error("invalidated key still present")
	}
	if _, ok := c.get("aggregate:esp-1"); ok {
		t.Error("invalidated key still present")
	}
	if _, ok := c.get("device:esp-2"); !ok {
		t.Error("unrelated key was dropped")
	}
}

func TestCacheDefaultTTL(t *testing.T) {
	if c := newCache(0); c.ttl != DefaultCacheTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultCacheTTL)
	}
	if c := newCache(-time.Second); c.ttl != DefaultCacheTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultCacheTTL)
	}
}
