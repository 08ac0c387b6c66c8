package crawl

import (
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint("hello world")
	b := Fingerprint("hello world")
	c := Fingerprint("something else")

	assertEqual(t, a, b)
	if a == c {
		t.Error("different descriptions produced the same fingerprint")
	}
	assertEqual(t, 64, len(a))
}

func TestCacheRecordAndEvict(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	ttl := time.Minute

	cache := NewCache()
	fp := Fingerprint("first post")

	assertEqual(t, true, cache.IsNew(fp))
	cache.Record(fp, now, ttl)
	assertEqual(t, false, cache.IsNew(fp))
	assertEqual(t, 1, cache.Len())

	// Before expiry the entry survives eviction.
	cache.Evict(now.Add(30 * time.Second))
	assertEqual(t, false, cache.IsNew(fp))

	// At expiry it goes.
	cache.Evict(now.Add(ttl))
	assertEqual(t, true, cache.IsNew(fp))
	assertEqual(t, 0, cache.Len())
}

func TestCacheRecordExtendsExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	cache := NewCache()
	fp := Fingerprint("refreshed post")

	cache.Record(fp, now, time.Minute)
	cache.Record(fp, now.Add(time.Minute), time.Minute)

	// The re-record pushed expiry past the original TTL.
	cache.Evict(now.Add(90 * time.Second))
	assertEqual(t, false, cache.IsNew(fp))
}

func TestCacheClone(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	cache := NewCache()
	cache.Record(Fingerprint("original"), now, time.Minute)

	clone := cache.Clone()
	clone.Record(Fingerprint("clone only"), now, time.Minute)

	assertEqual(t, 1, cache.Len())
	assertEqual(t, 2, clone.Len())
	assertEqual(t, true, cache.IsNew(Fingerprint("clone only")))
}
