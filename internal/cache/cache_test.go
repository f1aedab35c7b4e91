package cache

import (
	"testing"
	"time"

	"github.com/vyaapari360/munim/internal/tally"
)

func envelope(key string, entity tally.EntityType) *Envelope {
	return &Envelope{
		Key:        key,
		Entity:     entity,
		Records:    []DisplayRecord{{Fields: map[string]any{"name": key}}},
		TotalCount: 1,
	}
}

func TestPutGet(t *testing.T) {
	c := New()
	c.Put(envelope("k1", tally.EntityVouchers))

	env, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected hit")
	}
	if env.Entity != tally.EntityVouchers || env.TotalCount != 1 {
		t.Errorf("envelope = %+v", env)
	}
	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestPut_OverwritesSameKey(t *testing.T) {
	c := New()
	c.Put(envelope("k1", tally.EntityVouchers))
	c.Put(&Envelope{Key: "k1", Entity: tally.EntityVouchers, TotalCount: 9})

	env, _ := c.Get("k1")
	if env.TotalCount != 9 {
		t.Errorf("TotalCount = %d, want 9 (last write wins)", env.TotalCount)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := New(WithCapacity(2), WithClock(clock))

	c.Put(envelope("k1", tally.EntityVouchers))
	now = now.Add(time.Second)
	c.Put(envelope("k2", tally.EntityLedgers))
	now = now.Add(time.Second)
	c.Put(envelope("k3", tally.EntityGodowns))

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Error("newest entry missing")
	}
}

func TestTTLExpiry(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := New(WithTTL(time.Minute), WithClock(clock))

	c.Put(envelope("k1", tally.EntityVouchers))
	if _, ok := c.Get("k1"); !ok {
		t.Fatal("fresh entry should be live")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k1"); ok {
		t.Error("expired entry still returned")
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := New(WithTTL(time.Minute), WithClock(clock))

	c.Put(envelope("k1", tally.EntityVouchers))
	now = now.Add(30 * time.Second)
	c.Put(envelope("k2", tally.EntityLedgers))
	now = now.Add(45 * time.Second)

	if dropped := c.Sweep(); dropped != 1 {
		t.Errorf("Sweep dropped %d, want 1", dropped)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", c.Len())
	}
}

func TestSweep_NoTTLIsNoop(t *testing.T) {
	c := New()
	c.Put(envelope("k1", tally.EntityVouchers))
	if dropped := c.Sweep(); dropped != 0 {
		t.Errorf("Sweep dropped %d without a TTL", dropped)
	}
}

func TestLatestAndLatestFor(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := New(WithClock(clock))

	c.Put(envelope("k1", tally.EntityVouchers))
	now = now.Add(time.Second)
	c.Put(envelope("k2", tally.EntityLedgers))
	now = now.Add(time.Second)
	c.Put(envelope("k3", tally.EntityVouchers))

	latest, ok := c.Latest()
	if !ok || latest.Key != "k3" {
		t.Errorf("Latest = %+v, want k3", latest)
	}

	env, ok := c.LatestFor(tally.EntityLedgers)
	if !ok || env.Key != "k2" {
		t.Errorf("LatestFor(ledgers) = %+v, want k2", env)
	}

	if _, ok := c.LatestFor(tally.EntityGodowns); ok {
		t.Error("LatestFor on empty entity should miss")
	}
}
