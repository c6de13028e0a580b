// Package cache holds the single staleness policy for mirrored social data.
// Both the on-demand sync path and the batch scheduler consult it, so a
// manual sync inside the window never hits an external provider.
package cache

import "time"

const DefaultTTLDays = 7

type Policy struct {
	ttl time.Duration
	now func() time.Time
}

func NewPolicy(ttlDays int) *Policy {
	if ttlDays <= 0 {
		ttlDays = DefaultTTLDays
	}
	return &Policy{
		ttl: time.Duration(ttlDays) * 24 * time.Hour,
		now: time.Now,
	}
}

// NewPolicyWithClock is for tests that need a fixed now.
func NewPolicyWithClock(ttlDays int, now func() time.Time) *Policy {
	p := NewPolicy(ttlDays)
	p.now = now
	return p
}

// IsValid reports whether a record synced at lastSyncedAt may still be
// served without an external fetch. A nil timestamp means never synced.
func (p *Policy) IsValid(lastSyncedAt *time.Time) bool {
	if lastSyncedAt == nil {
		return false
	}
	return p.now().Sub(*lastSyncedAt) < p.ttl
}

// Cutoff returns the instant before which a last_synced_at value counts as
// stale. The scheduler's selection query uses this so it agrees with IsValid.
func (p *Policy) Cutoff() time.Time {
	return p.now().Add(-p.ttl)
}

func (p *Policy) TTL() time.Duration {
	return p.ttl
}
