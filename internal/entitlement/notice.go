package entitlement

import (
	"sync"
	"time"
)

// NoticeIdleTTL is how long a user may go unseen before the tracker treats
// them as signed out.
const NoticeIdleTTL = 12 * time.Hour

// NoticeTracker fires the one-time trial onboarding notice. It is edge
// triggered on the signed-out to signed-in transition of each user; signing
// out or staying away longer than the TTL re-arms it.
type NoticeTracker struct {
	mu        sync.Mutex
	lastSeen  map[string]time.Time
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewNoticeTracker() *NoticeTracker {
	return &NoticeTracker{
		lastSeen: make(map[string]time.Time),
		ttl:      NoticeIdleTTL,
		now:      time.Now,
	}
}

// Observe records that userID is signed in and reports whether the notice
// should be shown now.
func (n *NoticeTracker) Observe(userID string, ent Entitlement) bool {
	if userID == "" {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	n.sweepLocked(now)
	seen, ok := n.lastSeen[userID]
	n.lastSeen[userID] = now
	if ok && now.Sub(seen) <= n.ttl {
		return false
	}
	return ent.TrialActive && ent.Plan != PlanVoucher
}

func (n *NoticeTracker) SignOut(userID string) {
	n.mu.Lock()
	delete(n.lastSeen, userID)
	n.mu.Unlock()
}

func (n *NoticeTracker) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.lastSeen)
}

// sweepLocked runs at most once per TTL.
func (n *NoticeTracker) sweepLocked(now time.Time) {
	if now.Sub(n.lastSweep) < n.ttl {
		return
	}
	n.lastSweep = now
	cutoff := now.Add(-n.ttl)
	for id, seen := range n.lastSeen {
		if seen.Before(cutoff) {
			delete(n.lastSeen, id)
		}
	}
}
