package entitlement

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// VoucherStore holds at most one voucher expiry per user.
type VoucherStore interface {
	VoucherExpiry(ctx context.Context, userID string) (time.Time, bool, error)
	GrantVoucher(ctx context.Context, userID string, expiresAt time.Time) error
}

// VoucherKey is the storage key for a user's voucher.
func VoucherKey(userID string) string {
	return "voucher_" + userID
}

var errNoUser = errors.New("user id is required")

// MemoryStore keeps vouchers as unix-millisecond strings under VoucherKey,
// the same encoding the single page app keeps in local storage.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) VoucherExpiry(_ context.Context, userID string) (time.Time, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return time.Time{}, false, errNoUser
	}
	m.mu.RLock()
	raw, ok := m.data[VoucherKey(userID)]
	m.mu.RUnlock()
	if !ok {
		return time.Time{}, false, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		// Unparseable values behave like no voucher at all.
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (m *MemoryStore) GrantVoucher(_ context.Context, userID string, expiresAt time.Time) error {
	if strings.TrimSpace(userID) == "" {
		return errNoUser
	}
	m.mu.Lock()
	m.data[VoucherKey(userID)] = strconv.FormatInt(expiresAt.UnixMilli(), 10)
	m.mu.Unlock()
	return nil
}

var _ VoucherStore = (*MemoryStore)(nil)
