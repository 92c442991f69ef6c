package entitlement

import (
	"context"
	"strings"
	"time"

	"careerpath/internal/infra"
	"careerpath/internal/sqlinline"
)

// PostgresStore keeps vouchers server side so the trust boundary does not sit
// in client storage.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

func (s *PostgresStore) VoucherExpiry(ctx context.Context, userID string) (time.Time, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return time.Time{}, false, errNoUser
	}
	var expiresAt time.Time
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectVoucherExpiry, userID).Scan(&expiresAt); err != nil {
		if infra.IsNoRows(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return expiresAt, true, nil
}

func (s *PostgresStore) GrantVoucher(ctx context.Context, userID string, expiresAt time.Time) error {
	if strings.TrimSpace(userID) == "" {
		return errNoUser
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertVoucher, userID, expiresAt.UTC())
	return err
}

// EnsureSchema creates the voucher table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QCreateVoucherTable)
	return err
}

var _ VoucherStore = (*PostgresStore)(nil)
