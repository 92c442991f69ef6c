// Package pricing starts checkout and redeems voucher codes.
package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

// Backend is the slice of the product API the pricing screen needs.
type Backend interface {
	CreateCheckout(ctx context.Context) (string, error)
	RedeemCode(ctx context.Context, code string) (*backend.RedeemResult, error)
}

type ProfileRefresher interface {
	Refresh(ctx context.Context) (*domain.User, error)
}

// VoucherRecorder keeps the server-side voucher expiry.
type VoucherRecorder interface {
	Grant(ctx context.Context, userID string, expiresAt time.Time) error
}

type Service struct {
	vouchers VoucherRecorder
	logger   zerolog.Logger
}

func NewService(vouchers VoucherRecorder, logger zerolog.Logger) *Service {
	return &Service{vouchers: vouchers, logger: logger}
}

// Checkout returns the payment page URL to redirect to.
func (s *Service) Checkout(ctx context.Context, api Backend) (string, error) {
	url, err := api.CreateCheckout(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("create checkout failed")
		return "", err
	}
	return url, nil
}

// Redemption is the outcome of a successful Redeem.
type Redemption struct {
	Message   string       `json:"message"`
	ExpiresAt *time.Time   `json:"expiryDate,omitempty"`
	User      *domain.User `json:"user,omitempty"`
}

// Redeem applies code for userID. A rejected code returns the backend error
// untouched so its message can be shown verbatim, and the profile is not
// refreshed. On success the profile is refreshed and, when the backend says
// when the voucher ends, the expiry is recorded.
func (s *Service) Redeem(ctx context.Context, api Backend, profile ProfileRefresher, userID, code string) (*Redemption, error) {
	res, err := api.RedeemCode(ctx, code)
	if err != nil {
		return nil, err
	}
	out := &Redemption{Message: res.Message}
	if res.ExpiresAt != nil && *res.ExpiresAt > 0 {
		exp := time.UnixMilli(*res.ExpiresAt).UTC()
		out.ExpiresAt = &exp
		if s.vouchers != nil {
			if err := s.vouchers.Grant(ctx, userID, exp); err != nil {
				s.logger.Error().Err(err).Str("user_id", userID).Msg("record voucher failed")
			}
		}
	}
	if profile != nil {
		u, err := profile.Refresh(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("refresh profile after redeem")
		} else {
			out.User = u
		}
	}
	return out, nil
}
