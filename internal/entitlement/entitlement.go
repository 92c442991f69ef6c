// Package entitlement derives premium access from the trial window and any
// voucher on record for the user.
package entitlement

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Plan is the subscription label shown to the user.
type Plan string

const (
	PlanNone    Plan = "none"
	PlanVoucher Plan = "voucher"
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

var titleCaser = cases.Title(language.English)

// Label is the display name of the plan.
func (p Plan) Label() string {
	if p == PlanNone || p == "" {
		return "Free"
	}
	return titleCaser.String(string(p))
}

// TrialWindow is fixed from account creation.
const TrialWindow = 7 * 24 * time.Hour

const TrialLabel = "7 Days Active"

type Entitlement struct {
	IsPremium     bool       `json:"isPremium"`
	Plan          Plan       `json:"plan"`
	PlanLabel     string     `json:"planLabel"`
	TrialActive   bool       `json:"trialActive"`
	TrialLabel    string     `json:"trialEndDate,omitempty"`
	TrialEndsAt   *time.Time `json:"trialEndsAt,omitempty"`
	VoucherExpiry *time.Time `json:"expiryDate,omitempty"`
}

// Evaluate is the pure entitlement rule: premium iff now is inside the trial
// window or before the voucher expiry. A voucher sets the plan label; the
// trial grants access without one. A zero createdAt means unknown and never
// starts a trial.
func Evaluate(createdAt, now time.Time, voucherExpiry *time.Time) Entitlement {
	trialActive := !createdAt.IsZero() && now.Sub(createdAt) < TrialWindow
	voucherActive := voucherExpiry != nil && now.Before(*voucherExpiry)

	ent := Entitlement{
		IsPremium:   trialActive || voucherActive,
		Plan:        PlanNone,
		TrialActive: trialActive,
	}
	if voucherActive {
		ent.Plan = PlanVoucher
		exp := *voucherExpiry
		ent.VoucherExpiry = &exp
	}
	if trialActive {
		end := createdAt.Add(TrialWindow)
		ent.TrialEndsAt = &end
		ent.TrialLabel = TrialLabel
	}
	ent.PlanLabel = ent.Plan.Label()
	return ent
}

// Calculator binds Evaluate to a voucher store and a clock.
type Calculator struct {
	vouchers VoucherStore
	now      func() time.Time
}

func NewCalculator(vouchers VoucherStore, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{vouchers: vouchers, now: now}
}

// Compute evaluates the entitlement of userID. Only that user's voucher is
// consulted.
func (c *Calculator) Compute(ctx context.Context, userID string, createdAt time.Time) (Entitlement, error) {
	now := c.now()
	if c.vouchers == nil || userID == "" {
		return Evaluate(createdAt, now, nil), nil
	}
	expiry, ok, err := c.vouchers.VoucherExpiry(ctx, userID)
	if err != nil {
		return Evaluate(createdAt, now, nil), fmt.Errorf("load voucher: %w", err)
	}
	if !ok {
		return Evaluate(createdAt, now, nil), nil
	}
	return Evaluate(createdAt, now, &expiry), nil
}

// Grant records a voucher for userID.
func (c *Calculator) Grant(ctx context.Context, userID string, expiresAt time.Time) error {
	if c.vouchers == nil {
		return fmt.Errorf("no voucher store configured")
	}
	return c.vouchers.GrantVoucher(ctx, userID, expiresAt)
}
