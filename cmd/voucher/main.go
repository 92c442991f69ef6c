package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"careerpath/internal/entitlement"
	"careerpath/internal/infra"
)

func main() {
	var (
		userFlag    string
		daysFlag    int
		expiresFlag string
		showFlag    bool
	)

	flag.StringVar(&userFlag, "user", "", "identity user id to grant the voucher to")
	flag.IntVar(&daysFlag, "days", 30, "voucher length in days from now")
	flag.StringVar(&expiresFlag, "expires", "", "explicit expiry (RFC3339), overrides -days")
	flag.BoolVar(&showFlag, "show", false, "print the current voucher instead of granting one")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(userFlag)
	if userID == "" {
		exitWithError(errors.New("-user is required"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, dbURL)
	if err != nil {
		exitWithError(err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "voucher").Logger()
	store := entitlement.NewPostgresStore(infra.NewSQLRunner(pool, logger))
	if err := store.EnsureSchema(ctx); err != nil {
		exitWithError(fmt.Errorf("failed to prepare voucher table: %w", err))
	}

	if showFlag {
		expiry, ok, err := store.VoucherExpiry(ctx, userID)
		if err != nil {
			exitWithError(fmt.Errorf("failed to load voucher: %w", err))
		}
		if !ok {
			fmt.Printf("User %s has no voucher\n", userID)
			return
		}
		ent := entitlement.Evaluate(time.Time{}, time.Now(), &expiry)
		fmt.Printf("User %s voucher expires %s (plan=%s premium=%t)\n", userID, expiry.UTC().Format(time.RFC3339), ent.Plan, ent.IsPremium)
		return
	}

	expiresAt, err := resolveExpiry(expiresFlag, daysFlag, time.Now())
	if err != nil {
		exitWithError(err)
	}
	calc := entitlement.NewCalculator(store, nil)
	if err := calc.Grant(ctx, userID, expiresAt); err != nil {
		exitWithError(fmt.Errorf("failed to grant voucher: %w", err))
	}
	fmt.Printf("User %s granted voucher until %s\n", userID, expiresAt.UTC().Format(time.RFC3339))
}

func resolveExpiry(explicit string, days int, now time.Time) (time.Time, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		t, err := time.Parse(time.RFC3339, explicit)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid -expires: %w", err)
		}
		if !t.After(now) {
			return time.Time{}, errors.New("-expires must be in the future")
		}
		return t, nil
	}
	if days <= 0 {
		return time.Time{}, errors.New("-days must be positive")
	}
	return now.Add(time.Duration(days) * 24 * time.Hour), nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
