// Command seed_accounts opens the accounts listed in SEED_ACCOUNTS, for
// example "ACC-A=1000.00,ACC-B=200.00". Accounts that already exist are left
// untouched.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"bankcore/internal/config"
	apperrors "bankcore/internal/errors"
	applog "bankcore/internal/logger"
	"bankcore/internal/models"
	"bankcore/internal/repositories"
	"bankcore/internal/utils/money"

	"go.uber.org/zap"
)

type seed struct {
	AccountNumber string
	Opening       int64
}

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log, err := applog.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	seeds, err := parseSeeds(os.Getenv("SEED_ACCOUNTS"))
	if err != nil {
		log.Fatal("invalid SEED_ACCOUNTS", zap.Error(err))
	}
	if len(seeds) == 0 {
		log.Fatal("SEED_ACCOUNTS must be set, e.g. ACC-A=1000.00,ACC-B=200.00")
	}

	db, err := repositories.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := repositories.NewGormStore(db, cfg.Transfer.LockTimeout)
	created, err := openAccounts(ctx, store, seeds, log)
	if err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
	log.Info("accounts seeded", zap.Int("created", created), zap.Int("requested", len(seeds)))
}

func openAccounts(ctx context.Context, store repositories.AccountRepository, seeds []seed, log *zap.Logger) (int, error) {
	created := 0
	for _, s := range seeds {
		_, err := store.GetByNumber(ctx, s.AccountNumber)
		if err == nil {
			log.Info("account already exists", zap.String("account", s.AccountNumber))
			continue
		}
		if !apperrors.IsKind(err, apperrors.KindAccountNotFound) {
			return created, err
		}

		if err := store.Create(ctx, &models.Account{AccountNumber: s.AccountNumber, OpeningBalance: s.Opening}); err != nil {
			return created, fmt.Errorf("open %s: %w", s.AccountNumber, err)
		}
		created++
		log.Info("account opened",
			zap.String("account", s.AccountNumber),
			zap.String("opening_balance", money.Format(s.Opening)))
	}
	return created, nil
}

func parseSeeds(raw string) ([]seed, error) {
	var seeds []seed
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		number, amount, ok := strings.Cut(part, "=")
		number = strings.TrimSpace(number)
		if !ok || number == "" {
			return nil, fmt.Errorf("entry %q: want ACCOUNT=AMOUNT", part)
		}
		opening, err := money.ParseMinor(strings.TrimSpace(amount))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", part, err)
		}
		if opening < 0 {
			return nil, fmt.Errorf("entry %q: opening balance must not be negative", part)
		}
		seeds = append(seeds, seed{AccountNumber: number, Opening: opening})
	}
	return seeds, nil
}
