package main

import (
	"context"
	"testing"
	"time"

	"bankcore/internal/models"
	"bankcore/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseSeeds(t *testing.T) {
	seeds, err := parseSeeds(" ACC-A=1000.00, ACC-B=200 ,")
	require.NoError(t, err)
	assert.Equal(t, []seed{{"ACC-A", 100000}, {"ACC-B", 20000}}, seeds)

	for _, bad := range []string{"ACC-A", "=10", "ACC-A=1.005", "ACC-A=-1", "ACC-A=ten"} {
		_, err := parseSeeds(bad)
		assert.Error(t, err, bad)
	}
}

func TestOpenAccountsSkipsExisting(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore(time.Second)
	require.NoError(t, store.Create(ctx, &models.Account{AccountNumber: "ACC-A", OpeningBalance: 5}))

	created, err := openAccounts(ctx, store, []seed{{"ACC-A", 100000}, {"ACC-B", 20000}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	a, err := store.GetByNumber(ctx, "ACC-A")
	require.NoError(t, err)
	assert.Equal(t, int64(5), a.Balance)

	b, err := store.GetByNumber(ctx, "ACC-B")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), b.Balance)
}
