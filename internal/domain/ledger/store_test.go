package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// storeUnderTest runs the same contract against every Store implementation.
func storeUnderTest(t *testing.T, name string, open func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()
	gen := transaction.NewTestDataGenerator(42)

	t.Run(name+"/append and get", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		rec := gen.Record("RUB")
		require.NoError(t, store.Append(ctx, rec))

		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.True(t, rec.Amount.Equal(got.Amount))
		assert.Equal(t, rec.Account, got.Account)
		assert.Equal(t, rec.Status, got.Status)

		_, err = store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run(name+"/list is date ordered and filtered", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		jan := gen.Record("RUB")
		jan.Date = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		jan.Account = "Карта"
		feb := gen.Record("RUB")
		feb.Date = time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
		feb.Account = "Наличные"
		require.NoError(t, store.Append(ctx, feb, jan))

		all, err := store.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, jan.ID, all[0].ID, "earlier record first")

		janOnly, err := store.List(ctx, Filter{
			From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, janOnly, 1)
		assert.Equal(t, jan.ID, janOnly[0].ID)

		cash, err := store.List(ctx, Filter{Account: "Наличные"})
		require.NoError(t, err)
		require.Len(t, cash, 1)
		assert.Equal(t, feb.ID, cash[0].ID)
	})

	t.Run(name+"/existing keys include tombstones", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		rec := gen.ImportedRecord(transaction.SourceSberbank, "RUB")
		require.NoError(t, store.Append(ctx, rec))
		require.NoError(t, store.UpdateStatus(ctx, rec.ID, transaction.StatusDeleted))

		keys, err := store.ExistingKeys(ctx)
		require.NoError(t, err)
		_, ok := keys[rec.DedupeKey()]
		assert.True(t, ok, "deleted record must still suppress re-import")
	})

	t.Run(name+"/update status", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		rec := gen.Record("RUB")
		rec.Status = transaction.StatusNeedsReview
		require.NoError(t, store.Append(ctx, rec))
		require.NoError(t, store.UpdateStatus(ctx, rec.ID, transaction.StatusOK))

		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusOK, got.Status)

		assert.ErrorIs(t, store.UpdateStatus(ctx, uuid.New(), transaction.StatusOK), ErrNotFound)
	})

	t.Run(name+"/update record", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		rec := gen.Record("RUB")
		require.NoError(t, store.Append(ctx, rec))

		rec.Category = "Подарки"
		rec.Tags = []string{"праздник"}
		require.NoError(t, store.Update(ctx, rec))

		got, err := store.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "Подарки", got.Category)
		assert.Equal(t, []string{"праздник"}, got.Tags)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, "memory", func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeUnderTest(t, "sqlite", func(t *testing.T) Store {
		store, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
		require.NoError(t, err)
		return store
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	gen := transaction.NewTestDataGenerator(7)

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	rec := gen.Record("RUB")
	require.NoError(t, store.Append(ctx, rec))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Description, got.Description)
}
