package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petstoreapp/order-service/internal/domain/order"
)

const testID = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestMemoryRepository_GetNotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.Get(context.Background(), testID)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestMemoryRepository_UpsertGet(t *testing.T) {
	repo := NewMemoryRepository()

	o := order.New(testID)
	o.Email = "pet@store.example"
	o.Items = []order.LineItem{{ProductID: 1, Quantity: 2}}
	require.NoError(t, repo.Upsert(context.Background(), o))

	got, err := repo.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	// Upsert replaces the full record.
	o.Items = nil
	o.Complete = true
	require.NoError(t, repo.Upsert(context.Background(), o))

	got, err = repo.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.True(t, got.Complete)
	assert.Empty(t, got.Items)
}

func TestMemoryRepository_ClonesStoredState(t *testing.T) {
	repo := NewMemoryRepository()

	o := order.New(testID)
	o.Items = []order.LineItem{{ProductID: 1, Quantity: 2}}
	require.NoError(t, repo.Upsert(context.Background(), o))

	// Neither the stored original nor a returned copy may alias the map.
	o.Items[0].Quantity = 9
	got, err := repo.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	got.Items[0].Quantity = 7
	again, err := repo.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}
