package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skynet2/spending-dashboard/pkg/repo"
)

func TestMemory(t *testing.T) {
	ctx := context.TODO()
	store := repo.NewMemory()

	_, ok, err := store.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Set(ctx, "app-filters-b", "2"))
	assert.NoError(t, store.Set(ctx, "app-filters-a", "1"))
	assert.NoError(t, store.Set(ctx, "app-people", "[]"))

	val, ok, err := store.Get(ctx, "app-filters-a")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", val)

	keys, err := store.Keys(ctx, "app-filters-")
	assert.NoError(t, err)
	assert.Equal(t, []string{"app-filters-a", "app-filters-b"}, keys)

	assert.NoError(t, store.Remove(ctx, "app-filters-a"))
	assert.NoError(t, store.Remove(ctx, "never-existed"))

	keys, err = store.Keys(ctx, "app-")
	assert.NoError(t, err)
	assert.Len(t, keys, 2)

	assert.NoError(t, store.Clear(ctx))

	keys, err = store.Keys(ctx, "")
	assert.NoError(t, err)
	assert.Empty(t, keys)
}
