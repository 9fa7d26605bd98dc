package driver

import (
	"context"
	"testing"
	"time"

	"bloodbank-admin/internal/shared/model"
	"bloodbank-admin/internal/shared/storage/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	store, err := Open(Options{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, ok := store.(*repository.Store)
	assert.True(t, ok)

	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	now := time.Now().UTC()
	require.NoError(t, store.CreateUser(ctx, &model.User{
		ID: "u1", Email: "a@example.com", PasswordHash: "h", UserType: model.UserTypeAdmin,
		CreatedAt: now, UpdatedAt: now,
	}))
	got, err := store.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "mysql", URL: "mysql://localhost"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
