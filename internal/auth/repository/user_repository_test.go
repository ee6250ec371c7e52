package repository

import (
	"context"
	"testing"

	authdomain "kanban-mail-backend/internal/auth/domain"
	"kanban-mail-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &authdomain.User{})
	require.NoError(t, db.Create(&authdomain.User{ID: "u1", Email: "ann@example.com", GmailRefreshToken: "r1"}).Error)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	t.Run("refresh token kept when not rotated", func(t *testing.T) {
		require.NoError(t, repo.UpdateGmailTokens(ctx, "u1", "a2", ""))
		got, err := repo.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "a2", got.GmailAccessToken)
		assert.Equal(t, "r1", got.GmailRefreshToken)
	})

	t.Run("rotated refresh token stored", func(t *testing.T) {
		require.NoError(t, repo.UpdateGmailTokens(ctx, "u1", "a3", "r2"))
		got, err := repo.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "r2", got.GmailRefreshToken)
	})
}
