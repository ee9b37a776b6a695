package points

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/pkg/db"
	"github.com/wolfbites/foodruns-backend/pkg/db/models"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
)

func setupPointsTestDB(t *testing.T) *db.Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(usersTable).Error)
	require.NoError(t, conn.Exec("DELETE FROM users").Error)

	return db.FromGorm(conn)
}

func seedUserWithPoints(t *testing.T, client *db.Client, points int) uuid.UUID {
	t.Helper()
	user := &models.User{Email: uuid.NewString() + "@ncsu.edu", PasswordHash: "x", Points: points}
	require.NoError(t, client.DB().Create(user).Error)
	return user.ID
}

func TestBalance(t *testing.T) {
	client := setupPointsTestDB(t)
	svc, err := NewService(client)
	require.NoError(t, err)

	ctx := context.Background()
	userID := seedUserWithPoints(t, client, 11)

	resp, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 11, resp.Points)
	require.Equal(t, 5, resp.PointsValue)

	_, err = svc.Balance(ctx, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRedeemDebitsWholeBlocks(t *testing.T) {
	client := setupPointsTestDB(t)
	svc, err := NewService(client)
	require.NoError(t, err)

	ctx := context.Background()
	userID := seedUserWithPoints(t, client, 11)

	resp, err := svc.Redeem(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 10, resp.PointsRedeemed)
	require.Equal(t, 5, resp.ValueRedeemed)
	require.Equal(t, 1, resp.RemainingPoints)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, balance.Points)

	_, err = svc.Redeem(ctx, userID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRedeemRequiresTenPoints(t *testing.T) {
	client := setupPointsTestDB(t)
	svc, err := NewService(client)
	require.NoError(t, err)

	ctx := context.Background()
	userID := seedUserWithPoints(t, client, 9)

	_, err = svc.Redeem(ctx, userID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 9, balance.Points)
}
