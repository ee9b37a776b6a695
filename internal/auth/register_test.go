package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/pkg/config"
	"github.com/wolfbites/foodruns-backend/pkg/db"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
	"github.com/wolfbites/foodruns-backend/pkg/security"
)

func setupAuthTestDB(t *testing.T) *db.Client {
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

func buildRegisterService(t *testing.T, client *db.Client) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             client,
		SessionManager: &stubSessionManager{},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		JWTConfig:  testJWTConfig(),
		AuthConfig: config.AuthConfig{AllowedEmailDomain: "ncsu.edu"},
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterCreatesUserAndIssuesTokens(t *testing.T) {
	client := setupAuthTestDB(t)
	svc := buildRegisterService(t, client)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Newbie@NCSU.edu",
		Password: "super-secret-pw",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	require.Equal(t, "newbie@ncsu.edu", resp.User.Email)
	require.Equal(t, "newbie", resp.User.Username)
	require.Equal(t, 0, resp.User.Points)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)

	// password is stored hashed, never raw
	var stored struct{ PasswordHash string }
	require.NoError(t, client.DB().Table("users").Select("password_hash").Where("email = ?", "newbie@ncsu.edu").Scan(&stored).Error)
	require.NotEqual(t, "super-secret-pw", stored.PasswordHash)

	ok, err := security.VerifyPassword("super-secret-pw", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client := setupAuthTestDB(t)
	svc := buildRegisterService(t, client)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "dupe@ncsu.edu",
		Password: "super-secret-pw",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "dupe@ncsu.edu",
		Password: "other-password",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestRegisterRejectsForeignDomain(t *testing.T) {
	client := setupAuthTestDB(t)
	svc := buildRegisterService(t, client)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "outsider@gmail.com",
		Password: "super-secret-pw",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}
