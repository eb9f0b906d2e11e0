package auth

import (
	"testing"

	"github.com/corclo/backend/internal/database"
	"github.com/corclo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB wires an in-memory SQLite database into the global database.DB
// used by the auth service
func setupTestDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// Create tables manually with SQLite-compatible syntax
	// (GORM AutoMigrate tries to use PostgreSQL-specific features like gen_random_uuid)
	err = db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL,
			bio TEXT,
			password_hash TEXT,
			avatar_url TEXT,
			follower_count INTEGER DEFAULT 0,
			following_count INTEGER DEFAULT 0,
			post_count INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	database.DB = db
}

func TestRegisterAndLogin(t *testing.T) {
	setupTestDB(t)
	service := NewService([]byte("test-secret"))

	resp, err := service.Register(RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "password123",
		DisplayName: "Alice Smith",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotEmpty(t, resp.User.ID)

	// Password hash never leaves the service in plain form
	require.NotNil(t, resp.User.PasswordHash)
	assert.NotEqual(t, "password123", *resp.User.PasswordHash)

	login, err := service.Login(LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	setupTestDB(t)
	service := NewService([]byte("test-secret"))

	_, err := service.Register(RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(t, err)

	// Email comparison is case-insensitive
	_, err = service.Register(RegisterRequest{
		Email: "ALICE@example.com", Username: "alice2", Password: "password123", DisplayName: "Alice Two",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = service.Register(RegisterRequest{
		Email: "other@example.com", Username: "ALICE", Password: "password123", DisplayName: "Other",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	setupTestDB(t)
	service := NewService([]byte("test-secret"))

	_, err := service.Register(RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(t, err)

	_, err = service.Login(LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	setupTestDB(t)
	service := NewService([]byte("test-secret"))

	resp, err := service.Register(RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(t, err)

	user, err := service.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	// Tokens signed with a different secret are rejected
	otherService := NewService([]byte("other-secret"))
	_, err = otherService.ValidateToken(resp.Token)
	assert.Error(t, err)

	_, err = service.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateToken_DeletedUser(t *testing.T) {
	setupTestDB(t)
	service := NewService([]byte("test-secret"))

	resp, err := service.Register(RegisterRequest{
		Email: "alice@example.com", Username: "alice", Password: "password123", DisplayName: "Alice",
	})
	require.NoError(t, err)

	require.NoError(t, database.DB.Delete(&models.User{}, "id = ?", resp.User.ID).Error)

	_, err = service.ValidateToken(resp.Token)
	assert.Error(t, err)
}
