package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shiwutong/lostfound-backend/internal/config"
	"github.com/shiwutong/lostfound-backend/internal/database"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/session"
	"github.com/shiwutong/lostfound-backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB returns a migrated, private in-memory SQLite database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver:       "sqlite",
		DBName:         "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestAuth(db *gorm.DB) *AuthService {
	return NewAuthService(db, session.NewIssuer("test-secret", time.Hour, 24*time.Hour), 1)
}

func newTestItems(t *testing.T, db *gorm.DB, autoApprove bool) *ItemService {
	t.Helper()
	store, err := storage.New(t.TempDir(), 1024)
	require.NoError(t, err)
	return NewItemService(db, store, autoApprove, 1)
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user, err := newTestAuth(db).Register(context.Background(), &dto.RegisterRequest{
		Username:  username,
		Password:  "secret123",
		StudentID: "s-" + username,
		Email:     username + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func createItem(t *testing.T, items *ItemService, kind models.Kind, title string, publisherID *uint) uint {
	t.Helper()
	id, err := items.Create(context.Background(), kind, &dto.CreateItemRequest{
		Title:       title,
		Category:    "wallet",
		Description: "black leather wallet with a red stripe",
		Location:    "library",
		Time:        time.Now().Add(-time.Hour).Format("2006-01-02 15:04:05"),
	}, publisherID, nil)
	require.NoError(t, err)
	return id
}
