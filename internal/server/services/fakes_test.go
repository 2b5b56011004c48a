package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/config"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type memStore = memory.Store

func newMemStore() *memStore {
	return memory.NewStore()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func testLogger() logging.Logger {
	return logging.NewZapLogger(zap.NewNop())
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// seedUser stores a password identity and returns it.
func seedUser(t *testing.T, s *memStore, email, username, password string, complete bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := memory.NewManager(s).Users(nil).Create(context.Background(), &models.User{
		Email:                strings.ToLower(email),
		Username:             username,
		PasswordHash:         string(hash),
		Name:                 username,
		Timezone:             common.DefaultTimezone,
		IsActive:             true,
		IsOnboardingComplete: complete,
	})
	require.NoError(t, err)
	return u
}
