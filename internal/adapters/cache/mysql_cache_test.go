package cache

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-writer/internal/core"
)

func newTestMySQLCache(t *testing.T) (*MySQLCache, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reply_cache").WillReturnResult(sqlmock.NewResult(0, 0))

	cache, err := newMySQLCache(db, zap.NewNop(), 0)
	require.NoError(t, err)
	return cache, mock
}

func TestMySQLCacheGet(t *testing.T) {
	cache, mock := newTestMySQLCache(t)
	ctx := context.Background()

	created := time.Unix(1700000000, 0)
	expires := time.Unix(1900000000, 0)
	mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).
		WithArgs("k1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"cache_key", "reply", "model_used", "created_at", "expires_at"}).
			AddRow("k1", "Cached reply", "gpt-4o-mini", created.Unix(), expires.Unix()))

	entry, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "Cached reply", entry.Reply)
	assert.True(t, entry.CreatedAt.Equal(created))
	assert.True(t, entry.ExpiresAt.Equal(expires))

	mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).
		WithArgs("k2", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err = cache.Get(ctx, "k2")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCacheSet(t *testing.T) {
	cache, mock := newTestMySQLCache(t)

	created := time.Unix(1700000000, 0)
	mock.ExpectExec(regexp.QuoteMeta(mysqlUpsertQuery)).
		WithArgs("k1", "Reply", "claude", created.Unix(), int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := cache.Set(context.Background(), &core.CacheEntry{Key: "k1", Reply: "Reply", ModelUsed: "claude", CreatedAt: created})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCacheErrors(t *testing.T) {
	cache, mock := newTestMySQLCache(t)
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).WillReturnError(dbErr)
	_, err := cache.Get(ctx, "k1")
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, core.ErrCacheMiss)

	mock.ExpectExec(regexp.QuoteMeta(deleteEntryQuery)).WithArgs("k1").WillReturnError(dbErr)
	assert.ErrorIs(t, cache.Delete(ctx, "k1"), dbErr)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCacheCleanupAndStop(t *testing.T) {
	cache, mock := newTestMySQLCache(t)

	mock.ExpectExec(regexp.QuoteMeta(cleanupEntryQuery)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, cache.Cleanup(context.Background()))

	mock.ExpectClose()
	cache.Stop()

	require.NoError(t, mock.ExpectationsWereMet())
}
