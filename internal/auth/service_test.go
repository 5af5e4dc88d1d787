package auth

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaverse/internal/config"
	"visaverse/internal/redis"
	"visaverse/internal/storage"
)

func TestAuthIssueValidateRevoke(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	insertUser(t, db, 1)

	svc := NewService(db, nil, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, 1)
	require.NoError(t, err)
	require.Len(t, token, 64)

	userID, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)

	require.NoError(t, svc.RevokeToken(ctx, token))
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token2, err := svc.IssueToken(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, svc.RevokeUserTokens(ctx, 1))
	_, err = svc.ValidateToken(ctx, token2)
	assert.Error(t, err)
}

func TestAuthValidateExpiredToken(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	insertUser(t, db, 2)

	svc := NewService(db, nil, 10*time.Millisecond)
	token, err := svc.IssueToken(context.Background(), 2)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// expired tokens are purged
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user_tokens WHERE token = ?`, token).Scan(&count))
	assert.Zero(t, count)
}

func TestAuthRejectsBadInput(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.Hour)

	_, err := svc.IssueToken(context.Background(), 0)
	assert.Error(t, err)
	_, err = svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenRequired)
	assert.NoError(t, svc.RevokeToken(context.Background(), ""))
}

func TestAuthValidateLookupFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT user_id, expires_at FROM user_tokens").
		WithArgs("tok").
		WillReturnError(sql.ErrConnDone)

	svc := NewService(db, nil, time.Hour)
	_, err = svc.ValidateToken(context.Background(), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthTokenCacheUsesRedis(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	insertUser(t, db, 10)

	cacheClient, cleanup := newRedisCacheClient(t)
	defer cleanup()

	svc := NewService(db, cacheClient, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, 10)
	require.NoError(t, err)

	raw := cacheClient.Raw()
	require.NotNil(t, raw)
	key := redisTokenPrefix + token
	got, err := raw.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "10", got)

	// served from redis once the row is gone
	_, _ = db.Exec(`DELETE FROM user_tokens WHERE token = ?`, token)
	userID, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(10), userID)

	require.NoError(t, svc.RevokeToken(ctx, token))
	_, err = raw.Get(ctx, key).Result()
	assert.Error(t, err)
	_, err = svc.ValidateToken(ctx, token)
	assert.Error(t, err)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db, "sqlite3"))
	return db
}

func insertUser(t *testing.T, db *sql.DB, id int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, '', ?)`,
		id, "user", "user"+strconv.FormatInt(id, 10)+"@example.com", time.Now().UTC())
	require.NoError(t, err)
}

func newRedisCacheClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed auth tests")
	}
	db := 0
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}
	client, err := redis.NewRedisClient(config.RedisConfig{Addr: addr, DB: db})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Raw().FlushDB(ctx).Err())
	return client, func() { client.Close() }
}
