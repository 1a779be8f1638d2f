package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore_AcquireLock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(db, time.Hour)

	key := KeyIdemBooking(1, "abc")
	mock.ExpectSetNX(key, "LOCK", time.Minute).SetVal(true)

	locked, err := store.AcquireLock(context.Background(), key, time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_SaveAndGetResult(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(db, time.Hour)

	key := KeyIdemBooking(1, "abc")
	payload := `{"booking_id":1}`

	mock.ExpectSet(key, "RES:"+payload, time.Hour).SetVal("OK")
	require.NoError(t, store.SaveResult(context.Background(), key, payload))

	mock.ExpectGet(key).SetVal("RES:" + payload)
	got, ok, err := store.GetResult(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_GetResultMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(db, time.Hour)

	key := KeyIdemBooking(1, "missing")
	mock.ExpectGet(key).RedisNil()

	_, ok, err := store.GetResult(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore_LockIsNotAResult(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewIdempotencyStore(db, time.Hour)

	key := KeyIdemBooking(1, "abc")

	mock.ExpectGet(key).SetVal("LOCK")
	_, ok, err := store.GetResult(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet(key).SetVal("LOCK")
	locked, err := store.IsLocked(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, locked)

	assert.NoError(t, mock.ExpectationsWereMet())
}
