package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	client, mock := redismock.NewClientMock()
	manager := NewManager(client)

	mock.CustomMatch(func(expected, actual []interface{}) error {
		// the lock value is a random uuid, only match command, key and ttl
		if len(expected) != len(actual) {
			return errors.New("argument length mismatch")
		}
		return nil
	}).ExpectSetNX("lock:booking_expiry:42", "", time.Minute).SetVal(true)

	lock, err := manager.Acquire(context.Background(), "booking_expiry:42", time.Minute)

	require.NoError(t, err)
	assert.NotNil(t, lock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireAlreadyHeld(t *testing.T) {
	client, mock := redismock.NewClientMock()
	manager := NewManager(client)

	mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSetNX("lock:booking_expiry:42", "", time.Minute).SetVal(false)

	lock, err := manager.Acquire(context.Background(), "booking_expiry:42", time.Minute)

	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.Nil(t, lock)
}

func TestAcquireRedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	manager := NewManager(client)

	mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSetNX("lock:booking_expiry:42", "", time.Minute).SetErr(errors.New("connection refused"))

	_, err := manager.Acquire(context.Background(), "booking_expiry:42", time.Minute)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
}
