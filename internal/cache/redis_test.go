package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetEvents(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)
	ctx := context.Background()

	mock.ExpectGet("cache:events").RedisNil()
	mock.ExpectGet("cache:events:access:motor").SetVal(`[{"id":1,"team_home_name":"Lyon"}]`)

	events, err := c.GetEvents(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, events)

	events, err = c.GetEvents(ctx, "motor")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Lyon", events[0].TeamHomeName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_SetEvents(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)

	mock.ExpectSet("cache:events", `[{"id":1}]`, time.Minute).SetVal("OK")

	err := c.SetEvents(context.Background(), "", []domain.Event{{ID: domain.NumericID(1)}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
