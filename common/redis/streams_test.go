package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestStreams_PublishReadAck(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	require.NoError(t, CreateConsumerGroup(ctx, client, "welfare:tasks", "workers"))
	// 重复创建不报错
	require.NoError(t, CreateConsumerGroup(ctx, client, "welfare:tasks", "workers"))

	id, err := PublishJSONToStream(ctx, client, "welfare:tasks", map[string]string{"task_id": "t-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := ReadFromStream(ctx, client, "welfare:tasks", "workers", "w-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)

	data, ok := msgs[0].Data()
	require.True(t, ok)
	assert.JSONEq(t, `{"task_id":"t-1"}`, data)

	require.NoError(t, Ack(ctx, client, "welfare:tasks", "workers", id))

	pending, err := client.XPending(ctx, "welfare:tasks", "workers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestReadFromStream_Empty(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	require.NoError(t, CreateConsumerGroup(ctx, client, "s", "g"))

	msgs, err := ReadFromStream(ctx, client, "s", "g", "c", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
