package cache

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/pkg/config"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	client, err := NewRedis(context.Background(), config.RedisConfig{Host: host, Port: portNum})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	value, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", value)
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := net.SplitHostPort(mr.Addr())
	portNum, _ := strconv.Atoi(port)
	mr.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Host: host, Port: portNum})
	require.ErrorContains(t, err, "ping redis")
}
