package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRedisClientUnreachable(t *testing.T) {
	tests := []struct {
		name   string
		config RedisConfig
	}{
		{"unknown host", RedisConfig{Host: "invalid-redis-host-that-does-not-exist", Port: 6379}},
		{"port out of range", RedisConfig{Host: "localhost", Port: 99999}},
		{"empty config", RedisConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisClient(&tt.config)
			require.Error(t, err)
			require.Nil(t, client)
			require.Contains(t, err.Error(), "failed to connect to Redis")
		})
	}
}

func TestNewRedisSentinelClientUnreachable(t *testing.T) {
	tests := []struct {
		name   string
		config RedisSentinelConfig
	}{
		{"unknown host", RedisSentinelConfig{SentinelHost: "invalid-sentinel-host-that-does-not-exist", SentinelPort: 26379, MasterName: "mymaster"}},
		{"port out of range", RedisSentinelConfig{SentinelHost: "localhost", SentinelPort: 99999, MasterName: "mymaster"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisSentinelClient(&tt.config)
			require.Error(t, err)
			require.Nil(t, client)
			require.Contains(t, err.Error(), "failed to connect to Redis through Sentinel")
		})
	}
}

func TestNewRedisSentinelClientRequiresMasterName(t *testing.T) {
	client, err := NewRedisSentinelClient(&RedisSentinelConfig{SentinelHost: "localhost", SentinelPort: 26379})
	require.Nil(t, client)
	require.ErrorContains(t, err, "master name is required")
}

func TestKey(t *testing.T) {
	require.Equal(t, "docverify:report:abc", Key("docverify", "report", "abc"))
	require.Equal(t, ":report:abc", Key("", "report", "abc"))
}
