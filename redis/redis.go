package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const connectTimeout = 2 * time.Second

type RedisConfig struct {
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Password  string `json:"password" yaml:"password"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

type RedisSentinelConfig struct {
	SentinelHost     string `json:"sentinel_host" yaml:"sentinel_host"`
	SentinelPort     int    `json:"sentinel_port" yaml:"sentinel_port"`
	Password         string `json:"password" yaml:"password"`
	MasterName       string `json:"master_name" yaml:"master_name"`
	SentinelUsername string `json:"sentinel_username" yaml:"sentinel_username"`
	Namespace        string `json:"namespace" yaml:"namespace"`
}

// NewRedisClient connects to a single Redis node and pings it before
// returning.
func NewRedisClient(config *RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	slog.Debug("Connecting to Redis", "address", addr)

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    config.Password,
		DialTimeout: connectTimeout,
	})

	if err := ping(client); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	slog.Info("Connected to Redis", "address", addr)
	return client, nil
}

// NewRedisSentinelClient resolves the master through a Sentinel and pings it.
func NewRedisSentinelClient(config *RedisSentinelConfig) (*redis.Client, error) {
	if config.MasterName == "" {
		return nil, errors.New("failed to connect to Redis through Sentinel: master name is required")
	}
	addr := fmt.Sprintf("%s:%d", config.SentinelHost, config.SentinelPort)
	slog.Debug("Connecting to Redis through Sentinel", "sentinel", addr, "master", config.MasterName)

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       config.MasterName,
		SentinelAddrs:    []string{addr},
		SentinelUsername: config.SentinelUsername,
		Password:         config.Password,
		DialTimeout:      connectTimeout,
	})

	if err := ping(client); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis through Sentinel %s: %w", addr, err)
	}
	slog.Info("Connected to Redis through Sentinel", "sentinel", addr, "master", config.MasterName)
	return client, nil
}

func ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			slog.Debug("Closing unreachable Redis client failed", "error", closeErr)
		}
		return err
	}
	return nil
}

// Key builds the namespaced key "<namespace>:<kind>:<id>".
func Key(namespace, kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", namespace, kind, id)
}
