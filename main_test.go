package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfigFile(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		path := writeConfig(t, "config.json", `{
			"server_config": {"host": "0.0.0.0", "port": 8080},
			"face_api": {"base_url": "http://face:41101", "match_threshold": 0.8},
			"doc_reader": {"base_url": "http://docr:8080", "face_api_threshold": 0.9},
			"storage_type": "memory",
			"issuance": {"jwt_private_key_path": "key.pem", "irma_server_url": "https://irma.example", "sd_jwt_batch_size": 10}
		}`)

		config, err := readConfigFile(path)
		require.NoError(t, err)
		require.Equal(t, "0.0.0.0", config.ServerConfig.Host)
		require.Equal(t, 8080, config.ServerConfig.Port)
		require.Equal(t, "http://face:41101", config.FaceAPI.BaseURL)
		require.Equal(t, 0.8, config.FaceAPI.MatchThreshold)
		require.NotNil(t, config.DocReader.FaceApiThreshold)
		require.Equal(t, 0.9, *config.DocReader.FaceApiThreshold)
		require.Equal(t, "memory", config.StorageType)
		require.NotNil(t, config.Issuance)
		require.Equal(t, uint(10), config.Issuance.SdJwtBatchSize)
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `
server_config:
  host: localhost
  port: 9090
  max_upload_bytes: 1024
log_format: json
face_api:
  base_url: http://face:41101
  api_key_header: X-Api-Key
doc_reader:
  base_url: http://docr:8080
storage_type: redis
redis_config:
  host: redis
  port: 6379
  namespace: docverify
`)

		config, err := readConfigFile(path)
		require.NoError(t, err)
		require.Equal(t, 9090, config.ServerConfig.Port)
		require.Equal(t, int64(1024), config.ServerConfig.MaxUploadBytes)
		require.Equal(t, "json", config.LogFormat)
		require.Equal(t, "X-Api-Key", config.FaceAPI.ApiKeyHeader)
		require.Equal(t, "redis", config.RedisConfig.Host)
		require.Equal(t, "docverify", config.RedisConfig.Namespace)
		require.Nil(t, config.Issuance)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readConfigFile(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := readConfigFile(writeConfig(t, "config.json", `{"server_config":`))
		require.ErrorContains(t, err, "failed to parse")
	})
}

func TestApplyDefaults(t *testing.T) {
	var config Config
	applyDefaults(&config)

	require.Equal(t, "info", config.LogLevel)
	require.Equal(t, "text", config.LogFormat)
	require.Equal(t, 30, config.ServerConfig.ReadTimeoutSeconds)
	require.Equal(t, 150, config.ServerConfig.WriteTimeoutSeconds)
	require.Equal(t, int64(50<<20), config.ServerConfig.MaxUploadBytes)

	require.Equal(t, "/api/detect", config.FaceAPI.DetectEndpoint)
	require.Equal(t, "/api/match", config.FaceAPI.MatchEndpoint)
	require.Equal(t, "/api/v2/liveness", config.FaceAPI.LivenessEndpoint)
	require.Equal(t, "/api/healthz", config.FaceAPI.HealthEndpoint)
	require.Equal(t, 30, config.FaceAPI.RequestTimeoutSeconds)
	require.Equal(t, 0.75, config.FaceAPI.MatchThreshold)

	require.Equal(t, "/api/process", config.DocReader.ProcessEndpoint)
	require.Equal(t, "match", config.DocReader.FaceApiMode)
	require.Equal(t, 60, config.DocReader.RequestTimeoutSeconds)
	require.Nil(t, config.DocReader.FaceApiThreshold, "compare falls back to its own default")

	require.Equal(t, 24*60, config.ReportTTLMinutes)

	t.Run("configured values are kept", func(t *testing.T) {
		config := Config{FaceAPI: FaceAPIConfig{MatchEndpoint: "/v3/match", MatchThreshold: 0.5}}
		applyDefaults(&config)
		require.Equal(t, "/v3/match", config.FaceAPI.MatchEndpoint)
		require.Equal(t, 0.5, config.FaceAPI.MatchThreshold)
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FACE_API_KEY", "env-face-key")
	t.Setenv("DOCR_BASE_URL", "http://env-docr")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DOCR_API_KEY", "")

	config := Config{
		FaceAPI:   FaceAPIConfig{ApiKey: "file-key"},
		DocReader: DocReaderConfig{BaseURL: "http://file-docr", ApiKey: "file-docr-key"},
	}
	applyEnvOverrides(&config)

	require.Equal(t, "env-face-key", config.FaceAPI.ApiKey)
	require.Equal(t, "http://env-docr", config.DocReader.BaseURL)
	require.Equal(t, "file-docr-key", config.DocReader.ApiKey, "empty variables are ignored")
	require.Equal(t, "secret", config.RedisConfig.Password)
	require.Equal(t, "secret", config.RedisSentinelConfig.Password)
	require.Equal(t, "debug", config.LogLevel)
}

func TestCreateReportStorage(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		for _, storageType := range []string{"", "none"} {
			storage, err := createReportStorage(&Config{StorageType: storageType})
			require.NoError(t, err)
			require.Nil(t, storage)
		}
	})

	t.Run("memory", func(t *testing.T) {
		storage, err := createReportStorage(&Config{StorageType: "memory", ReportTTLMinutes: 5})
		require.NoError(t, err)
		memory, ok := storage.(*InMemoryReportStorage)
		require.True(t, ok)
		require.Equal(t, int64(300), int64(memory.ttl.Seconds()))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := createReportStorage(&Config{StorageType: "postgres"})
		require.ErrorContains(t, err, "postgres is not a valid storage type")
	})
}
