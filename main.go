package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-docverify-gateway/logging"
	redis "go-docverify-gateway/redis"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config" yaml:"server_config"`
	LogLevel     string       `json:"log_level,omitempty" yaml:"log_level"`
	LogFormat    string       `json:"log_format,omitempty" yaml:"log_format"`
	StaticPath   string       `json:"static_path,omitempty" yaml:"static_path"`

	FaceAPI   FaceAPIConfig   `json:"face_api" yaml:"face_api"`
	DocReader DocReaderConfig `json:"doc_reader" yaml:"doc_reader"`

	StorageType         string                    `json:"storage_type" yaml:"storage_type"`
	ReportTTLMinutes    int                       `json:"report_ttl_minutes,omitempty" yaml:"report_ttl_minutes"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty" yaml:"redis_config"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty" yaml:"redis_sentinel_config"`

	Issuance *IssuanceConfig `json:"issuance,omitempty" yaml:"issuance"`
}

func main() {
	configPath := flag.String("config", "", "Path for the config file (.json or .yaml) to use")
	flag.Parse()

	if *configPath == "" {
		slog.Error("please provide a config path using the --config flag")
		os.Exit(1)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		slog.Error("failed to read config file", "error", err, "path", *configPath)
		os.Exit(1)
	}
	applyEnvOverrides(&config)
	applyDefaults(&config)

	logging.InitLogger(config.LogLevel, config.LogFormat)
	slog.Info("using config", "path", *configPath, "host", config.ServerConfig.Host, "port", config.ServerConfig.Port)

	reportStorage, err := createReportStorage(&config)
	if err != nil {
		slog.Error("failed to instantiate report storage", "error", err)
		os.Exit(1)
	}

	serverState := ServerState{
		faceClient:         NewRegulaFaceClient(config.FaceAPI),
		docReader:          NewRegulaDocReaderClient(config.DocReader),
		docReaderConfig:    config.DocReader,
		faceMatchThreshold: config.FaceAPI.MatchThreshold,
		reportStorage:      reportStorage,
		staticPath:         config.StaticPath,
	}

	if config.Issuance != nil {
		jwtCreator, err := NewIrmaJwtCreator(*config.Issuance)
		if err != nil {
			slog.Error("failed to instantiate jwt creator", "error", err)
			os.Exit(1)
		}
		serverState.jwtCreator = jwtCreator
		serverState.irmaServerURL = config.Issuance.IrmaServerUrl
		slog.Info("Credential issuance enabled", "credential", config.Issuance.Credential)
	}

	server, err := NewServer(&serverState, config.ServerConfig)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	err = server.ListenAndServe()
	if err != nil {
		slog.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

// readConfigFile decodes a JSON config, or YAML when the file has a .yaml or
// .yml extension.
func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configBytes, &config)
	default:
		err = json.Unmarshal(configBytes, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"FACE_API_KEY", &config.FaceAPI.ApiKey},
		{"FACE_API_BASE_URL", &config.FaceAPI.BaseURL},
		{"DOCR_API_KEY", &config.DocReader.ApiKey},
		{"DOCR_BASE_URL", &config.DocReader.BaseURL},
		{"REDIS_PASSWORD", &config.RedisConfig.Password},
		{"LOG_LEVEL", &config.LogLevel},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.name); ok && value != "" {
			*o.target = value
		}
	}
	if value := os.Getenv("REDIS_PASSWORD"); value != "" {
		config.RedisSentinelConfig.Password = value
	}
}

func applyDefaults(config *Config) {
	setString := func(target *string, value string) {
		if strings.TrimSpace(*target) == "" {
			*target = value
		}
	}
	setInt := func(target *int, value int) {
		if *target <= 0 {
			*target = value
		}
	}

	setString(&config.LogLevel, "info")
	setString(&config.LogFormat, "text")

	setInt(&config.ServerConfig.ReadTimeoutSeconds, 30)
	setInt(&config.ServerConfig.WriteTimeoutSeconds, 150)
	if config.ServerConfig.MaxUploadBytes <= 0 {
		config.ServerConfig.MaxUploadBytes = 50 << 20
	}

	setString(&config.FaceAPI.DetectEndpoint, "/api/detect")
	setString(&config.FaceAPI.MatchEndpoint, "/api/match")
	setString(&config.FaceAPI.LivenessEndpoint, "/api/v2/liveness")
	setString(&config.FaceAPI.HealthEndpoint, "/api/healthz")
	setInt(&config.FaceAPI.RequestTimeoutSeconds, 30)
	if config.FaceAPI.MatchThreshold <= 0 {
		config.FaceAPI.MatchThreshold = 0.75
	}

	setString(&config.DocReader.ProcessEndpoint, "/api/process")
	setString(&config.DocReader.FaceApiMode, "match")
	setInt(&config.DocReader.RequestTimeoutSeconds, 60)

	setInt(&config.ReportTTLMinutes, int(DefaultReportTTL/time.Minute))
}

func createReportStorage(config *Config) (ReportStorage, error) {
	ttl := time.Duration(config.ReportTTLMinutes) * time.Minute
	switch config.StorageType {
	case "", "none":
		slog.Info("Report storage disabled")
		return nil, nil
	case "memory":
		slog.Info("Using in memory report storage", "ttl", ttl)
		return NewInMemoryReportStorage(ttl), nil
	case "redis":
		slog.Info("Using redis report storage", "host", config.RedisConfig.Host)
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisReportStorage(client, config.RedisConfig.Namespace, ttl), nil
	case "redis_sentinel":
		slog.Info("Using redis sentinel report storage", "master", config.RedisSentinelConfig.MasterName)
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisReportStorage(client, config.RedisSentinelConfig.Namespace, ttl), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}
