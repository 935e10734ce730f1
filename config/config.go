package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ipfs-force-community/metrics"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml"

	"github.com/ipfs-force-community/sophon-connect/types"
)

const (
	// Configuration file name
	ConfigFile = "config.toml"

	DefaultRepo = "~/.sophon-connect"
)

const (
	StorageMemory  = "memory"
	StorageLevelDB = "leveldb"
)

type Config struct {
	API      *APIConfig
	Storage  *StorageConfig
	Detect   *DetectConfig
	Registry *RegistryConfig
	Request  *RequestConfig
	Metrics  *metrics.MetricsConfig
	Trace    *metrics.TraceConfig
}

type APIConfig struct {
	ListenAddress string
}

type StorageConfig struct {
	// Backend is memory or leveldb.
	Backend string
	// Path of the leveldb database, relative paths are resolved against the repo.
	Path string
}

type DetectConfig struct {
	Timeout time.Duration
	Retries int
}

type RegistryConfig struct {
	// Path of a yaml wallet registry, the embedded one is used when empty.
	Path string
}

type RequestConfig struct {
	QueueSize     int
	Timeout       time.Duration
	ClearInterval time.Duration
}

func DefaultConfig() *Config {
	detect := types.DefaultDetectConfig()
	request := types.DefaultConfig()
	cfg := &Config{
		API:     &APIConfig{ListenAddress: "/ip4/127.0.0.1/tcp/45133"},
		Storage: &StorageConfig{Backend: StorageLevelDB, Path: "datastore"},
		Detect: &DetectConfig{
			Timeout: detect.Timeout,
			Retries: detect.Retries,
		},
		Registry: &RegistryConfig{},
		Request: &RequestConfig{
			QueueSize:     request.RequestQueueSize,
			Timeout:       request.RequestTimeout,
			ClearInterval: request.ClearInterval,
		},
		Metrics: metrics.DefaultMetricsConfig(),
		Trace:   metrics.DefaultTraceConfig(),
	}
	namespace := "connect"
	cfg.Metrics.Exporter.Prometheus.Namespace = namespace
	cfg.Metrics.Exporter.Graphite.Namespace = namespace
	cfg.Metrics.Exporter.Prometheus.EndPoint = "/ip4/0.0.0.0/tcp/4570"
	cfg.Metrics.Exporter.Graphite.Port = 4570
	cfg.Trace.ServerName = "sophon-connect"
	cfg.Trace.JaegerEndpoint = ""

	return cfg
}

func (c *Config) DetectConfig() types.DetectConfig {
	return types.DetectConfig{
		Timeout: c.Detect.Timeout,
		Retries: c.Detect.Retries,
	}
}

func (c *Config) RequestConfig() *types.RequestConfig {
	return &types.RequestConfig{
		RequestQueueSize: c.Request.QueueSize,
		RequestTimeout:   c.Request.Timeout,
		ClearInterval:    c.Request.ClearInterval,
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageLevelDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Detect.Timeout <= 0 {
		return fmt.Errorf("detect timeout must be positive")
	}
	if c.Detect.Retries < 0 {
		return fmt.Errorf("detect retries must not be negative")
	}
	return nil
}

// ExpandRepo resolves the home directory in repo.
func ExpandRepo(repo string) (string, error) {
	return homedir.Expand(repo)
}

// ResolvePath makes path absolute against repo.
func ResolvePath(repo, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(repo, path)
}

func ReadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err = toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return cfg, nil
}

// fillDefaults sets the sections missing from a config file.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.API == nil {
		c.API = def.API
	}
	if c.Storage == nil {
		c.Storage = def.Storage
	}
	if c.Storage.Backend == StorageLevelDB && c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Detect == nil {
		c.Detect = def.Detect
	}
	if c.Registry == nil {
		c.Registry = def.Registry
	}
	if c.Request == nil {
		c.Request = def.Request
	}
	if c.Metrics == nil {
		c.Metrics = def.Metrics
	}
	if c.Trace == nil {
		c.Trace = def.Trace
	}
}

func WriteConfig(filePath string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}
