package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chaos-io/cutout/cutout"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 CUTOUT_SERVER_PORT
const EnvPrefix = "CUTOUT"

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Model    ModelConfig     `mapstructure:"model"`
	Cutout   cutout.Settings `mapstructure:"cutout"`
	Pipeline PipelineConfig  `mapstructure:"pipeline"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Upload   UploadConfig    `mapstructure:"upload"`
	Storage  StorageConfig   `mapstructure:"storage"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ModelConfig struct {
	// Engine onnx 为本地推理，remote 为远端推理服务
	Engine      string `mapstructure:"engine"`
	LibraryPath string `mapstructure:"library_path"`
	Dir         string `mapstructure:"dir"`
	AssetURL    string `mapstructure:"asset_url"`
	RemoteURL   string `mapstructure:"remote_url"`
	NumThreads  int    `mapstructure:"num_threads"`
	Warmup      bool   `mapstructure:"warmup"`
}

type PipelineConfig struct {
	MaxPixels     int           `mapstructure:"max_pixels"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	QueueTimeout  time.Duration `mapstructure:"queue_timeout"`
	Resampler     string        `mapstructure:"resampler"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

type StorageConfig struct {
	ResultDir   string        `mapstructure:"result_dir"`
	Retention   time.Duration `mapstructure:"retention"`
	CleanupSpec string        `mapstructure:"cleanup_spec"`
}

// Load 从 YAML 文件加载配置，文件不存在时使用默认值，环境变量优先
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Cutout = cfg.Cutout.Normalize()
	return &cfg, nil
}

// New 使用默认配置路径加载配置，失败时返回默认配置
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		return Default()
	}
	return cfg
}

// Default 内置默认配置
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("load default config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)

	v.SetDefault("model.engine", "onnx")
	v.SetDefault("model.library_path", "")
	v.SetDefault("model.dir", "./models")
	v.SetDefault("model.asset_url", "")
	v.SetDefault("model.remote_url", "")
	v.SetDefault("model.num_threads", 0)
	v.SetDefault("model.warmup", false)

	d := cutout.DefaultSettings()
	v.SetDefault("cutout.input_size", d.InputSize)
	v.SetDefault("cutout.threshold", d.Threshold)
	v.SetDefault("cutout.feather", d.Feather)
	v.SetDefault("cutout.model", d.Model.String())
	v.SetDefault("cutout.background", d.Background)

	v.SetDefault("pipeline.max_pixels", cutout.DefaultMaxPixels)
	v.SetDefault("pipeline.max_concurrent", 2)
	v.SetDefault("pipeline.queue_timeout", 30*time.Second)
	v.SetDefault("pipeline.resampler", string(cutout.ResampleBilinear))

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 20*1024*1024)

	v.SetDefault("storage.result_dir", "./output")
	v.SetDefault("storage.retention", 24*time.Hour)
	v.SetDefault("storage.cleanup_spec", "@every 10m")
}
