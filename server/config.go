package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/feedrank/core"
	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/pkg/logging"
	"github.com/rushteam/feedrank/store"
)

const (
	// EnvPrefix 环境变量前缀，嵌套字段用双下划线分隔：FEEDRANK_STORE__DRIVER -> store.driver
	EnvPrefix = "FEEDRANK_"

	// ConfigPathEnv 指定配置文件路径的环境变量
	ConfigPathEnv = "FEEDRANK_CONFIG"
)

// Config 是服务配置。加载顺序：默认值 -> YAML 文件（可选）-> FEEDRANK_* 环境变量。
type Config struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimit 每秒允许的请求数，0 表示不限流
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`

	// MaxCandidates 单次排序请求的候选上限
	MaxCandidates int `koanf:"max_candidates" validate:"gt=0"`

	// SeenWindow 排序后标记为已读的前缀长度，0 表示不标记
	SeenWindow int `koanf:"seen_window" validate:"gte=0"`

	// PipelinePath Pipeline 配置文件（YAML/JSON），为空时使用内置默认 Pipeline
	PipelinePath string `koanf:"pipeline_path"`

	Log      logging.Config `koanf:"log"`
	Store    store.Config   `koanf:"store"`
	Exposure ExposureConfig `koanf:"exposure"`
}

// ExposureConfig 曝光缓存配置。
type ExposureConfig struct {
	PromotionCapacity int `koanf:"promotion_capacity" validate:"gte=0"`
	HistoryCapacity   int `koanf:"history_capacity" validate:"gte=0"`

	// Persist 为 true 时启动恢复、退出保存快照
	Persist     bool   `koanf:"persist"`
	SnapshotKey string `koanf:"snapshot_key"`
}

// Options 返回对应的缓存选项。
func (c ExposureConfig) Options() []exposure.Option {
	return []exposure.Option{
		exposure.WithPromotionCapacity(c.PromotionCapacity),
		exposure.WithHistoryCapacity(c.HistoryCapacity),
	}
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimit:       200,
		RateBurst:       400,
		MaxCandidates:   2000,
		SeenWindow:      10,
		Log:             logging.Config{Level: "info", Format: "json"},
		Store:           store.Config{Driver: "memory"},
		Exposure: ExposureConfig{
			PromotionCapacity: exposure.DefaultPromotionCapacity,
			HistoryCapacity:   exposure.DefaultHistoryCapacity,
			SnapshotKey:       "feedrank:exposure",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig 加载配置。path 为空时读取 FEEDRANK_CONFIG；两者都为空则只用默认值与环境变量。
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return core.NewDomainError(core.ModuleServer, core.ErrorCodeInvalidInput,
			fmt.Sprintf("invalid config: %v", err))
	}
	return nil
}
