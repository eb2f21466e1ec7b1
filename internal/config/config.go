package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ComputerConfig 远端桌面服务端点 / endpoint of the remote desktop service.
type ComputerConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// ReplayConfig 回放参数 / replay parameters.
type ReplayConfig struct {
	TrajectoryDir string `json:"trajectory_dir"`
	ActionDelayMS int    `json:"action_delay_ms"`
}

// RetentionConfig 图像保留策略参数。MaxRecentImages 为 nil 表示不限制。
// RetentionConfig holds the image retention budget; nil means unlimited.
type RetentionConfig struct {
	MaxRecentImages *int   `json:"max_recent_images"`
	Placeholder     string `json:"placeholder"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

type Config struct {
	Computer  ComputerConfig  `json:"computer"`
	Replay    ReplayConfig    `json:"replay"`
	Retention RetentionConfig `json:"retention"`
	Storage   StorageConfig   `json:"storage"`
}

// Default returns the built-in defaults.
func Default() Config {
	base := ""
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".replayer")
	}
	return Config{
		Computer: ComputerConfig{
			TimeoutMS: 60_000,
		},
		Replay: ReplayConfig{
			ActionDelayMS: 500,
		},
		Retention: RetentionConfig{
			Placeholder: "[omitted]",
		},
		Storage: StorageConfig{
			BaseDir: base,
		},
	}
}

// fileConfig 使用指针字段区分"未设置"与"零值"。
// fileConfig uses pointer fields to distinguish unset from zero.
type fileConfig struct {
	Computer *struct {
		BaseURL   *string `json:"base_url"`
		TimeoutMS *int    `json:"timeout_ms"`
	} `json:"computer"`
	Replay *struct {
		TrajectoryDir *string `json:"trajectory_dir"`
		ActionDelayMS *int    `json:"action_delay_ms"`
	} `json:"replay"`
	Retention *struct {
		MaxRecentImages *int    `json:"max_recent_images"`
		Placeholder     *string `json:"placeholder"`
	} `json:"retention"`
	Storage *struct {
		BaseDir *string `json:"base_dir"`
	} `json:"storage"`
}

// Load reads the config file (path, or $REPLAYER_CONFIG, or none) merged
// over defaults, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("REPLAYER_CONFIG")); resolvedPath == "" && envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath != "" {
		if err := mergeFromFile(&cfg, resolvedPath); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Computer != nil {
		if fc.Computer.BaseURL != nil {
			cfg.Computer.BaseURL = *fc.Computer.BaseURL
		}
		if fc.Computer.TimeoutMS != nil {
			cfg.Computer.TimeoutMS = *fc.Computer.TimeoutMS
		}
	}
	if fc.Replay != nil {
		if fc.Replay.TrajectoryDir != nil {
			cfg.Replay.TrajectoryDir = *fc.Replay.TrajectoryDir
		}
		if fc.Replay.ActionDelayMS != nil {
			cfg.Replay.ActionDelayMS = *fc.Replay.ActionDelayMS
		}
	}
	if fc.Retention != nil {
		if fc.Retention.MaxRecentImages != nil {
			v := *fc.Retention.MaxRecentImages
			cfg.Retention.MaxRecentImages = &v
		}
		if fc.Retention.Placeholder != nil {
			cfg.Retention.Placeholder = *fc.Retention.Placeholder
		}
	}
	if fc.Storage != nil && fc.Storage.BaseDir != nil {
		cfg.Storage.BaseDir = *fc.Storage.BaseDir
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("REPLAYER_COMPUTER_URL")); v != "" {
		cfg.Computer.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REPLAYER_ACTION_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Replay.ActionDelayMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("REPLAYER_MAX_RECENT_IMAGES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retention.MaxRecentImages = &n
		}
	}
	if v := strings.TrimSpace(os.Getenv("REPLAYER_STORAGE_DIR")); v != "" {
		cfg.Storage.BaseDir = v
	}
}

func normalize(cfg *Config) error {
	if cfg.Replay.ActionDelayMS < 0 {
		cfg.Replay.ActionDelayMS = 0
	}
	if cfg.Computer.TimeoutMS <= 0 {
		cfg.Computer.TimeoutMS = 60_000
	}
	if cfg.Retention.MaxRecentImages != nil && *cfg.Retention.MaxRecentImages < 0 {
		return fmt.Errorf("retention.max_recent_images must be non-negative, got %d", *cfg.Retention.MaxRecentImages)
	}
	if strings.TrimSpace(cfg.Retention.Placeholder) == "" {
		cfg.Retention.Placeholder = "[omitted]"
	}
	return nil
}

// RetentionBudget returns the configured budget, -1 when unlimited.
func (c Config) RetentionBudget() int {
	if c.Retention.MaxRecentImages == nil {
		return -1
	}
	return *c.Retention.MaxRecentImages
}
