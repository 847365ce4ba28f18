// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config 汇总了 API 服务和 Worker 的全部配置
type Config struct {
	HostAddr         string        `yaml:"host" env:"HOST_ADDR" env-default:"0.0.0.0"`
	HostPort         string        `yaml:"port" env:"HOST_PORT" env-default:"5000"`
	DownloadDir      string        `yaml:"download_dir" env:"DOWNLOAD_DIR" env-default:"downloads"`
	MaxContentLength int64         `yaml:"max_content_length" env:"MAX_CONTENT_LENGTH" env-default:"104857600"`
	Retention        time.Duration `yaml:"retention" env:"RETENTION" env-default:"1h"`
	SweepInterval    time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL" env-default:"30m"`
	DefaultFormat    string        `yaml:"default_format" env:"DEFAULT_FORMAT" env-default:"best"`
	YtdlpAutoInstall bool          `yaml:"ytdlp_auto_install" env:"YTDLP_AUTO_INSTALL" env-default:"false"`
	GinMode          string        `yaml:"gin_mode" env:"GIN_MODE" env-default:"release"`

	Redis   RedisConfig   `yaml:"redis"`
	Archive ArchiveConfig `yaml:"archive"`
}

// RedisConfig 为空地址时表示不启用下载记录
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

// ArchiveConfig 控制是否把下载完成的文件镜像到 OBS
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ARCHIVE_ENABLED" env-default:"false"`
	Endpoint string `yaml:"obs_endpoint" env:"OBS_ENDPOINT"`
	AK       string `yaml:"obs_ak" env:"OBS_AK"`
	SK       string `yaml:"obs_sk" env:"OBS_SK"`
	Bucket   string `yaml:"obs_bucket" env:"OBS_BUCKET"`
}

// Load 先加载 .env（如果存在），再从 YAML 文件（可选）和环境变量读取配置
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法加载 .env 文件: %w", err)
	}

	cfg := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取配置: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.DownloadDir == "" {
		return errors.New("DOWNLOAD_DIR 不能为空")
	}
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("MAX_CONTENT_LENGTH 必须大于 0, 当前为 %d", c.MaxContentLength)
	}
	if c.Retention <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("RETENTION (%s) 和 SWEEP_INTERVAL (%s) 必须大于 0", c.Retention, c.SweepInterval)
	}
	if c.Archive.Enabled {
		if c.Redis.Addr == "" {
			return errors.New("启用归档时必须配置 REDIS_ADDR")
		}
		if c.Archive.Endpoint == "" || c.Archive.AK == "" || c.Archive.SK == "" || c.Archive.Bucket == "" {
			return errors.New("OBS 配置不完整，请检查 OBS_ENDPOINT, OBS_AK, OBS_SK, OBS_BUCKET")
		}
	}
	return nil
}

// ListenAddr 返回 HTTP 服务监听地址
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.HostAddr, c.HostPort)
}
