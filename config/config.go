package config

import (
	"os"
	"time"

	"galleria/classify"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	ENV_PREFIX = "GALLERIA"

	ConfigEnv    = ENV_PREFIX + "_CONFIG"
	JWTSecretEnv = ENV_PREFIX + "_JWT_SECRET"
	APIKeyEnv    = "MEDIA_API_KEY"

	// Development fallback for the upstream store credential. Matches
	// the default the frontend deploys with; never use in production.
	DevAPIKey = "dev-secret-key-change-in-production"
)

type Config struct {
	Env     Environment   `yaml:"-"` // from GALLERIA_ENV only
	Server  ServerConfig  `yaml:"server"`
	Gallery GalleryConfig `yaml:"gallery"`
	Media   MediaConfig   `yaml:"media"`
	Auth    AuthConfig    `yaml:"auth"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	Timeouts struct {
		Read   time.Duration `yaml:"read"`
		Header time.Duration `yaml:"header"`
		Write  time.Duration `yaml:"write"`
		Idle   time.Duration `yaml:"idle"`
	} `yaml:"timeouts"`
}

// GalleryConfig describes the photo archive: where it lives, how names
// classify, and how walks behave. The archive itself is read-only.
type GalleryConfig struct {
	Folder   string         `yaml:"folder"`
	Rules    classify.Rules `yaml:"rules"`
	Walk     WalkConfig     `yaml:"walk"`
	Cache    CacheConfig    `yaml:"cache"`
	Exiftool ExiftoolConfig `yaml:"exiftool"`
}

type WalkConfig struct {
	Parallelism int           `yaml:"parallelism"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CacheConfig bounds how long a built tree may be reused before the
// directory state is consulted again.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type ExiftoolConfig struct {
	Path         string        `yaml:"path"`
	Timeout      time.Duration `yaml:"timeout"`
	ResolvedPath string        `yaml:"-"`
}

// MediaConfig configures the media access proxy. The API key is sourced
// from the environment, never from the YAML file.
type MediaConfig struct {
	Upstream       string        `yaml:"upstream"`
	FrontendOrigin string        `yaml:"frontend_origin"`
	Timeout        time.Duration `yaml:"timeout"`
	APIKey         string        `yaml:"-"`
}

type AuthConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

func Load(path string) (*Config, error) {
	log.Logger.Debug().Msg("Configuration loading start")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Env = LoadEnvironment()
	if err := cfg.TransformBeforeValidation(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.TransformAfterValidation(); err != nil {
		return nil, err
	}

	log.Logger.Info().Msg("Configuration loaded")
	return &cfg, nil
}

func GetConfigPath() string {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		path = "config.yaml"
	}
	return path
}
