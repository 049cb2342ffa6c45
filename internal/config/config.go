// Package config loads the settings of the promptflow binaries from a YAML
// file, a .env file and PROMPTFLOW_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = ".promptflow.yaml"

// Config holds every runtime setting.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Editor  EditorConfig  `yaml:"editor"`
	Session SessionConfig `yaml:"session"`
}

type HTTPConfig struct {
	Addr       string `yaml:"addr" validate:"required"`
	CORSOrigin string `yaml:"cors_origin"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend" validate:"oneof=memory file redis"`
	Dir     string      `yaml:"dir" validate:"required_if=Backend file"`
	Format  string      `yaml:"format" validate:"oneof=json yaml"`
	Redis   RedisConfig `yaml:"redis"`
	// EncryptionKey is a base64 AES-256 key; node prompts are encrypted at rest when set.
	EncryptionKey string `yaml:"encryption_key" validate:"omitempty,base64"`
	// MaskParameters holds regular expressions of edge parameter keys whose
	// values are masked before saving.
	MaskParameters []string `yaml:"mask_parameters"`
}

type RedisConfig struct {
	Addr   string        `yaml:"addr"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl" validate:"gte=0"`
	// Lock enables the distributed flow lock for multi-replica deployments.
	Lock bool `yaml:"lock"`
}

type EditorConfig struct {
	HistorySize int    `yaml:"history_size" validate:"gte=1"`
	Layout      string `yaml:"layout" validate:"oneof=graphviz layered"`
}

type SessionConfig struct {
	CacheSize int `yaml:"cache_size" validate:"gte=1"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		HTTP:    HTTPConfig{Addr: ":8080", CORSOrigin: "*"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Backend: "file", Dir: ".promptflow/flows", Format: "json", Redis: RedisConfig{Addr: "localhost:6379", Prefix: "promptflow:flow:"}},
		Editor:  EditorConfig{HistorySize: 50, Layout: "graphviz"},
		Session: SessionConfig{CacheSize: 64},
	}
}

// Load builds the configuration. An explicit path must exist; the default
// file and the .env file are optional.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	// Existing environment variables win over the .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv("PROMPTFLOW_" + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	str("CORS_ORIGIN", &cfg.HTTP.CORSOrigin)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("STORE", &cfg.Store.Backend)
	str("STORE_DIR", &cfg.Store.Dir)
	str("STORE_FORMAT", &cfg.Store.Format)
	str("REDIS_ADDR", &cfg.Store.Redis.Addr)
	str("REDIS_PREFIX", &cfg.Store.Redis.Prefix)
	str("LAYOUT", &cfg.Editor.Layout)
	str("ENCRYPTION_KEY", &cfg.Store.EncryptionKey)

	if v, ok := os.LookupEnv("PROMPTFLOW_MASK_PARAMETERS"); ok {
		cfg.Store.MaskParameters = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Store.MaskParameters = append(cfg.Store.MaskParameters, p)
			}
		}
	}

	if v, ok := os.LookupEnv("PROMPTFLOW_REDIS_TTL"); ok {
		ttl, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PROMPTFLOW_REDIS_TTL: %w", err)
		}
		cfg.Store.Redis.TTL = ttl
	}
	if v, ok := os.LookupEnv("PROMPTFLOW_REDIS_LOCK"); ok {
		lock, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PROMPTFLOW_REDIS_LOCK: %w", err)
		}
		cfg.Store.Redis.Lock = lock
	}
	for key, dst := range map[string]*int{
		"HISTORY_SIZE": &cfg.Editor.HistorySize,
		"CACHE_SIZE":   &cfg.Session.CacheSize,
	} {
		v, ok := os.LookupEnv("PROMPTFLOW_" + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PROMPTFLOW_%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tag constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Addr == "" {
		return errors.New("invalid config: store.redis.addr is required for the redis backend")
	}
	return nil
}
