package config

import (
	"fmt"
	"os"
	"strconv"

	"go.yaml.in/yaml/v3"
)

const devSecret = "dev-token-secret"

type Config struct {
	Addr        string      `yaml:"addr"`
	DatabaseURL string      `yaml:"database_url"`
	Secret      string      `yaml:"secret"`
	BcryptCost  int         `yaml:"bcrypt_cost"`
	Vault       VaultConfig `yaml:"vault"`

	// Stamped at build time.
	Version   string `yaml:"-"`
	Commit    string `yaml:"-"`
	BuildTime string `yaml:"-"`
}

// VaultConfig locates the token secret in a Vault KV v2 engine. An empty
// Path disables the lookup.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Mount string `yaml:"mount"`
	Key   string `yaml:"key"`
}

func Defaults() Config {
	return Config{
		Addr:        ":3003",
		DatabaseURL: "bloglist.db",
		Secret:      devSecret,
		Vault:       VaultConfig{Mount: "secret", Key: "secret"},
	}
}

// Load layers the optional BLOGLIST_CONFIG yaml file over the defaults, then
// the environment over both.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("BLOGLIST_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if addr := os.Getenv("BLOGLIST_ADDR"); addr != "" {
		cfg.Addr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	cfg.DatabaseURL = envString("BLOGLIST_DB", envString("MONGODB_URI", cfg.DatabaseURL))
	cfg.Secret = envString("BLOGLIST_SECRET", envString("SECRET", cfg.Secret))
	cfg.BcryptCost = envInt("BLOGLIST_BCRYPT_COST", cfg.BcryptCost)
	cfg.Vault.Path = envString("BLOGLIST_VAULT_PATH", cfg.Vault.Path)
	cfg.Vault.Mount = envString("BLOGLIST_VAULT_MOUNT", cfg.Vault.Mount)
	cfg.Vault.Key = envString("BLOGLIST_VAULT_KEY", cfg.Vault.Key)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr is empty")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database url is empty")
	}
	if c.Secret == "" && c.Vault.Path == "" {
		return fmt.Errorf("config: token secret is empty")
	}
	// bcrypt accepts 4..31; zero selects its default.
	if c.BcryptCost != 0 && (c.BcryptCost < 4 || c.BcryptCost > 31) {
		return fmt.Errorf("config: bcrypt cost %d out of range 4..31", c.BcryptCost)
	}
	return nil
}

// DevSecret reports whether the token secret is the built-in development value.
func (c Config) DevSecret() bool {
	return c.Secret == devSecret
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
