package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	StorageDriver string   `yaml:"storage_driver" validate:"required,oneof=redis pg"`
	HttpPort      int      `yaml:"http_port" validate:"required"`
	CorsOrigins   []string `yaml:"cors_origins"`
	SecureCookies bool     `yaml:"secure_cookies"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	ThreadsPerPage int `yaml:"threads_per_page" validate:"required,gt=0"`
	SearchPageSize int `yaml:"search_page_size" validate:"required,gt=0"`
	MaxTitleLength int `yaml:"max_title_length" validate:"required,gt=0"`
	MaxBodyLength  int `yaml:"max_body_length" validate:"required,gt=0"`
	MaxPollOptions int `yaml:"max_poll_options" validate:"required,gt=0"`

	// How often the integrity sweeper repairs drift left by interrupted cascades.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	DefaultChannelVisible bool          `yaml:"default_channel_visible"`
	SectionRules          []SectionRule `yaml:"section_rules" validate:"dive"`
}

// SectionRule maps a section (by name) to keywords matched against channel name and description.
type SectionRule struct {
	Section  string   `yaml:"section" validate:"required"`
	Keywords []string `yaml:"keywords" validate:"required,min=1"`
}

type Private struct {
	Redis       Redis  `yaml:"redis"`
	Pg          Pg     `yaml:"pg"`
	Meili       Meili  `yaml:"meili"`
	IdentityKey string `yaml:"identity_key" validate:"required"`
	GatewayKey  string `yaml:"gateway_key" validate:"required"`
}

type Redis struct {
	Url string `yaml:"url"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

// Meili is optional, search falls back to a store scan without it.
type Meili struct {
	Url    string `yaml:"url"`
	ApiKey string `yaml:"api_key"`
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder, applies
// environment overrides (a .env file in the working directory is honoured)
// and validates the result. Any problem is fatal.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	// missing .env is fine
	_ = godotenv.Load()
	applyEnv(&private)

	cfg := &Config{Public: public, Private: private}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	if cfg.Public.StorageDriver == "redis" && cfg.Private.Redis.Url == "" {
		panic("invalid config: redis url is required for redis storage")
	}
	if cfg.Public.StorageDriver == "pg" && cfg.Private.Pg.Host == "" {
		panic("invalid config: pg host is required for pg storage")
	}
	return cfg
}

func applyEnv(p *Private) {
	override(&p.Redis.Url, "KANAAL_REDIS_URL")
	override(&p.Pg.Password, "KANAAL_PG_PASSWORD")
	override(&p.Meili.Url, "KANAAL_MEILI_URL")
	override(&p.Meili.ApiKey, "KANAAL_MEILI_KEY")
	override(&p.IdentityKey, "KANAAL_IDENTITY_KEY")
	override(&p.GatewayKey, "KANAAL_GATEWAY_KEY")
}

func override(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
