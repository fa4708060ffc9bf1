package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the shared configuration of the CLIs and the API.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Parameters ParametersConfig `mapstructure:"parameters"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Data       DataConfig       `mapstructure:"data"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	Model      ModelConfig      `mapstructure:"model"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	APIKey       string        `mapstructure:"api_key"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBatch     int           `mapstructure:"max_batch"`
}

func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// ParametersConfig selects the active parameter set: a preset name
// ("optimized", "baseline"), a YAML path, or "store:<version>".
type ParametersConfig struct {
	Source string `mapstructure:"source"`
}

type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type CacheConfig struct {
	Backend  string        `mapstructure:"backend"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Size     int           `mapstructure:"size"`
}

type DataConfig struct {
	Cases      string `mapstructure:"cases"`
	SubsetsDir string `mapstructure:"subsets_dir"`
	OutputDir  string `mapstructure:"output_dir"`
}

type OptimizerConfig struct {
	Method         string        `mapstructure:"method"`
	MaxEvaluations int           `mapstructure:"max_evaluations"`
	MaxIterations  int           `mapstructure:"max_iterations"`
	Runtime        time.Duration `mapstructure:"runtime"`
	Tolerance      float64       `mapstructure:"tolerance"`
	Patience       int           `mapstructure:"patience"`
	Workers        int           `mapstructure:"workers"`
}

type ModelConfig struct {
	Path string `mapstructure:"path"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configPath (optional) on top of defaults. REIMBURSE_* variables
// override any key, with dots written as underscores.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REIMBURSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.max_batch", 5000)

	v.SetDefault("parameters.source", "optimized")

	v.SetDefault("database.path", "data/reimburse.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.size", 100000)

	v.SetDefault("data.cases", "public_cases.json")
	v.SetDefault("data.subsets_dir", "subsets")
	v.SetDefault("data.output_dir", "out")

	v.SetDefault("optimizer.method", "cmaes")
	v.SetDefault("optimizer.max_evaluations", 20000)
	v.SetDefault("optimizer.max_iterations", 1000)
	v.SetDefault("optimizer.runtime", 10*time.Minute)
	v.SetDefault("optimizer.tolerance", 1e-4)
	v.SetDefault("optimizer.patience", 50)
	v.SetDefault("optimizer.workers", 0)

	v.SetDefault("model.path", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file", "")
}

// bindEnvVars adds the unprefixed names the tools have always read.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.api_key", "REIMBURSE_SERVER_API_KEY", "API_KEY")
	v.BindEnv("server.port", "REIMBURSE_SERVER_PORT", "PORT")
	v.BindEnv("logger.level", "REIMBURSE_LOGGER_LEVEL", "LOG_LEVEL")
	v.BindEnv("logger.file", "REIMBURSE_LOGGER_FILE", "LOG_FILE")
	v.BindEnv("cache.addr", "REIMBURSE_CACHE_ADDR", "REDIS_ADDR")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxBatch <= 0 {
		return fmt.Errorf("server.max_batch must be positive")
	}
	if c.Parameters.Source == "" {
		return fmt.Errorf("parameters.source is required")
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.Addr == "" {
			return fmt.Errorf("cache.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q must be memory, redis or none", c.Cache.Backend)
	}
	switch c.Optimizer.Method {
	case "cmaes", "neldermead", "bfgs":
	default:
		return fmt.Errorf("optimizer.method %q must be cmaes, neldermead or bfgs", c.Optimizer.Method)
	}
	if c.Optimizer.Tolerance < 0 {
		return fmt.Errorf("optimizer.tolerance must not be negative")
	}
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger.level %q must be debug, info, warn or error", c.Logger.Level)
	}
	return nil
}
