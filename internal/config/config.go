package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	OpenTargets OpenTargetsConfig `yaml:"opentargets" mapstructure:"opentargets"`
	ChEMBL      ChEMBLConfig      `yaml:"chembl" mapstructure:"chembl"`
	EuropePMC   EuropePMCConfig   `yaml:"europepmc" mapstructure:"europepmc"`
	CTGov       CTGovConfig       `yaml:"ctgov" mapstructure:"ctgov"`
	Triage      TriageConfig      `yaml:"triage" mapstructure:"triage"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OpenTargetsConfig holds Open Targets Platform API settings.
type OpenTargetsConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ChEMBLConfig holds ChEMBL REST API settings.
type ChEMBLConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EuropePMCConfig holds Europe PMC REST API settings.
type EuropePMCConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// CTGovConfig holds ClinicalTrials.gov API settings.
type CTGovConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	PageSize int    `yaml:"page_size" mapstructure:"page_size"`
}

// TriageConfig configures orchestration behavior.
type TriageConfig struct {
	GeneTimeoutSecs   int `yaml:"gene_timeout_secs" mapstructure:"gene_timeout_secs"`
	MaxLiteratureHits int `yaml:"max_literature_hits" mapstructure:"max_literature_hits"`
	TopTargets        int `yaml:"top_targets" mapstructure:"top_targets"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "triage.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("opentargets.base_url", "https://api.platform.opentargets.org/api/v4")
	v.SetDefault("chembl.base_url", "https://www.ebi.ac.uk/chembl/api/data")
	v.SetDefault("europepmc.base_url", "https://www.ebi.ac.uk/europepmc/webservices/rest")
	v.SetDefault("europepmc.requests_per_sec", 10.0)
	v.SetDefault("europepmc.max_retries", 4)
	v.SetDefault("ctgov.base_url", "https://clinicaltrials.gov/api/v2")
	v.SetDefault("ctgov.page_size", 100)
	v.SetDefault("triage.gene_timeout_secs", 180)
	v.SetDefault("triage.max_literature_hits", 10)
	v.SetDefault("triage.top_targets", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
