package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/utils"
)

// Limits bounds the review batch payload. Oversized rationale/quote/locator
// values are clamped server-side, not rejected.
type Limits struct {
	MaxBatchItems       int `yaml:"max_batch_items"`
	MaxRationaleEntries int `yaml:"max_rationale_entries"`
	MaxRationaleLen     int `yaml:"max_rationale_len"`
	MaxQuoteLen         int `yaml:"max_quote_len"`
	MaxLocatorLen       int `yaml:"max_locator_len"`
}

type Config struct {
	Port         string   `yaml:"port"`
	MetricsPort  string   `yaml:"metrics_port"`
	CORSOrigins  []string `yaml:"cors_origins"`
	JWTSecretKey string   `yaml:"jwt_secret_key"`
	Limits       Limits   `yaml:"limits"`
}

func Defaults() Config {
	return Config{
		Port:        "8080",
		MetricsPort: "9091",
		CORSOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		JWTSecretKey: "defaultsecret",
		Limits: Limits{
			MaxBatchItems:       100,
			MaxRationaleEntries: 12,
			MaxRationaleLen:     500,
			MaxQuoteLen:         600,
			MaxLocatorLen:       200,
		},
	}
}

// Load builds the config from defaults, an optional YAML file pointed at by
// DOSSIER_CONFIG, and env var overrides, in that order.
func Load(log *logger.Logger) (Config, error) {
	cfg := Defaults()

	if path := utils.GetEnv("DOSSIER_CONFIG", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.MetricsPort = utils.GetEnv("METRICS_PORT", cfg.MetricsPort, log)
	cfg.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", cfg.JWTSecretKey, log)
	cfg.Limits.MaxBatchItems = utils.GetEnvAsInt("MAX_BATCH_ITEMS", cfg.Limits.MaxBatchItems, log)
	cfg.Limits.MaxRationaleEntries = utils.GetEnvAsInt("MAX_RATIONALE_ENTRIES", cfg.Limits.MaxRationaleEntries, log)
	cfg.Limits.MaxRationaleLen = utils.GetEnvAsInt("MAX_RATIONALE_LEN", cfg.Limits.MaxRationaleLen, log)
	cfg.Limits.MaxQuoteLen = utils.GetEnvAsInt("MAX_QUOTE_LEN", cfg.Limits.MaxQuoteLen, log)
	cfg.Limits.MaxLocatorLen = utils.GetEnvAsInt("MAX_LOCATOR_LEN", cfg.Limits.MaxLocatorLen, log)

	return cfg, nil
}
