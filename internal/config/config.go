package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime settings, populated from GRANTS_* environment
// variables with sane defaults for local development.
type Config struct {
	Port         string        `envconfig:"PORT" default:"8081"`
	CORSOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	DatasetPath  string        `envconfig:"DATASET_PATH" default:""`
	CriteriaPath string        `envconfig:"CRITERIA_PATH" default:""`
	UpstreamURL  string        `envconfig:"UPSTREAM_URL" default:""`
	UpstreamWait time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("grants", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
