package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/new4mezdz/guandao/pkg"
	"github.com/spf13/viper"
)

func SetConfigDefaults() {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("API_TIMEOUT", "30s")
	viper.SetDefault("HTTP_SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", "60s")
	viper.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", "5s")
	viper.SetDefault("RATE_LIMIT_RPS", 50)
	viper.SetDefault("RATE_LIMIT_BURST", 100)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("topology.source", "file")
	viper.SetDefault("topology.path", "./data/network.yaml")

	viper.SetDefault("isolation.supply_nodes", pkg.DEFAULT_SUPPLY_NODES)
	viper.SetDefault("isolation.leak_capacity", pkg.DEFAULT_LEAK_CAPACITY)
	viper.SetDefault("isolation.min_diameter_mm", pkg.DEFAULT_MIN_DIAMETER)
	viper.SetDefault("isolation.evaluation_timeout", "0s")
	viper.SetDefault("isolation.strict_valves", false)
	viper.SetDefault("costfunction.skip_decommissioned", false)

	viper.SetDefault("cache.size", 1024)
	viper.SetDefault("batch.workers", 4)
}

// ReadConfig loads data/config.yaml on top of the defaults. GUANDAO_ env vars win over both,
// nested keys use '_' (GUANDAO_ISOLATION_LEAK_CAPACITY). a missing config file is not an error.
func ReadConfig(paths ...string) error {
	SetConfigDefaults()

	viper.SetEnvPrefix("GUANDAO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	if len(paths) == 0 {
		paths = []string{"./data/"}
	}
	for _, p := range paths {
		viper.AddConfigPath(p)
	}

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}
