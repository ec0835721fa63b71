package engine

import (
	"github.com/spf13/viper"
)

// ConfigFromViper reads the isolation.* and costfunction.* keys. util.ReadConfig sets their defaults.
func ConfigFromViper() Config {
	config := DefaultConfig()
	if nodes := viper.GetStringSlice("isolation.supply_nodes"); len(nodes) > 0 {
		config.SupplyNodes = nodes
	}
	if viper.IsSet("isolation.leak_capacity") {
		config.LeakCapacity = viper.GetFloat64("isolation.leak_capacity")
	}
	if viper.IsSet("isolation.min_diameter_mm") {
		config.MinDiameter = viper.GetFloat64("isolation.min_diameter_mm")
	}
	config.EvaluationTimeout = viper.GetDuration("isolation.evaluation_timeout")
	config.StrictValves = viper.GetBool("isolation.strict_valves")
	config.SkipDecommissioned = viper.GetBool("costfunction.skip_decommissioned")
	return config
}
