// Package config loads config/config.yaml into viper and layers command-line
// flags and BRAIDSIM_* environment variables over it.
package config

import (
	"strings"

	"braidsim/sim"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultPath is where the config file lives relative to the working directory.
const DefaultPath = "config/config.yaml"

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-file":       "log.app_log_file",
	"leveldb":        "leveldb.path",
	"port":           "server.port",
	"blocks":         "simulation.blocks",
	"seed":           "simulation.seed",
	"strategy":       "simulation.strategy",
	"lookback":       "simulation.lookback",
	"finality-depth": "simulation.finality_depth",
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.app_log_file", "")
	viper.SetDefault("leveldb.path", "data/runs")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cache_size", 16)
	viper.SetDefault("server.max_blocks", 200000)
}

// Load reads the config file at path and binds every known flag of fs.
func Load(path string, fs *pflag.FlagSet) error {
	setDefaults()
	viper.SetEnvPrefix("BRAIDSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}

	if fs == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}

// Simulation decodes the simulation section over sim.DefaultConfig, so keys
// missing from the file keep their defaults.
func Simulation() (sim.Config, error) {
	wrapper := struct {
		Simulation sim.Config `mapstructure:"simulation"`
	}{Simulation: sim.DefaultConfig()}

	if err := viper.Unmarshal(&wrapper); err != nil {
		return sim.Config{}, errors.Wrap(err, "decode simulation config")
	}
	return wrapper.Simulation, nil
}
