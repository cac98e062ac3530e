package helio

import (
	"os"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _helioconfig{}
)

// _helioconfig is a "hidden" struct, just use `helioConfig`
type _helioconfig struct {
	horizon   Stamp
	seed      int64
	gains     PDGains
	partsDir  string
	outputDir string
}

// helioConfig returns the sandbox configuration. Settings come from
// conf.toml in the HELIO_CONFIG directory; every key has a usable default
// so a missing file just means the stock sandbox.
func helioConfig() _helioconfig {
	if cfgLoaded {
		return config
	}
	viper.SetDefault("general.horizon_hours", 168)
	viper.SetDefault("general.seed", 42)
	viper.SetDefault("general.parts_path", "./parts")
	viper.SetDefault("general.output_path", "./out")
	g := DefaultGains()
	viper.SetDefault("gains.att_kp", g.AttKp)
	viper.SetDefault("gains.att_kd", g.AttKd)
	viper.SetDefault("gains.pos_kp", g.PosKp)
	viper.SetDefault("gains.pos_kd", g.PosKd)
	viper.SetDefault("gains.vel_kp", g.VelKp)
	viper.SetDefault("gains.vel_kd", g.VelKd)

	if confPath := os.Getenv("HELIO_CONFIG"); confPath != "" {
		viper.SetConfigName("conf")
		viper.AddConfigPath(confPath)
		// A named config dir with no conf.toml falls back to defaults.
		_ = viper.ReadInConfig()
	}

	config = _helioconfig{
		horizon:   StampFromSecs(viper.GetFloat64("general.horizon_hours") * 3600),
		seed:      viper.GetInt64("general.seed"),
		partsDir:  viper.GetString("general.parts_path"),
		outputDir: viper.GetString("general.output_path"),
		gains: PDGains{
			AttKp: viper.GetFloat64("gains.att_kp"),
			AttKd: viper.GetFloat64("gains.att_kd"),
			PosKp: viper.GetFloat64("gains.pos_kp"),
			PosKd: viper.GetFloat64("gains.pos_kd"),
			VelKp: viper.GetFloat64("gains.vel_kp"),
			VelKd: viper.GetFloat64("gains.vel_kd"),
		},
	}
	cfgLoaded = true
	return config
}

// ConfiguredHorizon returns the trajectory look-ahead from configuration.
func ConfiguredHorizon() Stamp { return helioConfig().horizon }

// ConfiguredSeed returns the universe seed from configuration.
func ConfiguredSeed() int64 { return helioConfig().seed }

// ConfiguredGains returns the controller gains from configuration.
func ConfiguredGains() PDGains { return helioConfig().gains }

// ConfiguredPartsDir returns the part library path from configuration.
func ConfiguredPartsDir() string { return helioConfig().partsDir }

// ConfiguredOutputDir returns the export path from configuration.
func ConfiguredOutputDir() string { return helioConfig().outputDir }
