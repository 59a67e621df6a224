package batch

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/config"
)

type Config struct {
	DataRoot               string `json:"data_root,omitempty"`
	RetentionMinutes       int    `json:"retention_minutes,omitempty"`
	JanitorIntervalMinutes int    `json:"janitor_interval_minutes,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		DataRoot:               "./data",
		RetentionMinutes:       24 * 60,
		JanitorIntervalMinutes: 15,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "batch", "not provided", "default batch config")
		return
	}

	defaultConfig := DefaultValueConfig()
	Cfg = *localConfig

	tl.ApplyDefaults(&Cfg, defaultConfig, func(field string, defVal any) {
		tl.Log(
			tl.Info, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", config.GetPackageName(), tl.PrettyForStderr(defVal),
		)
	})

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "batch", "provided", "local batch config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
