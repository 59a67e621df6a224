package server

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/config"
)

type Config struct {
	MaxFilesPerUpload       int `json:"max_files_per_upload,omitempty"`
	MaxUploadMB             int `json:"max_upload_mb,omitempty"`
	PreflightTimeoutSeconds int `json:"preflight_timeout_seconds,omitempty"`
	ShutdownTimeoutSeconds  int `json:"shutdown_timeout_seconds,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		MaxFilesPerUpload:       30,
		MaxUploadMB:             256,
		PreflightTimeoutSeconds: 5,
		ShutdownTimeoutSeconds:  30,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "server", "not provided", "default server config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "server", "provided", "local server config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
