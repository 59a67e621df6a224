package recognizer

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/config"
)

const (
	ProviderHTTP   = "http"
	ProviderVision = "vision"
)

type Config struct {
	Provider              string  `json:"provider,omitempty"`
	BaseURL               string  `json:"base_url,omitempty"`
	TimeoutSeconds        int     `json:"timeout_seconds,omitempty"`
	RequestsPerSecond     float64 `json:"requests_per_second,omitempty"`
	Burst                 int     `json:"burst,omitempty"`
	VisionCredentialsFile string  `json:"vision_credentials_file,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Provider:          ProviderHTTP,
		BaseURL:           "http://127.0.0.1:8502",
		TimeoutSeconds:    60,
		RequestsPerSecond: 4,
		Burst:             2,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "recognizer", "not provided", "default recognizer config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "recognizer", "provided", "local recognizer config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
