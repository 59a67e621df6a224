package detector

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/config"
)

const (
	ProviderTesseract = "tesseract"
	ProviderHTTP      = "http"
)

type Config struct {
	Provider       string  `json:"provider,omitempty"`
	Language       string  `json:"language,omitempty"`
	MarginRatio    float64 `json:"margin_ratio,omitempty"`
	InferenceURL   string  `json:"inference_url,omitempty"`
	MinConfidence  float64 `json:"min_confidence,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Provider:       ProviderTesseract,
		Language:       "eng",
		MarginRatio:    0.02,
		InferenceURL:   "http://127.0.0.1:8503/detect",
		MinConfidence:  0.3,
		TimeoutSeconds: 30,
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "detector", "not provided", "default detector config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "detector", "provided", "local detector config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
