package report

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/config"
)

type Config struct {
	FileName          string            `json:"file_name,omitempty"`
	SheetName         string            `json:"sheet_name,omitempty"`
	UnknownMarker     string            `json:"unknown_marker,omitempty"`
	SexLabels         map[string]string `json:"sex_labels,omitempty"`
	NationalityLabels map[string]string `json:"nationality_labels,omitempty"`
	AlignedColor      string            `json:"aligned_color,omitempty"`
	AmbiguousColor    string            `json:"ambiguous_color,omitempty"`
	InvalidColor      string            `json:"invalid_color,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		FileName:      "ocr_result.xlsx",
		SheetName:     "result",
		UnknownMarker: "UNKNOWN",
		SexLabels: map[string]string{
			"M": "Male",
			"F": "Female",
			"X": "Unspecified",
			"<": "Unspecified",
		},
		NationalityLabels: map[string]string{
			"VNM": "Vietnam",
			"USA": "United States",
			"GBR": "United Kingdom",
			"D":   "Germany",
			"FRA": "France",
			"JPN": "Japan",
			"KOR": "Korea, Republic of",
			"CHN": "China",
			"UTO": "Utopia",
		},
		AlignedColor:   "#FFF2CC",
		AmbiguousColor: "#FCE4D6",
		InvalidColor:   "#F8CBAD",
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "report", "not provided", "default report config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "report", "provided", "local report config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", config.GetPackageName()), Cfg)
}
