// Package config loads the JSON configuration file and environment.
//
// The file is an object of per-package sections:
//
//	{
//	  "batch": { "data_root": "./data" },
//	  "recognizer": { "base_url": "http://127.0.0.1:8502" }
//	}
//
// Each package owns its Config type and pulls its section with Section.
package config

import (
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

var (
	mu       sync.RWMutex
	sections = map[string]json.RawMessage{}
)

/*
CheckIfEnvVarsPresent loads a .env file from the working directory when one
exists, then exits(1) if any of the named variables is empty.
*/
func CheckIfEnvVarsPresent(envVarNames ...string) {
	loadErr := godotenv.Load()
	if loadErr != nil {
		tl.Log(tl.Verbose, palette.PurpleDim, "No %s file loaded: '%s'", ".env", loadErr)
	}

	missing := false
	for _, name := range envVarNames {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			tl.Log(tl.Warning, palette.YellowBold, "Environment variable %s is %s", name, "required")
			missing = true
		}
	}
	if missing {
		os.Exit(1)
	}
}

/*
InitializeConfig reads the configuration file at configPath.

A missing file is not an error: every package then keeps its defaults.
An unreadable or malformed file stops the program.
*/
func InitializeConfig(configPath string) {
	configBytes, readErr := os.ReadFile(configPath)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			tl.Log(tl.Notice, palette.Purple, "Config file '%s' %s, using defaults", configPath, "not found")
			return
		}
		xerr.QuitIfError(readErr, "read config file")
	}

	parsed := map[string]json.RawMessage{}
	xerr.QuitIfError(json.Unmarshal(configBytes, &parsed), "unmarshal config file")

	mu.Lock()
	sections = parsed
	mu.Unlock()

	tl.Log(tl.Info, palette.Green, "Loaded config file '%s' with '%d' sections", configPath, len(parsed))
}

// Section decodes the named section into a new T, or returns nil when the
// section is absent or malformed.
func Section[T any](name string) *T {
	mu.RLock()
	raw, ok := sections[name]
	mu.RUnlock()
	if !ok {
		return nil
	}

	var value T
	err := json.Unmarshal(raw, &value)
	if err != nil {
		tl.Log(tl.Warning, palette.Yellow, "Config section '%s' is %s: '%s'", name, "malformed", err)
		return nil
	}
	return &value
}

/*
GetPackageName returns the last path element of the calling function's
package, e.g. "batch" or "echo-middleware".
*/
func GetPackageName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}

	name := fn.Name()
	if slash := strings.LastIndex(name, "/"); slash >= 0 {
		name = name[slash+1:]
	}
	if dot := strings.Index(name, "."); dot >= 0 {
		name = name[:dot]
	}
	return name
}
