package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from KDAPPS_* env vars.
type baseEnv struct {
	// ConfigPath is the kdapps.yaml path from KDAPPS_CONFIG.
	ConfigPath string `env:"KDAPPS_CONFIG"`
}

// varsEnv describes override values passed via env.
type varsEnv struct {
	// Vars is a k=v,k2=v2 list from KDAPPS_VARS.
	Vars string `env:"KDAPPS_VARS"`
	// VarFile is a YAML/ENV path from KDAPPS_VAR_FILE.
	VarFile string `env:"KDAPPS_VAR_FILE"`
}

// sourceEnv selects the template source via env.
type sourceEnv struct {
	// App is the stored template id from KDAPPS_APP.
	App string `env:"KDAPPS_APP"`
}

// parseEnv fills target from KDAPPS_* env vars via caarlos0/env.
func parseEnv(target any) error {
	return envparse.Parse(target)
}

// envPresent reports whether a non-empty env var exists.
func envPresent(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}
