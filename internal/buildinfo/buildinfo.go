package buildinfo

import "runtime"

// Set via -ldflags "-X routeplanner/internal/buildinfo.Version=..."
var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    Commit,
		"builtAt":   BuiltAt,
		"goVersion": runtime.Version(),
	}
}

// UserAgent identifies the service to upstream providers.
func UserAgent() string {
	return "routeplanner/" + Version
}
