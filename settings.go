package gocef

// LogSeverity selects the native layer's log verbosity.
type LogSeverity string

const (
	LogSeverityDefault LogSeverity = "default"
	LogSeverityVerbose LogSeverity = "verbose"
	LogSeverityInfo    LogSeverity = "info"
	LogSeverityWarning LogSeverity = "warning"
	LogSeverityError   LogSeverity = "error"
	LogSeverityFatal   LogSeverity = "fatal"
	LogSeverityDisable LogSeverity = "disable"
)

// Settings is passed through to the native layer at startup. The fields
// mirror the native settings schema; this package does not interpret
// them beyond the sandbox toggle.
type Settings struct {
	// CachePath is where the native layer stores browser profile data.
	CachePath string
	// RootCachePath bounds all cache storage; CachePath must live under
	// it when both are set.
	RootCachePath string
	// Locale like "en-US". Empty selects the native default.
	Locale string
	// LogFile receives the native layer's log output.
	LogFile     string
	LogSeverity LogSeverity
	// ResourcesDirPath and LocalesDirPath override the bundle-relative
	// defaults; normally left empty.
	ResourcesDirPath string
	LocalesDirPath   string
	UserAgent        string
	// BackgroundColor is the ARGB color shown before a page paints.
	BackgroundColor uint32
	// RemoteDebuggingPort exposes the DevTools protocol when non-zero.
	RemoteDebuggingPort int
	// NoSandbox disables the native sandbox. Required on hosts that
	// cannot grant the sandbox helper its privileges.
	NoSandbox bool
}

const noSandboxFlag = "--no-sandbox"

// effectiveArgs computes the argument list handed to the native layer:
// the caller's list (replacing any defaults entirely), extended with the
// flags implied by Settings.
func effectiveArgs(args []string, settings Settings) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, args...)
	if settings.NoSandbox && !containsArg(out, noSandboxFlag) {
		out = append(out, noSandboxFlag)
	}
	return out
}

func containsArg(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
