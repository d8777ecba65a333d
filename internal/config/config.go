package config

// Config is intentionally small and JSON-friendly. A file passed via
// -config unmarshals straight into it; missing fields keep zero values and
// are defaulted at startup. All fields are read once at startup and treated
// as immutable afterwards.
type Config struct {
	// Root is the directory served for browsing and download (required).
	Root string `json:"root"`

	// Addr is the listen address. Default: 0.0.0.0:3923
	Addr string `json:"addr,omitempty"`

	// StateDir stores the thumbnail cache and other small derived data.
	// Default: <root>/.fileroom
	StateDir string `json:"stateDir,omitempty"`

	// SpeedLimitEnabled turns the aggregate download bandwidth cap on.
	// When false (or Mbps is zero) downloads are unthrottled.
	SpeedLimitEnabled bool `json:"speedLimitEnabled,omitempty"`

	// SpeedLimitMbps is the sustained cap across ALL concurrent downloads
	// combined, in megabits per second.
	SpeedLimitMbps float64 `json:"speedLimitMbps,omitempty"`

	// LogLevel is a logrus level name ("debug", "info", ...). Default: info
	LogLevel string `json:"logLevel,omitempty"`
}

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "0.0.0.0:3923"

// SpeedLimitBytesPerSec derives the shared byte budget from the Mbps
// setting. 0 means unlimited and selects the limiter's disabled path.
func (c Config) SpeedLimitBytesPerSec() int64 {
	if !c.SpeedLimitEnabled || c.SpeedLimitMbps <= 0 {
		return 0
	}
	return int64(c.SpeedLimitMbps * 1024 * 1024 / 8)
}
