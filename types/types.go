package types

// Config holds the connect tool configuration
type Config struct {
	Region  string `json:"region" yaml:"region"`
	Profile string `json:"profile" yaml:"profile"`
	// Plain-text echo service, e.g. https://checkip.amazonaws.com
	IPCheckURL string `json:"ipCheckUrl" yaml:"ipCheckUrl"`
	// 0 means no timeout
	IPCheckTimeoutMs int    `json:"ipCheckTimeoutMs" yaml:"ipCheckTimeoutMs"`
	KeyDir           string `json:"keyDir" yaml:"keyDir"`
	LogPath          string `json:"logPath" yaml:"logPath"`
}

// GetLogPath returns the configured log file path
func (c *Config) GetLogPath() string {
	return c.LogPath
}
