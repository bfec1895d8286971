package config

import "time"

// TestConfig returns a config suitable for testing. The database path is
// left for the caller to point at a temp dir.
func TestConfig() *Config {
	d := defaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:0/api",
			Timeout:   2 * time.Second,
			UserAgent: "aihub-test/1.0",
			Retries:   0,
		},
		Database: DatabaseConfig{
			Timeout: 1 * time.Second,
		},
		Cache: CacheConfig{
			TTL: time.Minute,
		},
		UI:    d.UI,
		Media: d.Media,
		Keys:  d.Keys,
		Log:   LogConfig{Level: "off"},
		Features: FeatureConfig{
			Comments: true,
			Likes:    true,
		},
	}
}
