package commands

import (
	"fmt"
	"time"

	"readshelf/internal/components/configutil"
	"readshelf/internal/components/telemetry"
	"readshelf/internal/scrapers/goodreads"
	"readshelf/internal/shelfstore"
)

const defaultSeedUrl = goodreads.DefaultBaseUrl + "/review/list/18740796-vadym-klymenko?shelf=read"

type Config struct {
	BaseUrl        string `json:"base_url"`
	SeedUrl        string `json:"seed_url"`
	ReadOutput     string `json:"read_output"`
	TopRatedOutput string `json:"top_rated_output"`

	// 0 means no limit
	MaxPages          int     `json:"max_pages"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// a go duration string, ex. "30s", empty means no timeout
	RequestTimeout          string `json:"request_timeout"`
	DisableCloudflareBypass bool   `json:"disable_cloudflare_bypass"`
	HttpDumpDir             string `json:"http_dump_dir"`

	// timezone cron specs of `schedule` are interpreted in
	Timezone string `json:"timezone"`
	LogLevel string `json:"log_level"`

	Database  shelfstore.Config `json:"database"`
	Telemetry telemetry.Config  `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		BaseUrl:        goodreads.DefaultBaseUrl,
		SeedUrl:        defaultSeedUrl,
		ReadOutput:     "data/read.json",
		TopRatedOutput: "data/top_rated.json",
		LogLevel:       "info",
	}
}

// loadConfig reads `path` and its local override, a missing file leaves the
// defaults in place.
func loadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfigOr(path, defaultConfig())
	if err != nil {
		return Config{}, err
	}
	if config.MaxPages < 0 {
		return Config{}, fmt.Errorf("max_pages must not be negative, got %d", config.MaxPages)
	}
	if config.RequestsPerSecond < 0 {
		return Config{}, fmt.Errorf("requests_per_second must not be negative, got %v", config.RequestsPerSecond)
	}
	_, err = config.requestTimeout()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) requestTimeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("parse request_timeout: %w", err)
	}
	return timeout, nil
}

func (c Config) clientOptions() (goodreads.ClientOptions, error) {
	timeout, err := c.requestTimeout()
	if err != nil {
		return goodreads.ClientOptions{}, err
	}
	opts := goodreads.ClientOptions{
		BaseUrl:                 c.BaseUrl,
		RequestsPerSecond:       c.RequestsPerSecond,
		Timeout:                 timeout,
		DisableCloudflareBypass: c.DisableCloudflareBypass,
	}
	if c.HttpDumpDir != "" {
		output, err := telemetry.NewFilesystemOutput(c.HttpDumpDir)
		if err != nil {
			return goodreads.ClientOptions{}, fmt.Errorf("create http dump dir: %w", err)
		}
		opts.Output = output
	}
	return opts, nil
}
