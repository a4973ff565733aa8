// Package config loads and validates the scraper's runtime configuration:
// delays, batch size, concurrency, smart-filter thresholds, cooldown
// bases/maxima, and export settings. Fields here must stay data, never
// constants in leaf packages, per spec's "rate-limit as data" design note.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level, merged runtime configuration.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	AntiDetect  AntiDetectConfig  `mapstructure:"anti_detect"`
	Traversal   TraversalConfig   `mapstructure:"traversal"`
	PDP         PDPConfig         `mapstructure:"pdp"`
	Tracker     TrackerConfig     `mapstructure:"tracker"`
	Export      ExportConfig      `mapstructure:"export"`
	Filter      FilterConfig      `mapstructure:"filter"`
	OutputDir   string            `mapstructure:"output_dir"`
}

// LoggingConfig mirrors the teacher's LoggingConfig/RotationConfig shape.
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// BrowserConfig configures the headless Browser Session (C6).
type BrowserConfig struct {
	Headless          bool   `mapstructure:"headless"`
	BinaryPath        string `mapstructure:"binary_path"`
	RandomizeViewport bool   `mapstructure:"randomize_viewport"`
	BlockResources    bool   `mapstructure:"block_resources"`
	EagerPageLoad     bool   `mapstructure:"eager_page_load"`
	Backend           string `mapstructure:"backend"` // "rod" (default) or "chromedp"
	ExtraHeaders      map[string]string `mapstructure:"extra_headers"`
}

// AntiDetectConfig configures the Anti-Detection Controller (C5).
type AntiDetectConfig struct {
	BaseDelayMinSeconds   float64 `mapstructure:"base_delay_min_seconds"`
	BaseDelayMaxSeconds   float64 `mapstructure:"base_delay_max_seconds"`
	LongSessionPages      int     `mapstructure:"long_session_pages"`
	LongSessionMinutes    int     `mapstructure:"long_session_minutes"`
	RecentDetectionWindow int     `mapstructure:"recent_detection_window_minutes"`
}

// TraversalConfig configures the Listing Traversal Engine (C8).
type TraversalConfig struct {
	MaxPages                  int     `mapstructure:"max_pages"`
	MaxConsecutiveFailures    int     `mapstructure:"max_consecutive_failures"`
	MinCardsPerPage           int     `mapstructure:"min_cards_per_page"`
	IncrementalStopThreshold  float64 `mapstructure:"incremental_stop_threshold"`
	IncrementalHysteresis     float64 `mapstructure:"incremental_hysteresis"`
	TopKForDateSample         int     `mapstructure:"top_k_for_date_sample"`
}

// PDPConfig configures the PDP Work Engine (C9).
type PDPConfig struct {
	BatchSize         int     `mapstructure:"batch_size"`
	Concurrency       int     `mapstructure:"concurrency"`
	MaxURLFailures    int     `mapstructure:"max_url_failures"`
	MaxRetries        int     `mapstructure:"max_retries"`
	CooldownBaseHard  int     `mapstructure:"cooldown_base_hard_seconds"`
	CooldownBaseSoft  int     `mapstructure:"cooldown_base_soft_seconds"`
	CooldownMax       int     `mapstructure:"cooldown_max_seconds"`
	SegmentCooldownBase int   `mapstructure:"segment_cooldown_base_seconds"`
	SegmentCooldownMax  int   `mapstructure:"segment_cooldown_max_seconds"`
	SegmentWaitCapSeconds int `mapstructure:"segment_wait_cap_seconds"`
	PerWorkerTimeoutSeconds int `mapstructure:"per_worker_timeout_seconds"`
	SimulateHumanGesture bool `mapstructure:"simulate_human_gesture"`
	ForceRescrape       bool  `mapstructure:"force_rescrape"`
	ResourceAware        bool  `mapstructure:"resource_aware"`
	SafetyReserveMB      int64 `mapstructure:"safety_reserve_mb"`
	SafetyThresholdMB    int64 `mapstructure:"safety_threshold_mb"`
	CPULoadThresholdPct  int   `mapstructure:"cpu_load_threshold_pct"`
}

// TrackerConfig configures the Incremental Tracker (C7) store.
type TrackerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn"`
	QualityThreshold float64 `mapstructure:"quality_threshold"`
	TTLDays          int     `mapstructure:"ttl_days"`
}

// ExportConfig configures the Exporter (C4).
type ExportConfig struct {
	Formats     []string `mapstructure:"formats"`
	MergeCSV    bool     `mapstructure:"merge_csv"`
	SQLDSN      string   `mapstructure:"sql_dsn"`
}

// FilterConfig configures the Validator's (C3) apply_filters step. All
// criteria are optional and AND-combined when set.
type FilterConfig struct {
	Enabled             bool     `mapstructure:"enabled"`
	PriceMinLac         float64  `mapstructure:"price_min_lac"`
	PriceMaxLac         float64  `mapstructure:"price_max_lac"`
	AreaMinSqft         float64  `mapstructure:"area_min_sqft"`
	AreaMaxSqft         float64  `mapstructure:"area_max_sqft"`
	PropertyTypes       []string `mapstructure:"property_types"`
	BHKValues           []string `mapstructure:"bhk_values"`
	Localities          []string `mapstructure:"localities"`
	ExcludeKeywords     []string `mapstructure:"exclude_keywords"`
}

// Load reads configPath (or searches default locations), applies defaults,
// loads a .env file if present (HEADLESS/BROWSER_BINARY_PATH/OUTPUT_DIR/
// TRACKER_DSN, per spec §6 "Environment"), and returns the merged config.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	v := viper.New()
	v.SetEnvPrefix("ESTATECRAWL")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".estatecrawl"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnvOverrides(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides honors the bare (non-prefixed) environment variables
// named explicitly in spec §6.
func applyEnvOverrides(v *viper.Viper) {
	if val, ok := os.LookupEnv("HEADLESS"); ok {
		v.Set("browser.headless", val == "1" || val == "true")
	}
	if val, ok := os.LookupEnv("BROWSER_BINARY_PATH"); ok {
		v.Set("browser.binary_path", val)
	}
	if val, ok := os.LookupEnv("OUTPUT_DIR"); ok {
		v.Set("output_dir", val)
	}
	if val, ok := os.LookupEnv("TRACKER_DSN"); ok {
		v.Set("tracker.dsn", val)
	}
}

// Validate checks that numeric ranges are sane, mirroring the teacher's
// ResourceConfig.Validate idiom.
func (c *Config) Validate() error {
	if c.Traversal.MaxPages < 1 {
		return &rangeError{"traversal.max_pages", "must be >= 1"}
	}
	if c.PDP.Concurrency < 1 {
		return &rangeError{"pdp.concurrency", "must be >= 1"}
	}
	if c.PDP.BatchSize < 1 {
		return &rangeError{"pdp.batch_size", "must be >= 1"}
	}
	if c.Tracker.QualityThreshold < 0 || c.Tracker.QualityThreshold > 100 {
		return &rangeError{"tracker.quality_threshold", "must be within 0-100"}
	}
	if c.Tracker.TTLDays < 0 {
		return &rangeError{"tracker.ttl_days", "must be >= 0"}
	}
	return nil
}

type rangeError struct {
	field  string
	reason string
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("config field %s invalid: %s", e.field, e.reason)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.randomize_viewport", true)
	v.SetDefault("browser.block_resources", true)
	v.SetDefault("browser.eager_page_load", true)
	v.SetDefault("browser.backend", "rod")

	v.SetDefault("anti_detect.base_delay_min_seconds", 2.0)
	v.SetDefault("anti_detect.base_delay_max_seconds", 5.0)
	v.SetDefault("anti_detect.long_session_pages", 40)
	v.SetDefault("anti_detect.long_session_minutes", 45)
	v.SetDefault("anti_detect.recent_detection_window_minutes", 5)

	v.SetDefault("traversal.max_pages", 20)
	v.SetDefault("traversal.max_consecutive_failures", 3)
	v.SetDefault("traversal.min_cards_per_page", 10)
	v.SetDefault("traversal.incremental_stop_threshold", 0.65)
	v.SetDefault("traversal.incremental_hysteresis", 0.35)
	v.SetDefault("traversal.top_k_for_date_sample", 20)

	v.SetDefault("pdp.batch_size", 20)
	v.SetDefault("pdp.concurrency", 1)
	v.SetDefault("pdp.max_url_failures", 3)
	v.SetDefault("pdp.max_retries", 3)
	v.SetDefault("pdp.cooldown_base_hard_seconds", 120)
	v.SetDefault("pdp.cooldown_base_soft_seconds", 45)
	v.SetDefault("pdp.cooldown_max_seconds", 900)
	v.SetDefault("pdp.segment_cooldown_base_seconds", 90)
	v.SetDefault("pdp.segment_cooldown_max_seconds", 900)
	v.SetDefault("pdp.segment_wait_cap_seconds", 15)
	v.SetDefault("pdp.per_worker_timeout_seconds", 45)
	v.SetDefault("pdp.simulate_human_gesture", false)
	v.SetDefault("pdp.force_rescrape", false)
	v.SetDefault("pdp.resource_aware", false)
	v.SetDefault("pdp.safety_reserve_mb", 512)
	v.SetDefault("pdp.safety_threshold_mb", 300)
	v.SetDefault("pdp.cpu_load_threshold_pct", 90)

	v.SetDefault("tracker.enabled", true)
	v.SetDefault("tracker.quality_threshold", 60.0)
	v.SetDefault("tracker.ttl_days", 30)

	v.SetDefault("export.formats", []string{"csv", "json"})
	v.SetDefault("export.merge_csv", false)

	v.SetDefault("output_dir", "output")
}
