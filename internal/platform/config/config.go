package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every policy knob for the verification core. Defaults match
// the deployed policy; all values can be overridden through EVENTLENS_*
// environment variables or an optional config file.
type Config struct {
	Addr string

	// Verification policy
	ConfidenceThreshold int
	MaxUploadBytes      int64
	GeofenceMaxKm       float64

	// Capability tokens
	VerifySecret string
	TokenTTL     time.Duration

	// Rate governor
	RateLimitRequests int
	RateLimitWindow   time.Duration
	GlobalRatePerSec  float64
	GlobalRateBurst   int

	// Vision judgment
	VisionAPIKey  string
	VisionBaseURL string
	VisionModel   string
	VisionTimeout time.Duration
	VerdictTTL    time.Duration

	// Admin
	AdminPassword    string
	AdminTokenSecret string
	AdminTokenTTL    time.Duration

	// Storage
	DataDir string
}

// Load builds the configuration from environment variables (EVENTLENS_ prefix)
// and an optional config file path. Missing keys fall back to defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("confidence_threshold", 80)
	v.SetDefault("max_upload_bytes", int64(10<<20))
	v.SetDefault("geofence_max_km", 2.0)
	v.SetDefault("token_ttl", "600s")
	v.SetDefault("rate_limit_requests", 30)
	v.SetDefault("rate_limit_window", "60s")
	v.SetDefault("global_rate_per_sec", 100.0)
	v.SetDefault("global_rate_burst", 200)
	v.SetDefault("vision_model", "gpt-4o-mini")
	v.SetDefault("vision_timeout", "30s")
	v.SetDefault("verdict_ttl", "10m")
	v.SetDefault("admin_token_ttl", "24h")
	v.SetDefault("data_dir", "data")

	v.SetEnvPrefix("EVENTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Addr:                v.GetString("addr"),
		ConfidenceThreshold: v.GetInt("confidence_threshold"),
		MaxUploadBytes:      v.GetInt64("max_upload_bytes"),
		GeofenceMaxKm:       v.GetFloat64("geofence_max_km"),
		VerifySecret:        v.GetString("verify_secret"),
		TokenTTL:            v.GetDuration("token_ttl"),
		RateLimitRequests:   v.GetInt("rate_limit_requests"),
		RateLimitWindow:     v.GetDuration("rate_limit_window"),
		GlobalRatePerSec:    v.GetFloat64("global_rate_per_sec"),
		GlobalRateBurst:     v.GetInt("global_rate_burst"),
		VisionAPIKey:        v.GetString("vision_api_key"),
		VisionBaseURL:       v.GetString("vision_base_url"),
		VisionModel:         v.GetString("vision_model"),
		VisionTimeout:       v.GetDuration("vision_timeout"),
		VerdictTTL:          v.GetDuration("verdict_ttl"),
		AdminPassword:       v.GetString("admin_password"),
		AdminTokenSecret:    v.GetString("admin_token_secret"),
		AdminTokenTTL:       v.GetDuration("admin_token_ttl"),
		DataDir:             v.GetString("data_dir"),
	}

	if cfg.VerifySecret == "" {
		// Dev fallback so the server can boot locally. Production deploys
		// must set EVENTLENS_VERIFY_SECRET.
		cfg.VerifySecret = "dev-verify-secret-change-in-production"
	}
	if cfg.AdminTokenSecret == "" {
		cfg.AdminTokenSecret = "dev-admin-secret-change-in-production"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "dev-admin-password"
	}

	return cfg, nil
}
