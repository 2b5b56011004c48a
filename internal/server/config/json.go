package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/habitkeeper/internal/flagx"
	"github.com/dmitrijs2005/habitkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations accept "720h" style
// strings or integer nanoseconds. Pointer and nil-able fields distinguish
// "absent" from "zero", so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn"`

	SecretKey               string          `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	SessionCookieName       string          `json:"session_cookie_name"`
	SessionCookieSecure     *bool           `json:"session_cookie_secure"`
	BcryptCost              int             `json:"bcrypt_cost"`
	LookupTimeout           *timex.Duration `json:"lookup_timeout"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
	GoogleRedirectURL  string `json:"google_redirect_url"`
	OAuthStateSecret   string `json:"oauth_state_secret"`

	RedisAddr      string `json:"redis_addr"`
	RedisPassword  string `json:"redis_password"`
	RedisDB        *int   `json:"redis_db"`
	LoginRateLimit int    `json:"login_rate_limit"`
	LoginRateBurst int    `json:"login_rate_burst"`

	AuthRoutes       []string `json:"auth_routes"`
	OnboardingRoutes []string `json:"onboarding_routes"`
	ProtectedRoutes  []string `json:"protected_routes"`
	LoginPath        string   `json:"login_path"`
	OnboardingPath   string   `json:"onboarding_path"`
	AppPath          string   `json:"app_path"`

	LogBackend     string `json:"log_backend"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
	LogOutput      string `json:"log_output"`
	LogFilePath    string `json:"log_file_path"`
	LogDevelopment *bool  `json:"log_development"`
}

// parseJson overlays values from the file named by -c/-config. Without the
// flag nothing happens. An unreadable or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)

	setString(&config.SecretKey, c.SecretKey)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	setString(&config.SessionCookieName, c.SessionCookieName)
	if c.SessionCookieSecure != nil {
		config.SessionCookieSecure = *c.SessionCookieSecure
	}
	setInt(&config.BcryptCost, c.BcryptCost)
	if c.LookupTimeout != nil {
		config.LookupTimeout = c.LookupTimeout.Duration
	}

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.GoogleRedirectURL, c.GoogleRedirectURL)
	setString(&config.OAuthStateSecret, c.OAuthStateSecret)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	setInt(&config.LoginRateLimit, c.LoginRateLimit)
	setInt(&config.LoginRateBurst, c.LoginRateBurst)

	if c.AuthRoutes != nil {
		config.AuthRoutes = c.AuthRoutes
	}
	if c.OnboardingRoutes != nil {
		config.OnboardingRoutes = c.OnboardingRoutes
	}
	if c.ProtectedRoutes != nil {
		config.ProtectedRoutes = c.ProtectedRoutes
	}
	setString(&config.LoginPath, c.LoginPath)
	setString(&config.OnboardingPath, c.OnboardingPath)
	setString(&config.AppPath, c.AppPath)

	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogOutput, c.LogOutput)
	setString(&config.LogFilePath, c.LogFilePath)
	if c.LogDevelopment != nil {
		config.LogDevelopment = *c.LogDevelopment
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
