package config

import (
	"strings"

	"github.com/dmitrijs2005/habitkeeper/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. HABITKEEPER_DATABASE_DSN.
const EnvPrefix = "HABITKEEPER"

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// parseEnv overlays every variable that is present in the environment.
// Lists are comma separated.
func parseEnv(config *Config) {
	v := newEnvViper()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	list := func(key string, dst *[]string) {
		if v.IsSet(key) {
			*dst = flagx.SplitList(v.GetString(key))
		}
	}

	str("endpoint_addr_http", &config.EndpointAddrHTTP)
	str("endpoint_addr_grpc", &config.EndpointAddrGRPC)
	str("database_dsn", &config.DatabaseDSN)
	str("secret_key", &config.SecretKey)
	if v.IsSet("session_validity_duration") {
		config.SessionValidityDuration = v.GetDuration("session_validity_duration")
	}
	str("session_cookie_name", &config.SessionCookieName)
	if v.IsSet("session_cookie_secure") {
		config.SessionCookieSecure = v.GetBool("session_cookie_secure")
	}
	if v.IsSet("bcrypt_cost") {
		config.BcryptCost = v.GetInt("bcrypt_cost")
	}
	if v.IsSet("lookup_timeout") {
		config.LookupTimeout = v.GetDuration("lookup_timeout")
	}

	str("s3_root_user", &config.S3RootUser)
	str("s3_root_password", &config.S3RootPassword)
	str("s3_bucket", &config.S3Bucket)
	str("s3_region", &config.S3Region)
	str("s3_base_endpoint", &config.S3BaseEndpoint)

	str("google_client_id", &config.GoogleClientID)
	str("google_client_secret", &config.GoogleClientSecret)
	str("google_redirect_url", &config.GoogleRedirectURL)
	str("oauth_state_secret", &config.OAuthStateSecret)

	str("redis_addr", &config.RedisAddr)
	str("redis_password", &config.RedisPassword)
	if v.IsSet("redis_db") {
		config.RedisDB = v.GetInt("redis_db")
	}
	if v.IsSet("login_rate_limit") {
		config.LoginRateLimit = v.GetInt("login_rate_limit")
	}
	if v.IsSet("login_rate_burst") {
		config.LoginRateBurst = v.GetInt("login_rate_burst")
	}

	list("auth_routes", &config.AuthRoutes)
	list("onboarding_routes", &config.OnboardingRoutes)
	list("protected_routes", &config.ProtectedRoutes)
	str("login_path", &config.LoginPath)
	str("onboarding_path", &config.OnboardingPath)
	str("app_path", &config.AppPath)

	str("log_backend", &config.LogBackend)
	str("log_level", &config.LogLevel)
	str("log_format", &config.LogFormat)
	str("log_output", &config.LogOutput)
	str("log_file_path", &config.LogFilePath)
	if v.IsSet("log_development") {
		config.LogDevelopment = v.GetBool("log_development")
	}
}
