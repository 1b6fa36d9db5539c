package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays environment variables. Lambda functions receive their
// settings this way. Unparsable numeric values are ignored.
//
//	HTTP_ADDR, SECRET_KEY, SECRET_KEY_S3_URI, TOKEN_VALIDITY, PASSWORD_HASH_COST,
//	STORE_BACKEND, USERS_TABLE, AWS_REGION, AWS_ACCESS_KEY_ID,
//	AWS_SECRET_ACCESS_KEY, DYNAMODB_ENDPOINT, S3_BASE_ENDPOINT, CREATE_TABLE,
//	DATABASE_DSN, LOG_BACKEND, LOG_LEVEL, LOG_FORMAT
func parseEnv(config *Config) {
	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.SecretKey, "SECRET_KEY")
	envString(&config.SecretKeyS3URI, "SECRET_KEY_S3_URI")
	envDuration(&config.TokenValidityDuration, "TOKEN_VALIDITY")
	envInt(&config.PasswordHashCost, "PASSWORD_HASH_COST")
	envString(&config.StoreBackend, "STORE_BACKEND")
	envString(&config.UsersTable, "USERS_TABLE")
	envString(&config.AWSRegion, "AWS_REGION")
	envString(&config.AWSAccessKeyID, "AWS_ACCESS_KEY_ID")
	envString(&config.AWSSecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	envString(&config.DynamoDBEndpoint, "DYNAMODB_ENDPOINT")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.LogBackend, "LOG_BACKEND")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.LogFormat, "LOG_FORMAT")

	if v, ok := os.LookupEnv("CREATE_TABLE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.CreateTable = b
		}
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
