package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/userreg/internal/flagx"
	"github.com/dmitrijs2005/userreg/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "24h"-style strings or integer nanoseconds. Absent fields leave the
// current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	SecretKey             string         `json:"secret_key"`
	SecretKeyS3URI        string         `json:"secret_key_s3_uri"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	PasswordHashCost      int            `json:"password_hash_cost"`
	StoreBackend          string         `json:"store_backend"`
	UsersTable            string         `json:"users_table"`
	AWSRegion             string         `json:"aws_region"`
	AWSAccessKeyID        string         `json:"aws_access_key_id"`
	AWSSecretAccessKey    string         `json:"aws_secret_access_key"`
	DynamoDBEndpoint      string         `json:"dynamodb_endpoint"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	CreateTable           *bool          `json:"create_table"`
	DatabaseDSN           string         `json:"database_dsn"`
	LogBackend            string         `json:"log_backend"`
	LogLevel              string         `json:"log_level"`
	LogFormat             string         `json:"log_format"`
	RateLimitRPS          float64        `json:"rate_limit_rps"`
	RateLimitBurst        int            `json:"rate_limit_burst"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
}

// parseJson overlays the file named by -c/-config (or $CONFIG) onto config.
// No file configured is not an error; an unreadable or invalid file is.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SecretKeyS3URI, c.SecretKeyS3URI)
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.PasswordHashCost != 0 {
		config.PasswordHashCost = c.PasswordHashCost
	}
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.UsersTable, c.UsersTable)
	setString(&config.AWSRegion, c.AWSRegion)
	setString(&config.AWSAccessKeyID, c.AWSAccessKeyID)
	setString(&config.AWSSecretAccessKey, c.AWSSecretAccessKey)
	setString(&config.DynamoDBEndpoint, c.DynamoDBEndpoint)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.CreateTable != nil {
		config.CreateTable = *c.CreateTable
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.RateLimitRPS != 0 {
		config.RateLimitRPS = c.RateLimitRPS
	}
	if c.RateLimitBurst != 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
