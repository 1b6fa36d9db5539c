package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/userreg/internal/flagx"
)

var knownFlags = []string{"-a", "-s", "-t", "-b", "-table", "-g", "-e", "-d", "-l", "-create-table"}

// parseFlags populates selected Config fields from args.
//
// Supported flags:
//
//	-a string         local HTTP bind address (e.g. ":8080")
//	-s string         token signing secret
//	-t duration       token validity (e.g. "24h")
//	-b string         store backend: dynamodb, postgres or memory
//	-table string     DynamoDB users table
//	-g string         AWS region
//	-e string         DynamoDB endpoint override
//	-d string         PostgreSQL DSN
//	-l string         log level
//	-create-table     create the DynamoDB table if missing
//
// Args not in this list are filtered out first, so entry points can define
// their own flags alongside these.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the local server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend")
	fs.StringVar(&config.UsersTable, "table", config.UsersTable, "DynamoDB users table")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.DynamoDBEndpoint, "e", config.DynamoDBEndpoint, "DynamoDB endpoint override")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.CreateTable, "create-table", config.CreateTable, "create the DynamoDB table if missing")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
