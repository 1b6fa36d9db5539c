package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/userreg/internal/cli"
	"github.com/dmitrijs2005/userreg/internal/server"
	"github.com/dmitrijs2005/userreg/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	_ = godotenv.Load()

	configArgs, cmdArgs := cli.SplitCommand(os.Args[1:])

	ctx := context.Background()
	cfg, err := config.LoadConfig(configArgs)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	code := cli.NewApp(app, os.Stdin, os.Stdout).Run(ctx, cmdArgs)
	_ = app.Close()
	os.Exit(code)

}
