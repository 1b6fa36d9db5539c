package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/userreg/internal/server"
	"github.com/dmitrijs2005/userreg/internal/server/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
)

func main() {

	// .env is optional outside of local development
	_ = godotenv.Load()

	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
