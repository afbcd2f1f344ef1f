package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/certportal/internal/client/cli"
	"github.com/dmitrijs2005/certportal/internal/client/config"
	"github.com/dmitrijs2005/certportal/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, cfg.SlogLevel())

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	app.Run(ctx)

}
