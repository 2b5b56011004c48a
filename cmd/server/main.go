// Command server runs the habitkeeper HTTP API and gRPC health endpoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/habitkeeper/internal/server"
	"github.com/dmitrijs2005/habitkeeper/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		os.Exit(1)
	}

	app.Run(context.Background())
}
