// Command chemicalanalyzer serves the equipment dataset API.
//
// The config file defaults to /config/config.yaml (./config/config.yaml with
// LOCAL=true) and can be overridden with CHEMVIZ_CONFIG.
package main

import (
	"context"
	"os"
	"time"

	"github.com/likhith1253/chemicalanalyzer/internal/app"
)

// shutdownTimeout bounds the drain of in-flight uploads and insight warmups.
const shutdownTimeout = 15 * time.Second

func main() {
	var application *app.App
	if path := os.Getenv("CHEMVIZ_CONFIG"); path != "" {
		application = app.NewWithConfig(path)
	} else {
		application = app.New()
	}

	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	application.Stop(ctx)
}
