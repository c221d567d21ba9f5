package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/likhith1253/chemicalanalyzer/internal/app"
)

func newServeCommand() *cobra.Command {
	var (
		configPath  string
		stopTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.NewWithConfig(configPath)
			wait := application.Start()
			<-wait

			ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			application.Stop(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "./config/config.yaml", "server config file")
	cmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 10*time.Second, "graceful shutdown timeout")

	return cmd
}
