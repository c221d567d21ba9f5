// Package cli implements chemvizctl, the command line client of the
// chemical equipment analyzer. Server-bound commands use the REST API; the
// analyze command runs the ingestion pipeline locally.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgconfig"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkglog"
)

const defaultServer = "http://localhost:8000"

// Options are the injectable dependencies of the command tree.
type Options struct {
	FS         afero.Fs
	HTTPClient *http.Client
	Out        io.Writer
	ErrOut     io.Writer
	In         io.Reader
}

type runtime struct {
	fs         afero.Fs
	v          *viper.Viper
	httpClient *http.Client
}

// Execute is the entry point called by main.main().
func Execute() {
	root := NewRootCommand(Options{})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}

	rt := &runtime{fs: opts.FS, v: viper.New(), httpClient: opts.HTTPClient}
	rt.v.SetEnvPrefix(pkgconfig.EnvPrefix)
	rt.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	rt.v.AutomaticEnv()
	rt.v.SetDefault("server", defaultServer)
	rt.v.SetDefault("output", "json")

	root := &cobra.Command{
		Use:           "chemvizctl",
		Short:         "Chemical equipment analyzer client",
		Long:          "chemvizctl uploads equipment CSV files, inspects their statistics, downloads PDF reports and runs the API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if rt.v.GetBool("debug") {
				level = slog.LevelDebug
			}
			pkglog.Setup(cmd.ErrOrStderr(), level)
		},
	}

	if opts.Out != nil {
		root.SetOut(opts.Out)
	}
	if opts.ErrOut != nil {
		root.SetErr(opts.ErrOut)
	}
	if opts.In != nil {
		root.SetIn(opts.In)
	}

	flags := root.PersistentFlags()
	flags.String("server", defaultServer, "API base URL (env CHEMVIZ_SERVER)")
	flags.String("token", "", "API token; defaults to the saved login (env CHEMVIZ_TOKEN)")
	flags.StringP("output", "o", "json", "output format: json|yaml")
	flags.String("home", "", "directory for saved credentials (default ~/.chemviz, env CHEMVIZ_HOME)")
	flags.Bool("debug", false, "enable debug logging")
	for _, name := range []string{"server", "token", "output", "home", "debug"} {
		_ = rt.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newServeCommand(),
		newAnalyzeCommand(rt),
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newUploadCommand(rt),
		newDatasetsCommand(rt),
		newDeleteCommand(rt),
		newReportCommand(rt),
		newDownloadCommand(rt),
		newInsightsCommand(rt),
	)

	return root
}

func (rt *runtime) homeDir() (string, error) {
	if dir := rt.v.GetString("home"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chemviz"), nil
}

func (rt *runtime) server() string {
	return rt.v.GetString("server")
}

// client builds an API client. An explicit token wins over the saved one.
func (rt *runtime) client() (*Client, error) {
	token := rt.v.GetString("token")
	if token == "" {
		creds, err := rt.loadCredentials()
		if err != nil {
			return nil, err
		}
		token = creds.Token
	}
	if token == "" {
		return nil, fmt.Errorf("not logged in: run `chemvizctl login` or pass --token")
	}

	return NewClient(rt.server(), token, rt.httpClient), nil
}
