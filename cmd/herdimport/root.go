package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/herdimport/internal/client"
	"github.com/JonMunkholm/herdimport/internal/logging"
)

const (
	envServer = "HERDIMPORT_SERVER"
	envAPIKey = "HERDIMPORT_API_KEY"

	defaultServer = "http://localhost:8080"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	server   string
	apiKey   string
	logLevel string
}

func (o *options) client() *client.Client {
	return client.New(o.server, client.WithAPIKey(o.apiKey))
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "herdimport",
		Short: "Herd workbook import client",
		Long: `herdimport prepares and submits herd record workbooks.

Workbooks are checked offline against the import schemas, then analysed and
committed by the import server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}

	root.PersistentFlags().StringVar(&opts.server, "server", envOr(envServer, defaultServer),
		"import server base URL (env "+envServer+")")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv(envAPIKey),
		"API key sent as X-API-Key (env "+envAPIKey+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"log level: debug, info, warn, error")

	root.AddCommand(
		newPurposesCommand(opts),
		newTemplateCommand(),
		newExportCommand(opts),
		newCheckCommand(),
		newImportCommand(opts),
	)

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
