// Command insight manages course and room datasets and answers JSON queries
// over them, from the command line or over HTTP.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/ingest"
	"github.com/vegasq/insight/internal/config"
	"github.com/vegasq/insight/internal/logging"
	"github.com/vegasq/insight/query"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds what every subcommand builds from the resolved configuration.
type app struct {
	cfg    config.Config
	logger log.Logger
	store  *dataset.Store
}

func (a *app) loader() *ingest.Loader {
	geo := ingest.NewHTTPGeocoder(a.cfg.Geocoder.URL, a.cfg.Geocoder.Timeout)
	return ingest.NewLoader(geo, a.cfg.Geocoder.Concurrency, a.logger)
}

func (a *app) engine() *query.Engine {
	return query.NewEngine(a.store, query.Limits{
		MaxResultRows:  a.cfg.Query.MaxResultRows,
		MaxFilterDepth: a.cfg.Query.MaxFilterDepth,
	}, a.logger)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configFile string

	fs := flag.NewFlagSet("insight", flag.ContinueOnError)
	a.cfg.RegisterFlags(fs)
	fs.StringVar(&configFile, "config.file", "", "YAML configuration file.")

	root := &cobra.Command{
		Use:           "insight",
		Short:         "Query course and room datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Parse(&a.cfg, fs, configFile, cmd.Flags().Changed); err != nil {
				return err
			}
			return a.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().AddGoFlagSet(fs)

	root.AddCommand(
		newServeCmd(a),
		newQueryCmd(a),
		newAddCmd(a),
		newRemoveCmd(a),
		newListCmd(a),
	)
	return root
}

func (a *app) init(logOut io.Writer) error {
	logger, err := logging.New(logOut, a.cfg.Log.Level, a.cfg.Log.Format)
	if err != nil {
		return err
	}
	dir, err := dataset.NewParquetDir(a.cfg.Storage.Dir)
	if err != nil {
		return err
	}
	a.logger = logger
	a.store = dataset.NewStore(dir, logger)
	return nil
}

// readInput reads the named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

