package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vegasq/insight/output"
	"github.com/vegasq/insight/query"
	"github.com/vegasq/insight/schema"
	"github.com/vegasq/insight/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			srv := server.New(a.store, a.loader(), a.engine(), reg, a.logger)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return srv.Run(ctx, a.cfg.Server.Addr())
		},
	}
}

func newQueryCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "query <file|->",
		Short: "Run a JSON query document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := a.engine().ExecuteJSON(cmd.Context(), doc)
			if err != nil {
				return fmt.Errorf("%s: %w", query.Kind(err), err)
			}
			return f.Format(res.Rows, res.Columns)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Output format: jsonl, csv, table")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <kind> <archive.zip>",
		Short: "Ingest an archive as a new dataset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := schema.ParseKind(args[1])
			if err != nil {
				return err
			}
			content, err := readInput(cmd, args[2])
			if err != nil {
				return err
			}
			ds, err := a.loader().Load(cmd.Context(), args[0], kind, content)
			if err != nil {
				return err
			}
			ids, err := a.store.Add(cmd.Context(), ds)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			infos, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]map[string]interface{}, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, map[string]interface{}{
					"id":      info.ID,
					"kind":    string(info.Kind),
					"numRows": info.NumRows,
				})
			}
			return f.Format(rows, []string{"id", "kind", "numRows"})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: jsonl, csv, table")
	return cmd
}
