// Command ledgerline is a small CLI over the Ledgerline SDK: it runs guard
// approval sessions, searches the audit trail, and drives exports.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	ledgerline "github.com/ledgerline/ledgerline-go"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "ledgerline",
		Short:         "Ledgerline audit-trail CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newClient := func() (*ledgerline.Client, error) {
		cfg := ledgerline.ConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		log := hclog.NewNullLogger()
		if verbose {
			log = hclog.New(&hclog.LoggerOptions{Name: "ledgerline", Level: hclog.Debug})
		}
		return ledgerline.New(cfg, ledgerline.WithLogger(log)), nil
	}

	root.AddCommand(guardCommand(newClient))
	root.AddCommand(searchCommand(newClient))
	root.AddCommand(exportCommand(newClient))
	return root
}

func guardCommand(newClient func() (*ledgerline.Client, error)) *cobra.Command {
	var interval time.Duration
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "guard <reason>",
		Short: "Request approval for an operation and wait for the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			session, err := client.CreateSession(ctx, &ledgerline.SessionParams{Reason: args[0]}, nil)
			if err != nil {
				return err
			}
			fmt.Printf("approval requested: %s\n", session.WebURL)
			if !noBrowser && session.WebURL != "" {
				_ = browser.OpenURL(session.WebURL)
			}

			session, err = client.WaitForSession(ctx, session.ID, interval, nil)
			var sessionErr *ledgerline.SessionError
			if errors.As(err, &sessionErr) {
				return fmt.Errorf("request %s", sessionErr.Session.State)
			}
			if err != nil {
				return err
			}
			fmt.Println("approved")
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default 1s)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open the approval URL")
	return cmd
}

func searchCommand(newClient func() (*ledgerline.Client, error)) *cobra.Command {
	var perPage int

	cmd := &cobra.Command{
		Use:   "search <phrase>",
		Short: "Search audit events and print every match as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			page, err := client.SearchEvents(ctx, &ledgerline.SearchQuery{
				Phrase:  args[0],
				PerPage: perPage,
			}, nil)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			it := page.Iter(ctx)
			for {
				event, err := it.Next()
				if errors.Is(err, ledgerline.ErrDone) {
					break
				}
				if err != nil {
					return err
				}
				if err := enc.Encode(event); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d event(s) total\n", page.TotalCount())
			return nil
		},
	}
	cmd.Flags().IntVar(&perPage, "per-page", 0, "page size (max 50)")
	return cmd
}

func exportCommand(newClient func() (*ledgerline.Client, error)) *cobra.Command {
	var format, phrase string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Create an export, wait for it, and print the download URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			export, err := client.CreateExport(ctx, &ledgerline.ExportParams{
				Format: format,
				Phrase: phrase,
			}, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "export %s created, waiting\n", export.ID)

			if _, err := client.WaitForExport(ctx, export.ID, interval, nil); err != nil {
				return err
			}
			location, err := client.ExportDownloadURL(ctx, export.ID, nil)
			if err != nil {
				return err
			}
			fmt.Println(location)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format (json or csv)")
	cmd.Flags().StringVar(&phrase, "phrase", "", "restrict the export to matching events")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default 30s)")
	return cmd
}
