package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"marktime/internal/ics"
	appLog "marktime/internal/log"
	"marktime/internal/outline"
	"marktime/internal/parser"
	"marktime/internal/web"
)

var (
	prettyJSON bool
	icsName    string
	listenFlag string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|url|-]",
	Short: "Parse a document and print its timelines as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(cmd.Context(), cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		opts, err := parseOptions()
		if err != nil {
			return err
		}
		ts := parser.Parse(string(body), opts...)

		enc := json.NewEncoder(cmd.OutOrStdout())
		if prettyJSON {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(ts)
	},
}

var dateCmd = &cobra.Command{
	Use:   "date <expression>",
	Short: "Resolve a single date expression",
	Example: `  marktime date 2020-05/2021
  marktime date "3 days before 2024-01-10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseOptions()
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		dr, ok := parser.ParseDateRange(text, opts...)
		if !ok {
			return fmt.Errorf("%q is not a date expression", text)
		}
		from, to := dr.ISO()
		fmt.Fprintf(cmd.OutOrStdout(), "from:        %s\nto:          %s\ngranularity: %s\n", from, to, dr.Granularity)
		return nil
	},
}

var outlineCmd = &cobra.Command{
	Use:   "outline [file|url|-]",
	Short: "Print a document as a colored tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(cmd.Context(), cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		opts, err := parseOptions()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), outline.Render(parser.Parse(string(body), opts...)))
		return nil
	},
}

var icsCmd = &cobra.Command{
	Use:   "ics [file|url|-]",
	Short: "Export a document as iCalendar",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(cmd.Context(), cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		opts, err := parseOptions()
		if err != nil {
			return err
		}
		out, err := ics.Export(parser.Parse(string(body), opts...), ics.ExportOptions{Name: icsName})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file.ics|url|-]",
	Short: "Convert an iCalendar file into timeline markup",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(cmd.Context(), cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		text, err := ics.Import(bytes.NewReader(body), conf.Location())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the parse API and the configured documents over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenFlag != "" {
			conf.Listen = listenFlag
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		appLog.Info("marktime serving",
			"listen", conf.Listen,
			"timezone", conf.Timezone,
			"refresh", conf.RefreshCron,
			"documents", len(conf.Documents),
		)
		err := web.StartServer(ctx, conf)
		appLog.Info("marktime exiting")
		return err
	},
}

func init() {
	parseCmd.Flags().BoolVar(&prettyJSON, "pretty", false, "Indent JSON output")
	icsCmd.Flags().StringVar(&icsName, "name", "", "Calendar name (default: the document title)")
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "HTTP listen address (overrides config if set)")

	rootCmd.AddCommand(parseCmd, dateCmd, outlineCmd, icsCmd, importCmd, serveCmd)
}
