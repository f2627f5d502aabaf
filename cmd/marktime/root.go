package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"marktime/internal/config"
	"marktime/internal/dates"
	"marktime/internal/document"
	appLog "marktime/internal/log"
	"marktime/internal/parser"
)

var (
	cfgFile  string
	logLevel string
	nowFlag  string

	// conf is loaded once flags are parsed.
	conf *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "marktime",
	Short: "Parse timeline markup into dated events",
	Long: `marktime reads line-oriented timeline documents (EDTF and casual dates,
relative dates, groups, sections and pages) and turns them into structured
timelines, iCalendar files or a small HTTP API for editors.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.LoadOrDefault(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			conf.LogLevel = logLevel
		}
		appLog.Configure(os.Stderr, appLog.Format(conf.LogFormat))
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
		appLog.Debug("effective config",
			"listen", conf.Listen,
			"timezone", conf.Timezone,
			"date_format", conf.DateFormat,
			"refresh", conf.RefreshCron,
			"documents", len(conf.Documents),
		)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, error); overrides config")
	rootCmd.PersistentFlags().StringVar(&nowFlag, "now", "", "Fixed EDTF instant used as now (default: current time)")
}

// parseOptions builds parser options from the config and --now.
func parseOptions() ([]parser.Option, error) {
	loc := conf.Location()
	opts := []parser.Option{
		parser.WithLocation(loc),
		parser.WithDateFormat(conf.Format()),
	}
	if nowFlag != "" {
		now, _, ok := dates.ParseEDTF(nowFlag, loc)
		if !ok {
			return nil, fmt.Errorf("--now %q is not an EDTF date", nowFlag)
		}
		opts = append(opts, parser.WithNow(now))
	}
	return opts, nil
}

// readInput reads a file path or URL, or stdin for "-" and no argument.
func readInput(ctx context.Context, in io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(in)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	res, err := document.NewLoader(conf.CacheDir).Load(ctx, document.Source{Name: args[0], Location: args[0]})
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}
