package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/agenda/internal/config"
	"github.com/aretw0/agenda/internal/logging"
	"github.com/spf13/cobra"
)

var (
	v       = config.New()
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Agenda is a conversational scheduling assistant",
	Long: `Agenda books meetings from plain-language messages such as
"Book a call tomorrow at 3pm", checking a calendar for availability and
suggesting the next free slot when the requested one is taken.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		level, _ := logging.ParseLevel(loaded.Log.Level)
		format, _ := logging.ParseFormat(loaded.Log.Format)

		cfg = loaded
		logger = logging.New(level, format)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ./agenda.yaml if present)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("timezone", "UTC", "IANA timezone the conversation is held in")
	flags.String("store", "memory", "Session store: memory, file, redis or sqlite")
	flags.String("store-path", "", "Directory (file) or database file (sqlite)")
	flags.String("calendar", "memory", "Calendar backend: memory or google")

	bindFlag("log.level", flags.Lookup("log-level"))
	bindFlag("log.format", flags.Lookup("log-format"))
	bindFlag("timezone", flags.Lookup("timezone"))
	bindFlag("store.driver", flags.Lookup("store"))
	bindFlag("store.path", flags.Lookup("store-path"))
	bindFlag("calendar.driver", flags.Lookup("calendar"))
}
