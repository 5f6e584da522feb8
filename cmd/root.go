package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/shipwatch-go/cmd/presence"
	"github.com/tphakala/shipwatch-go/cmd/watch"
	"github.com/tphakala/shipwatch-go/internal/conf"
	"github.com/tphakala/shipwatch-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "shipwatch",
		Short:        "Shipwatch CLI",
		Long:         "Report AIS vessels within a radius of a reference position, from the live aisstream.io feed.",
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		watch.Command(settings),
		presence.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Flags are parsed by now; raise the log level if asked for.
		if settings.Debug {
			logging.Init(slog.LevelDebug)
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64Var(&settings.Reference.Latitude, "lat", viper.GetFloat64("reference.latitude"), "Reference latitude in decimal degrees")
	rootCmd.PersistentFlags().Float64Var(&settings.Reference.Longitude, "lon", viper.GetFloat64("reference.longitude"), "Reference longitude in decimal degrees")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
