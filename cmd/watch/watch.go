// Package watch implements the live proximity scan command.
package watch

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/shipwatch-go/internal/conf"
	"github.com/tphakala/shipwatch-go/internal/scan"
)

// Command creates the watch command: collect live position reports for the
// configured window and report vessels within the radius.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "List vessels near the reference position",
		Long:  "Listen to the live AIS position feed for the collection window and report vessels within the search radius, closest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			session := &scan.Session{
				Settings:     settings,
				LatitudeSet:  cmd.Flags().Changed("lat") || viper.InConfig("reference.latitude"),
				LongitudeSet: cmd.Flags().Changed("lon") || viper.InConfig("reference.longitude"),
				Interactive:  isatty.IsTerminal(os.Stdin.Fd()),
				In:           os.Stdin,
				Out:          os.Stdout,
				ErrOut:       os.Stderr,
			}
			return session.Run(cmd.Context())
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Fprintf(os.Stderr, "error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the watch command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().Float64Var(&settings.Watch.Radius, "radius", viper.GetFloat64("watch.radius"), "Search radius in nautical miles")
	cmd.Flags().IntVar(&settings.Watch.Collect, "collect", viper.GetInt("watch.collect"), "Seconds to listen for AIS data")
	cmd.Flags().Float64Var(&settings.Watch.Margin, "margin", viper.GetFloat64("watch.margin"), "Subscription bounding box half-width in degrees")
	cmd.Flags().BoolVar(&settings.Watch.Wide, "wide", viper.GetBool("watch.wide"), "Use the wide preset (100 NM radius, 1.0° margin)")
	cmd.Flags().StringVar(&settings.Watch.APIKey, "api-key", viper.GetString("watch.apikey"), "AIS Stream API key (or set AISSTREAM_API_KEY)")
	cmd.Flags().StringVar(&settings.Watch.URL, "url", viper.GetString("watch.url"), "AIS Stream endpoint URL")
	cmd.Flags().StringVar(&settings.Presence.Token, "gfw-token", viper.GetString("presence.token"), "Global Fishing Watch API token (optional; adds 96h vessel presence, or set GFW_API_TOKEN)")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
