// Package presence implements the standalone presence lookup command.
package presence

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/shipwatch-go/internal/conf"
	"github.com/tphakala/shipwatch-go/internal/geo"
	"github.com/tphakala/shipwatch-go/internal/gfw"
	"github.com/tphakala/shipwatch-go/internal/report"
)

// Command creates the presence command: query Global Fishing Watch for
// vessel presence near the reference position over the last 96 hours,
// without opening the live feed.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Report recent vessel presence near the reference position",
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, clamped := geo.Clamp(settings.Reference.Latitude, settings.Reference.Longitude)
			if clamped {
				fmt.Fprintln(os.Stderr, "Note: Coordinates were adjusted to valid range (lat -90 to 90, lon -180 to 180).")
			}

			client := gfw.NewClient(settings.Presence.Endpoint, settings.Presence.Dataset)
			summary := client.Lookup(cmd.Context(), geo.Point{Latitude: lat, Longitude: lon}, settings.Presence.Token)
			report.WritePresence(os.Stdout, summary)
			return nil
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Fprintf(os.Stderr, "error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Presence.Token, "gfw-token", viper.GetString("presence.token"), "Global Fishing Watch API token (or set GFW_API_TOKEN)")
	cmd.Flags().StringVar(&settings.Presence.Endpoint, "endpoint", viper.GetString("presence.endpoint"), "4wings report endpoint URL")
	cmd.Flags().StringVar(&settings.Presence.Dataset, "dataset", viper.GetString("presence.dataset"), "Presence dataset identifier")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
