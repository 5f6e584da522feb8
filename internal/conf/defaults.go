package conf

import (
	"github.com/spf13/viper"

	"github.com/tphakala/shipwatch-go/internal/aisstream"
	"github.com/tphakala/shipwatch-go/internal/gfw"
)

// setDefaultConfig sets the default values for each configuration
// parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("reference.latitude", DefaultLatitude)
	viper.SetDefault("reference.longitude", DefaultLongitude)

	viper.SetDefault("watch.radius", NarrowRadiusNM)
	viper.SetDefault("watch.collect", 60)
	viper.SetDefault("watch.margin", NarrowMarginDeg)
	viper.SetDefault("watch.wide", false)
	viper.SetDefault("watch.apikey", "")
	viper.SetDefault("watch.url", aisstream.DefaultStreamURL)

	viper.SetDefault("presence.token", "")
	viper.SetDefault("presence.endpoint", gfw.DefaultEndpoint)
	viper.SetDefault("presence.dataset", gfw.DefaultDataset)
}
