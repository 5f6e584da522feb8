package scan

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/tphakala/shipwatch-go/internal/geo"
)

// promptReference asks for any missing reference axis. Empty or invalid
// input falls back to the current value for that axis.
func (s *Session) promptReference(current geo.Point) geo.Point {
	reader := bufio.NewReader(s.In)

	fmt.Fprintln(s.Out, "Reference position (your vessel or waypoint). Use decimal degrees, e.g. 25.82 for 25°49'N.")
	fmt.Fprintf(s.Out, "Default: %.5f, %.5f  (press Enter to use default)\n", current.Latitude, current.Longitude)

	if !s.LatitudeSet {
		current.Latitude = s.promptAxis(reader, "Latitude", current.Latitude)
	}
	if !s.LongitudeSet {
		current.Longitude = s.promptAxis(reader, "Longitude", current.Longitude)
	}
	return current
}

func (s *Session) promptAxis(reader *bufio.Reader, label string, fallback float64) float64 {
	fmt.Fprintf(s.Out, "  %s [%.5f]: ", label, fallback)
	raw, err := reader.ReadString('\n')
	if err != nil && raw == "" {
		return fallback
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Fprintf(s.ErrOut, "  Using default %s %.5f\n", strings.ToLower(label), fallback)
		return fallback
	}
	return value
}

// promptAPIKey asks for the feed credential. An empty answer means the user
// declined.
func (s *Session) promptAPIKey() string {
	reader := bufio.NewReader(s.In)
	fmt.Fprintln(s.Out)
	fmt.Fprintln(s.Out, "You need an AIS Stream API key (free). Get one at: https://aisstream.io/apikeys")
	fmt.Fprint(s.Out, "Paste your API key here (or press Enter to exit): ")
	raw, err := reader.ReadString('\n')
	if err != nil && raw == "" {
		return ""
	}
	return strings.TrimSpace(raw)
}
