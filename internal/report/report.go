// Package report formats the collected snapshot and the presence summary
// into the human-readable text written to stdout.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/tphakala/shipwatch-go/internal/geo"
	"github.com/tphakala/shipwatch-go/internal/gfw"
	"github.com/tphakala/shipwatch-go/internal/tracker"
)

const rule = "------------------------------------------------------------"

// Header describes the run the snapshot came from.
type Header struct {
	Reference      geo.Point
	RadiusNM       float64
	CollectSeconds int
}

// Write renders the vessel report. Observations are expected already sorted
// ascending by distance (tracker.List.Snapshot provides that ordering).
func Write(w io.Writer, h Header, observations []tracker.Observation) {
	fmt.Fprintf(w, "Reference position: %.5f, %.5f\n", h.Reference.Latitude, h.Reference.Longitude)
	fmt.Fprintf(w, "Vessels within %g NM (collected over ~%ds): %d\n", h.RadiusNM, h.CollectSeconds, len(observations))
	fmt.Fprintln(w, rule)

	if len(observations) == 0 {
		fmt.Fprintln(w, "  No vessels in range this time.")
		fmt.Fprintln(w, "  You can try a larger radius (e.g. --radius 50) or run again later.")
		return
	}

	for i := range observations {
		v := &observations[i]

		name := strings.TrimSpace(v.Name)
		if name == "" {
			name = "(no name)"
		}

		heading := "  Heading —"
		if v.COG != nil {
			heading = fmt.Sprintf("  Heading %.0f°", *v.COG)
		}
		speed := ""
		if v.SOG != nil {
			speed = fmt.Sprintf("  Speed %g kt", *v.SOG)
		}

		fmt.Fprintf(w, "  %s\n", name)
		fmt.Fprintf(w, "      %.1f NM from reference%s%s\n", v.DistanceNM, heading, speed)
		fmt.Fprintf(w, "      MMSI %s  Position: %.5f, %.5f  %s\n", v.MMSI, v.Latitude, v.Longitude, v.TimeUTC)
	}
}

// WritePresence renders the trailing presence section in one of its three
// states: skipped, errored, or counted.
func WritePresence(w io.Writer, s gfw.Summary) {
	fmt.Fprintln(w, rule)
	switch {
	case s.Skipped:
		fmt.Fprintln(w, "GFW (last 96h): skipped (no token). Get free token: https://globalfishingwatch.org/our-apis/tokens")
	case !s.OK:
		fmt.Fprintf(w, "GFW (last 96h): error — %s\n", s.Err)
	case s.Count > 0:
		fmt.Fprintf(w, "GFW (last 96h): vessel presence in area: Yes — %d vessel(s) in last 96 hours\n", s.Count)
	default:
		fmt.Fprintln(w, "GFW (last 96h): vessel presence in area: No vessels in last 96 hours")
	}
}
