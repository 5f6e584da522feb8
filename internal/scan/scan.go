// Package scan runs one proximity scan end to end: resolve the reference
// position and credential, collect live position reports for the configured
// window, render the report, then run the optional presence lookup.
package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tphakala/shipwatch-go/internal/aisstream"
	"github.com/tphakala/shipwatch-go/internal/conf"
	"github.com/tphakala/shipwatch-go/internal/errors"
	"github.com/tphakala/shipwatch-go/internal/geo"
	"github.com/tphakala/shipwatch-go/internal/gfw"
	"github.com/tphakala/shipwatch-go/internal/logging"
	"github.com/tphakala/shipwatch-go/internal/report"
	"github.com/tphakala/shipwatch-go/internal/tracker"
)

// Session holds everything one scan needs. The cmd layer fills it from
// settings, flags and the terminal state.
type Session struct {
	Settings *conf.Settings

	// LatitudeSet and LongitudeSet report whether the reference axes were
	// given explicitly (flag, env or config file); unset axes go through
	// the interactive prompt or fall back to the built-in example position.
	LatitudeSet  bool
	LongitudeSet bool

	// Interactive is true when stdin is attached to a terminal.
	Interactive bool

	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Run executes the scan. A nil return means exit code 0 (normal completion,
// user-declined setup, or user cancellation); a non-nil return means exit
// code 1 (missing credential in a non-interactive context, connectivity
// failure, or an upstream-reported fatal error).
func (s *Session) Run(ctx context.Context) error {
	settings := s.Settings
	settings.ApplyPreset()

	ref := s.resolveReference()

	lat, lon, clamped := geo.Clamp(ref.Latitude, ref.Longitude)
	ref = geo.Point{Latitude: lat, Longitude: lon}
	if clamped && s.Interactive {
		fmt.Fprintln(s.ErrOut, "Note: Coordinates were adjusted to valid range (lat -90 to 90, lon -180 to 180).")
	}

	apiKey, declined, err := s.resolveAPIKey()
	if err != nil {
		return err
	}
	if declined {
		return nil
	}

	if s.Interactive {
		fmt.Fprintln(s.Out)
		fmt.Fprintln(s.Out, "Checking for ships near your position... (this may take up to a minute)")
		fmt.Fprintln(s.Out)
	}

	// One SIGINT means stop collecting and unwind cleanly.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	list := tracker.NewList()
	feed := aisstream.NewClient(settings.Watch.URL)
	params := aisstream.Params{
		Reference: ref,
		Box:       geo.NewBoundingBox(ref, settings.Watch.Margin),
		RadiusNM:  settings.Watch.Radius,
		APIKey:    apiKey,
		Collect:   time.Duration(settings.Watch.Collect) * time.Second,
	}

	result, err := feed.Run(ctx, params, list.Record)
	if err != nil {
		fmt.Fprintln(s.ErrOut)
		fmt.Fprintln(s.ErrOut, "Could not connect to the AIS service.")
		fmt.Fprintln(s.ErrOut, "Check your internet connection.")
		fmt.Fprintln(s.ErrOut, "If the problem continues, see https://aisstream.io for service status.")
		return err
	}

	if result.FatalError != "" {
		fmt.Fprintln(s.ErrOut)
		if result.Hint == aisstream.HintCredentialRejected {
			fmt.Fprintln(s.ErrOut, "Your API key was not accepted.")
			fmt.Fprintln(s.ErrOut, "Get a new key at: https://aisstream.io/apikeys")
		} else {
			fmt.Fprintf(s.ErrOut, "AIS Stream reported: %s\n", result.FatalError)
		}
	}

	report.Write(s.Out, report.Header{
		Reference:      ref,
		RadiusNM:       settings.Watch.Radius,
		CollectSeconds: settings.Watch.Collect,
	}, list.Snapshot())

	if result.FatalError != "" {
		return errors.Newf("position feed reported: %s", result.FatalError).
			Component("scan").
			Category(errors.CategoryNetwork).
			Build()
	}

	if result.Stopped {
		fmt.Fprintln(s.Out)
		fmt.Fprintln(s.Out, "Stopped.")
		return nil
	}

	// Secondary source, strictly after primary collection; never affects
	// the exit code.
	presence := gfw.NewClient(settings.Presence.Endpoint, settings.Presence.Dataset)
	summary := presence.Lookup(ctx, ref, settings.Presence.Token)
	report.WritePresence(s.Out, summary)

	logging.Debug("scan complete",
		"vessels", list.Count(),
		"forwarded", result.Observations,
		"presence_ok", summary.OK)

	return nil
}

// resolveReference produces the reference point from explicit settings,
// interactive prompts, or the built-in example defaults.
func (s *Session) resolveReference() geo.Point {
	ref := geo.Point{
		Latitude:  s.Settings.Reference.Latitude,
		Longitude: s.Settings.Reference.Longitude,
	}

	if s.LatitudeSet && s.LongitudeSet {
		return ref
	}

	if s.Interactive {
		return s.promptReference(ref)
	}

	if !s.LatitudeSet {
		ref.Latitude = conf.DefaultLatitude
	}
	if !s.LongitudeSet {
		ref.Longitude = conf.DefaultLongitude
	}
	return ref
}

// resolveAPIKey returns the feed credential. declined is true when an
// interactive user chose to exit at the prompt; the error covers the
// non-interactive missing-credential case.
func (s *Session) resolveAPIKey() (apiKey string, declined bool, err error) {
	apiKey = s.Settings.Watch.APIKey
	if apiKey != "" {
		return apiKey, false, nil
	}

	if s.Interactive {
		apiKey = s.promptAPIKey()
		if apiKey == "" {
			fmt.Fprintln(s.Out, "Exiting. Run the script again when you have a key.")
			return "", true, nil
		}
		return apiKey, false, nil
	}

	fmt.Fprintln(s.ErrOut, "No API key set. AIS Stream is free.")
	fmt.Fprintln(s.ErrOut, "  1. Go to https://aisstream.io and sign in (e.g. with GitHub).")
	fmt.Fprintln(s.ErrOut, "  2. Open https://aisstream.io/apikeys and create an API key.")
	fmt.Fprintln(s.ErrOut, "  3. Run again with:  --api-key YOUR_KEY   or set AISSTREAM_API_KEY")
	return "", false, errors.Newf("no AIS Stream API key configured").
		Component("scan").
		Category(errors.CategoryConfiguration).
		Build()
}
