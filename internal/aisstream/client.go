// Package aisstream implements the client side of the aisstream.io live
// position-report feed: one connection, one subscription, then a bounded
// receive loop that forwards in-radius vessel observations to the caller.
package aisstream

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tphakala/shipwatch-go/internal/errors"
	"github.com/tphakala/shipwatch-go/internal/geo"
	"github.com/tphakala/shipwatch-go/internal/logging"
	"github.com/tphakala/shipwatch-go/internal/tracker"
)

// DefaultStreamURL is the production feed endpoint.
const DefaultStreamURL = "wss://stream.aisstream.io/v0/stream"

const (
	// perMessageWait bounds a single receive attempt. Hitting it is not an
	// error; the loop just re-checks the overall deadline.
	perMessageWait = 10 * time.Second

	handshakeTimeout = 10 * time.Second
)

// Package-level logger specific to the aisstream service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "aisstream.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "aisstream", serviceLevelVar)
	if err != nil {
		// Fallback: disabled logger to prevent nil panics
		log.Printf("Failed to initialize aisstream file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "aisstream")
		closeLogger = func() error { return nil }
	}
}

// Hint classifies an upstream-reported fatal error for display purposes.
type Hint int

const (
	// HintNone means the session ended without an upstream error.
	HintNone Hint = iota
	// HintCredentialRejected means the error text suggests the API key was
	// not accepted.
	HintCredentialRejected
	// HintUpstreamError covers every other upstream-reported error.
	HintUpstreamError
)

// Params describes one collection session.
type Params struct {
	Reference geo.Point
	Box       geo.BoundingBox
	RadiusNM  float64
	APIKey    string
	Collect   time.Duration
}

// SessionResult summarizes how a session ended. FatalError preserves the
// raw upstream error text when the stream rejected the session; Stopped is
// set when the caller cancelled.
type SessionResult struct {
	Observations int
	FatalError   string
	Hint         Hint
	Stopped      bool
}

// Client connects to the position-report feed. The zero value is not
// usable; construct with NewClient.
type Client struct {
	url    string
	dialer *websocket.Dialer
}

// NewClient returns a feed client for the given endpoint URL. An empty URL
// selects the production endpoint.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultStreamURL
	}
	return &Client{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Run opens the feed connection, subscribes, and pumps messages until the
// collection window elapses, the stream reports a fatal error, or ctx is
// cancelled. Each in-radius observation is passed to onObservation.
//
// A non-nil error is returned only for connectivity failures (dial or
// subscription write). Upstream-reported fatal errors and caller
// cancellation end the session early but are reported through
// SessionResult, not as a Go error.
func (c *Client) Run(ctx context.Context, params Params, onObservation func(tracker.Observation)) (SessionResult, error) {
	var result SessionResult

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if ctx.Err() != nil {
			result.Stopped = true
			return result, nil
		}
		return result, errors.New(err).
			Component("aisstream").
			Category(errors.CategoryNetwork).
			Context("url", c.url).
			Build()
	}

	sub := SubscriptionRequest{
		APIKey:             params.APIKey,
		BoundingBoxes:      [][][]float64{params.Box.Corners()},
		FilterMessageTypes: AcceptedMessageTypes,
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return result, errors.New(err).
			Component("aisstream").
			Category(errors.CategoryNetwork).
			Context("url", c.url).
			Build()
	}

	logger.Info("subscribed to position feed",
		"url", c.url,
		"radius_nm", params.RadiusNM,
		"collect", params.Collect.String())

	// Reader goroutine pumps frames into msgCh so the receive loop can
	// select across the deadline, cancellation and the idle tick. The
	// stop channel releases a reader blocked on a full msgCh.
	msgCh := make(chan []byte, 16)
	readerDone := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case msgCh <- raw:
			case <-stop:
				return
			}
		}
	}()
	defer func() {
		close(stop)
		_ = conn.Close()
		<-readerDone
	}()

	deadline := time.NewTimer(params.Collect)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("session stopped by caller", "observations", result.Observations)
			result.Stopped = true
			return result, nil

		case <-deadline.C:
			logger.Info("collection window elapsed", "observations", result.Observations)
			return result, nil

		case raw := <-msgCh:
			if fatal := c.consume(raw, params, &result, onObservation); fatal {
				return result, nil
			}

		case <-readerDone:
			// Connection dropped mid-session.
			return result, errors.Newf("position feed connection closed unexpectedly").
				Component("aisstream").
				Category(errors.CategoryNetwork).
				Context("url", c.url).
				Build()

		case <-time.After(perMessageWait):
			// No message arrived; keep waiting until the deadline fires.
		}
	}
}

// consume decodes one frame. Undecodable or irrelevant frames are dropped
// silently. Returns true when the frame carried an upstream fatal error.
func (c *Client) consume(raw []byte, params Params, result *SessionResult, onObservation func(tracker.Observation)) bool {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}

	if len(env.Error) > 0 {
		var errText string
		if err := json.Unmarshal(env.Error, &errText); err != nil {
			errText = string(env.Error)
		}
		if errText == "" {
			return false
		}
		result.FatalError = errText
		result.Hint = ClassifyError(errText)
		logger.Error("stream reported fatal error", "error", errText)
		return true
	}

	accepted := false
	for _, t := range AcceptedMessageTypes {
		if env.MessageType == t {
			accepted = true
			break
		}
	}
	if !accepted {
		return false
	}

	payloadRaw, ok := env.Message[env.MessageType]
	if !ok {
		return false
	}
	var payload positionPayload
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		return false
	}

	lat, lon := payload.Latitude, payload.Longitude
	if lat == nil || lon == nil {
		lat, lon = env.MetaData.Latitude, env.MetaData.Longitude
	}
	if lat == nil || lon == nil {
		return false
	}

	dist := geo.DistanceNM(params.Reference, geo.Point{Latitude: *lat, Longitude: *lon})
	if dist > params.RadiusNM {
		return false
	}

	mmsi := "?"
	switch {
	case payload.UserID != nil:
		mmsi = strconv.FormatInt(*payload.UserID, 10)
	case env.MetaData.MMSI != nil:
		mmsi = strconv.FormatInt(*env.MetaData.MMSI, 10)
	}

	name := strings.TrimSpace(env.MetaData.ShipName)
	if name == "" {
		name = "(no name)"
	}

	obs := tracker.Observation{
		MMSI:       mmsi,
		Name:       name,
		Latitude:   *lat,
		Longitude:  *lon,
		DistanceNM: math.Round(dist*100) / 100,
		SOG:        payload.Sog,
		COG:        payload.Cog,
		TimeUTC:    env.MetaData.TimeUTC,
	}

	result.Observations++
	onObservation(obs)
	return false
}

// ClassifyError maps upstream error text to a display hint. The feed does
// not use structured error codes, so this is a text match: anything
// mentioning the API key reads as a credential rejection.
func ClassifyError(errText string) Hint {
	lower := strings.ToLower(errText)
	if strings.Contains(lower, "api") || strings.Contains(lower, "key") || strings.Contains(lower, "invalid") {
		return HintCredentialRejected
	}
	return HintUpstreamError
}
