package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/shipwatch-go/internal/aisstream"
	"github.com/tphakala/shipwatch-go/internal/conf"
	"github.com/tphakala/shipwatch-go/internal/errors"
	"github.com/tphakala/shipwatch-go/internal/geo"
)

var testReference = geo.Point{Latitude: 25.82392, Longitude: -15.74592}

func positionFrame(t *testing.T, mmsi int64, nmNorth float64, name string) []byte {
	t.Helper()

	frame := map[string]any{
		"MessageType": aisstream.TypePositionReport,
		"Message": map[string]any{
			aisstream.TypePositionReport: map[string]any{
				"Latitude":  testReference.Latitude + nmNorth/60.0405,
				"Longitude": testReference.Longitude,
				"UserID":    mmsi,
				"Sog":       5.0,
				"Cog":       90.0,
			},
		},
		"MetaData": map[string]any{"ShipName": name},
	}
	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	return raw
}

func newFeedServer(t *testing.T, frames [][]byte) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testSettings(url string) *conf.Settings {
	s := &conf.Settings{}
	s.Reference.Latitude = testReference.Latitude
	s.Reference.Longitude = testReference.Longitude
	s.Watch.Radius = 25
	s.Watch.Collect = 1
	s.Watch.Margin = 0.5
	s.Watch.APIKey = "test-key"
	s.Watch.URL = url
	return s
}

func newSession(settings *conf.Settings, out, errOut *bytes.Buffer) *Session {
	return &Session{
		Settings:     settings,
		LatitudeSet:  true,
		LongitudeSet: true,
		Interactive:  false,
		In:           strings.NewReader(""),
		Out:          out,
		ErrOut:       errOut,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	url := newFeedServer(t, [][]byte{
		positionFrame(t, 111000001, 10.0, "MID TWO"),
		positionFrame(t, 111000002, 1.2, "NEAR ONE"),
		positionFrame(t, 111000003, 40.0, "FAR THREE"),
	})

	var out, errOut bytes.Buffer
	session := newSession(testSettings(url), &out, &errOut)

	err := session.Run(context.Background())
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Reference position: 25.82392, -15.74592")
	assert.Contains(t, text, "Vessels within 25 NM (collected over ~1s): 2")
	assert.Contains(t, text, "NEAR ONE")
	assert.Contains(t, text, "MID TWO")
	assert.NotContains(t, text, "FAR THREE", "out-of-radius vessel must not appear")
	assert.Less(t, strings.Index(text, "NEAR ONE"), strings.Index(text, "MID TWO"),
		"closest vessel first")

	// No token configured: the presence section renders as skipped.
	assert.Contains(t, text, "GFW (last 96h): skipped (no token)")
}

func TestRun_EmptyWindow(t *testing.T) {
	url := newFeedServer(t, nil)

	var out, errOut bytes.Buffer
	session := newSession(testSettings(url), &out, &errOut)

	err := session.Run(context.Background())
	require.NoError(t, err, "an empty collection window is a normal completion")

	text := out.String()
	assert.Contains(t, text, "Vessels within 25 NM (collected over ~1s): 0")
	assert.Contains(t, text, "No vessels in range this time.")
}

func TestRun_CredentialRejected(t *testing.T) {
	url := newFeedServer(t, [][]byte{[]byte(`{"error":"Invalid API key"}`)})

	var out, errOut bytes.Buffer
	session := newSession(testSettings(url), &out, &errOut)

	err := session.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))

	assert.Contains(t, errOut.String(), "Your API key was not accepted.")
	assert.Contains(t, errOut.String(), "https://aisstream.io/apikeys")
	// The report still renders with whatever was collected before the error.
	assert.Contains(t, out.String(), "Reference position:")
	assert.NotContains(t, out.String(), "GFW (last 96h)",
		"the secondary lookup does not run after a fatal feed error")
}

func TestRun_ConnectFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	session := newSession(testSettings("ws://127.0.0.1:1"), &out, &errOut)

	err := session.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "Could not connect to the AIS service.")
}

func TestRun_MissingCredentialNonInteractive(t *testing.T) {
	settings := testSettings("ws://unused.invalid")
	settings.Watch.APIKey = ""

	var out, errOut bytes.Buffer
	session := newSession(settings, &out, &errOut)

	err := session.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Contains(t, errOut.String(), "No API key set.")
}

func TestRun_DeclinedAPIKeyPrompt(t *testing.T) {
	settings := testSettings("ws://unused.invalid")
	settings.Watch.APIKey = ""

	var out, errOut bytes.Buffer
	session := newSession(settings, &out, &errOut)
	session.Interactive = true
	session.In = strings.NewReader("\n")

	err := session.Run(context.Background())
	require.NoError(t, err, "declining the key prompt is a normal exit")
	assert.Contains(t, out.String(), "Exiting. Run the script again when you have a key.")
}

func TestRun_WidePresetApplied(t *testing.T) {
	url := newFeedServer(t, [][]byte{
		// 40 NM is outside the narrow radius but inside the wide one.
		positionFrame(t, 111000003, 40.0, "FAR THREE"),
	})

	settings := testSettings(url)
	settings.Watch.Wide = true

	var out, errOut bytes.Buffer
	session := newSession(settings, &out, &errOut)

	err := session.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Vessels within 100 NM")
	assert.Contains(t, out.String(), "FAR THREE")
}

func TestPromptReference(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLon float64
	}{
		{"explicit values", "26.5\n-16.25\n", 26.5, -16.25},
		{"empty keeps defaults", "\n\n", conf.DefaultLatitude, conf.DefaultLongitude},
		{"invalid falls back", "north\n-16.25\n", conf.DefaultLatitude, -16.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			session := &Session{
				In:     strings.NewReader(tt.input),
				Out:    &out,
				ErrOut: &errOut,
			}
			got := session.promptReference(geo.Point{
				Latitude:  conf.DefaultLatitude,
				Longitude: conf.DefaultLongitude,
			})
			assert.InDelta(t, tt.wantLat, got.Latitude, 1e-9)
			assert.InDelta(t, tt.wantLon, got.Longitude, 1e-9)
		})
	}
}

func TestResolveReference_NonInteractiveDefaults(t *testing.T) {
	settings := &conf.Settings{}
	settings.Reference.Latitude = 99 // ignored: not marked as set
	settings.Reference.Longitude = -15.0

	session := &Session{
		Settings:     settings,
		LatitudeSet:  false,
		LongitudeSet: true,
		Interactive:  false,
	}

	ref := session.resolveReference()
	assert.Equal(t, conf.DefaultLatitude, ref.Latitude)
	assert.Equal(t, -15.0, ref.Longitude)
}
