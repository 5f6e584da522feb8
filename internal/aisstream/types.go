package aisstream

import "encoding/json"

// Message types carrying position data. All three are treated as equivalent
// sources of a vessel position; Class B transponders report on the two
// variant types.
const (
	TypePositionReport = "PositionReport"
	TypeStandardClassB = "StandardClassBPositionReport"
	TypeExtendedClassB = "ExtendedClassBPositionReport"
)

// AcceptedMessageTypes is the subscription filter set.
var AcceptedMessageTypes = []string{
	TypePositionReport,
	TypeStandardClassB,
	TypeExtendedClassB,
}

// SubscriptionRequest is the one message sent after connecting. Field names
// follow the aisstream.io wire schema.
type SubscriptionRequest struct {
	APIKey             string        `json:"APIKey"`
	BoundingBoxes      [][][]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string      `json:"FilterMessageTypes"`
}

// envelope is the inbound message frame. The stream either reports an error
// or carries one typed payload under Message keyed by MessageType. Go's
// JSON field matching is case-insensitive, which also covers the "Metadata"
// spelling some frames use.
type envelope struct {
	Error       json.RawMessage            `json:"error"`
	MessageType string                     `json:"MessageType"`
	Message     map[string]json.RawMessage `json:"Message"`
	MetaData    metaData                   `json:"MetaData"`
}

// positionPayload is the typed payload of a position report. Pointer fields
// distinguish absent values from zero coordinates.
type positionPayload struct {
	Latitude  *float64 `json:"Latitude"`
	Longitude *float64 `json:"Longitude"`
	UserID    *int64   `json:"UserID"`
	Sog       *float64 `json:"Sog"`
	Cog       *float64 `json:"Cog"`
}

// metaData carries the per-frame metadata block. Coordinates here are a
// fallback when the payload omits its own.
type metaData struct {
	ShipName  string   `json:"ShipName"`
	MMSI      *int64   `json:"MMSI"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeUTC   string   `json:"time_utc"`
}
