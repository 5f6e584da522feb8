// Package geo provides the spherical distance and bounding box math used to
// relate AIS position reports to a reference position.
package geo

import "math"

const (
	// earthRadiusM is the mean Earth radius used by the haversine formula.
	earthRadiusM = 6371000.0

	// metersToNM converts meters to nautical miles.
	metersToNM = 0.000539957
)

// Point is a position in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// BoundingBox is a rectangular region described by its southwest and
// northeast corners.
type BoundingBox struct {
	SouthWest Point
	NorthEast Point
}

// DistanceNM returns the great-circle distance between two points in
// nautical miles. Identical points yield exactly 0.
func DistanceNM(a, b Point) float64 {
	if a == b {
		return 0
	}

	phi1 := toRad(a.Latitude)
	phi2 := toRad(b.Latitude)
	dPhi := toRad(b.Latitude - a.Latitude)
	dLam := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLam/2)*math.Sin(dLam/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c * metersToNM
}

// Clamp forces latitude into [-90, 90] and longitude into [-180, 180].
// The returned bool reports whether either axis was adjusted.
func Clamp(lat, lon float64) (clampedLat, clampedLon float64, clamped bool) {
	clampedLat = math.Max(-90, math.Min(90, lat))
	clampedLon = math.Max(-180, math.Min(180, lon))
	return clampedLat, clampedLon, clampedLat != lat || clampedLon != lon
}

// NewBoundingBox returns a box centered on center and expanded by marginDeg
// in each direction. Each edge is clamped to the valid coordinate range
// independently; longitude wraparound across the antimeridian is not
// handled.
func NewBoundingBox(center Point, marginDeg float64) BoundingBox {
	swLat, swLon, _ := Clamp(center.Latitude-marginDeg, center.Longitude-marginDeg)
	neLat, neLon, _ := Clamp(center.Latitude+marginDeg, center.Longitude+marginDeg)
	return BoundingBox{
		SouthWest: Point{Latitude: swLat, Longitude: swLon},
		NorthEast: Point{Latitude: neLat, Longitude: neLon},
	}
}

// Corners returns the box in the [[lat_sw, lon_sw], [lat_ne, lon_ne]] form
// the AIS subscription message expects.
func (b BoundingBox) Corners() [][]float64 {
	return [][]float64{
		{b.SouthWest.Latitude, b.SouthWest.Longitude},
		{b.NorthEast.Latitude, b.NorthEast.Longitude},
	}
}

// PolygonRing returns a closed GeoJSON exterior ring (first point repeated
// last, [lon, lat] order) for the box of marginDeg around center.
func PolygonRing(center Point, marginDeg float64) [][]float64 {
	box := NewBoundingBox(center, marginDeg)
	minLat, minLon := box.SouthWest.Latitude, box.SouthWest.Longitude
	maxLat, maxLon := box.NorthEast.Latitude, box.NorthEast.Longitude
	return [][]float64{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
