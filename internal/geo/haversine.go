// Package geo provides great-circle distance helpers.
package geo

import "math"

// EarthRadiusMiles is the mean Earth radius used for all distance calculations.
const EarthRadiusMiles = 3958.8

// Haversine returns the great-circle distance in miles between two points
// given in decimal degrees. Inputs are not range-checked; NaN propagates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// Round2 rounds a distance to 2 decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DistanceRounded is Haversine rounded with Round2.
func DistanceRounded(lat1, lng1, lat2, lng2 float64) float64 {
	return Round2(Haversine(lat1, lng1, lat2, lng2))
}

// Box is a latitude/longitude bounding box in degrees.
type Box struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

// milesPerDegreeLat is the smallest meridian degree length (at the equator),
// so dividing by it never under-sizes the box.
const milesPerDegreeLat = 68.7

// BoundingBox returns a box that contains every point within miles of
// (lat, lng). ok is false when the box would reach a pole or wrap the
// antimeridian; callers should fall back to a full scan in that case.
func BoundingBox(lat, lng, miles float64) (box Box, ok bool) {
	latDelta := miles / milesPerDegreeLat * 1.01
	maxAbsLat := math.Abs(lat) + latDelta
	if maxAbsLat >= 89 {
		return Box{}, false
	}

	lngDelta := miles / (EarthRadiusMiles * toRad(1) * math.Cos(toRad(maxAbsLat))) * 1.01
	box = Box{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
	if box.MinLng < -180 || box.MaxLng > 180 {
		return Box{}, false
	}
	return box, true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
