// Package geofence classifies a subject's proximity to an event venue.
package geofence

import "math"

// Status is the outcome of a proximity check.
type Status string

const (
	// StatusPass means the subject is within the allowed distance.
	StatusPass Status = "pass"
	// StatusFail means the subject is measurably outside the allowed distance.
	StatusFail Status = "fail"
	// StatusUnavailable means one of the coordinate pairs was not supplied.
	// Absence of signal is neutral, never a hard failure.
	StatusUnavailable Status = "unavailable"
)

// DefaultMaxKm is the default allowed distance between subject and venue.
const DefaultMaxKm = 2.0

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Result carries the classification plus the measured distance for audit
// display. DistanceKm is meaningful only when Status != StatusUnavailable.
type Result struct {
	Status     Status  `json:"status"`
	DistanceKm float64 `json:"distance_km"`
	MaxKm      float64 `json:"max_km"`
}

// Check classifies the subject's position relative to the venue. Either
// coordinate pair may be nil, which yields StatusUnavailable.
func Check(subject, venue *Coordinates, maxKm float64) Result {
	if maxKm <= 0 {
		maxKm = DefaultMaxKm
	}
	if subject == nil || venue == nil {
		return Result{Status: StatusUnavailable, MaxKm: maxKm}
	}

	d := DistanceKm(subject.Lat, subject.Lon, venue.Lat, venue.Lon)
	d = math.Round(d*100) / 100

	status := StatusPass
	if d > maxKm {
		status = StatusFail
	}
	return Result{Status: status, DistanceKm: d, MaxKm: maxKm}
}

// DistanceKm computes the great-circle distance between two points using the
// haversine formula. The atan2 form stays numerically stable for antipodal
// points where the asin form would blow up.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
