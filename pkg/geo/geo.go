package geo

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean radius of the Earth.
const EarthRadiusMeters = 6371e3

// AnomalyDistanceMeters is the cutoff above which a measured distance is
// treated as a coordinate-data anomaly rather than a genuine position.
// Positioning providers have been observed reporting fixes up to ~1000km off.
const AnomalyDistanceMeters = 1_000_000

// ErrInvalidCoordinate indicates a latitude/longitude pair outside the legal
// range on either side of a distance check.
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// Point is a geographic coordinate in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within legal coordinate bounds.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Distance computes the haversine great-circle distance between two points
// in meters. See http://www.movable-type.co.uk/scripts/latlong.html
func Distance(a, b Point) float64 {
	lat1 := degToRad(a.Latitude)
	lat2 := degToRad(b.Latitude)
	dLat := lat2 - lat1
	dLon := degToRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h fractionally above 1 for near-antipodal points,
	// which would turn the square root NaN
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(math.Max(0, 1-h)))

	return EarthRadiusMeters * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Verdict classifies a measured distance against a trigger radius.
type Verdict int

const (
	// Within means the sample lies inside the radius.
	Within Verdict = iota
	// Outside means the sample lies beyond the radius but close enough to be
	// a genuine measurement, i.e. a false trigger.
	Outside
	// Anomaly means the distance exceeds AnomalyDistanceMeters and the
	// coordinates themselves are suspect.
	Anomaly
)

func (v Verdict) String() string {
	switch v {
	case Within:
		return "within"
	case Outside:
		return "outside"
	case Anomaly:
		return "anomaly"
	default:
		return "unknown"
	}
}

// Check validates both coordinates and classifies the distance between the
// sample and the zone center against radiusMeters.
func Check(sample, center Point, radiusMeters float64) (Verdict, error) {
	if !sample.Valid() || !center.Valid() {
		return Outside, ErrInvalidCoordinate
	}

	d := Distance(sample, center)
	switch {
	case d > AnomalyDistanceMeters:
		return Anomaly, nil
	case d > radiusMeters:
		return Outside, nil
	default:
		return Within, nil
	}
}
