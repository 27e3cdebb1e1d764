package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistance_KnownPairs(t *testing.T) {
	cases := []struct {
		name   string
		a, b   Point
		want   float64 // meters
		within float64 // tolerance
	}{
		{
			name:   "same point",
			a:      Point{Latitude: 10.0, Longitude: 20.0},
			b:      Point{Latitude: 10.0, Longitude: 20.0},
			want:   0,
			within: 0.01,
		},
		{
			name: "one degree of latitude at the equator",
			a:    Point{Latitude: 0, Longitude: 0},
			b:    Point{Latitude: 1, Longitude: 0},
			// one degree of arc on a 6371km sphere
			want:   111195,
			within: 100,
		},
		{
			name:   "paris to london",
			a:      Point{Latitude: 48.8566, Longitude: 2.3522},
			b:      Point{Latitude: 51.5074, Longitude: -0.1278},
			want:   343550,
			within: 1000,
		},
		{
			name:   "short hop ~150m",
			a:      Point{Latitude: 10.0, Longitude: 20.0},
			b:      Point{Latitude: 10.00135, Longitude: 20.0},
			want:   150,
			within: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.a, tc.b)
			if math.Abs(got-tc.want) > tc.within {
				t.Fatalf("Distance = %.1fm, want %.1fm (±%.1f)", got, tc.want, tc.within)
			}
		})
	}
}

func TestDistance_AntipodalPoints(t *testing.T) {
	// exact antipodes land on the half-circumference, never NaN
	d := Distance(Point{Latitude: 0, Longitude: 0}, Point{Latitude: 0, Longitude: 180})
	if math.IsNaN(d) {
		t.Fatal("Distance(antipodes) = NaN")
	}
	want := math.Pi * EarthRadiusMeters
	if math.Abs(d-want) > 1000 {
		t.Fatalf("Distance(antipodes) = %.1fm, want %.1fm", d, want)
	}

	nearAntipode := Point{Latitude: -10.0, Longitude: -160.0}
	if d := Distance(Point{Latitude: 10.0, Longitude: 20.0}, nearAntipode); math.IsNaN(d) || d <= AnomalyDistanceMeters {
		t.Fatalf("Distance(near antipode) = %f, want a finite distance beyond the anomaly cutoff", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{Latitude: 39.9, Longitude: 116.4}
	b := Point{Latitude: 31.2, Longitude: 121.5}
	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 0.001 {
		t.Fatalf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestPointValid(t *testing.T) {
	valid := []Point{
		{0, 0},
		{-90, -180},
		{90, 180},
		{45.5, -120.3},
	}
	for _, p := range valid {
		if !p.Valid() {
			t.Errorf("Valid() = false for legal point %+v", p)
		}
	}

	invalid := []Point{
		{90.1, 0},
		{-91, 0},
		{0, 180.5},
		{0, -181},
	}
	for _, p := range invalid {
		if p.Valid() {
			t.Errorf("Valid() = true for illegal point %+v", p)
		}
	}
}

func TestCheck_Verdicts(t *testing.T) {
	center := Point{Latitude: 10.0, Longitude: 20.0}

	// ~150m north of center
	near := Point{Latitude: 10.00135, Longitude: 20.0}
	if v, err := Check(near, center, 200); err != nil || v != Within {
		t.Fatalf("Check(150m, radius 200) = %v, %v; want Within", v, err)
	}

	// ~800m north of center
	far := Point{Latitude: 10.0072, Longitude: 20.0}
	if v, err := Check(far, center, 200); err != nil || v != Outside {
		t.Fatalf("Check(800m, radius 200) = %v, %v; want Outside", v, err)
	}

	// exactly at the boundary counts as within
	if v, err := Check(center, center, 0); err != nil || v != Within {
		t.Fatalf("Check(0m, radius 0) = %v, %v; want Within", v, err)
	}

	// the other side of the planet
	antipode := Point{Latitude: -10.0, Longitude: -160.0}
	if v, err := Check(antipode, center, 200); err != nil || v != Anomaly {
		t.Fatalf("Check(antipode) = %v, %v; want Anomaly", v, err)
	}
}

func TestCheck_InvalidCoordinates(t *testing.T) {
	good := Point{Latitude: 10, Longitude: 20}
	bad := Point{Latitude: 95, Longitude: 20}

	if _, err := Check(bad, good, 200); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate for bad sample, got %v", err)
	}
	if _, err := Check(good, bad, 200); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate for bad center, got %v", err)
	}
}
