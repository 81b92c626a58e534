package utils

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestDistance(t *testing.T) {
	pune := Coordinate{Lat: 18.76328, Lng: 73.6990708}
	delhi := Coordinate{Lat: 28.7041, Lng: 77.1025}

	tests := []struct {
		name      string
		a, b      Coordinate
		expected  float64
		tolerance float64
	}{
		{"same point is zero", pune, pune, 0, 0},
		{"origin to itself", Coordinate{}, Coordinate{}, 0, 0},
		{"pune to delhi golden value", pune, delhi, 1158178.33, 1},
		{"one degree of longitude on the equator", Coordinate{0, 0}, Coordinate{0, 1}, 111195, 1},
		{"one degree of latitude", Coordinate{0, 0}, Coordinate{1, 0}, 111195, 1},
		{"antipodal points", Coordinate{0, 0}, Coordinate{0, 180}, math.Pi * EarthRadiusMeters, 1},
		{"pole to pole", Coordinate{90, 0}, Coordinate{-90, 0}, math.Pi * EarthRadiusMeters, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("Distance(%v, %v) = %.2f, expected %.2f ± %.2f",
					tt.a, tt.b, got, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	points := []Coordinate{
		{18.76328, 73.6990708},
		{28.7041, 77.1025},
		{10.0261, 76.3125},
		{22.5726, 88.3639},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{0, 0},
		{89.9, -179.9},
	}

	for _, a := range points {
		for _, b := range points {
			ab := Distance(a, b)
			ba := Distance(b, a)
			if ab != ba {
				t.Errorf("Distance not symmetric for %v and %v: %v != %v", a, b, ab, ba)
			}
			if ab < 0 {
				t.Errorf("Distance(%v, %v) is negative: %v", a, b, ab)
			}
		}
		if d := Distance(a, a); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, expected 0", a, a, d)
		}
	}
}

func TestNewCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"valid point", 18.76, 73.69, false},
		{"north pole", 90, 0, false},
		{"south west corner", -90, -180, false},
		{"latitude too high", 90.0001, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"longitude too low", 0, -181, true},
		{"nan latitude", math.NaN(), 0, true},
		{"infinite longitude", 0, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCoordinate(tt.lat, tt.lng)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCoordinate(%v, %v) error = %v, wantErr %v", tt.lat, tt.lng, err, tt.wantErr)
			}
			if !tt.wantErr && (c.Lat != tt.lat || c.Lng != tt.lng) {
				t.Errorf("NewCoordinate(%v, %v) = %v", tt.lat, tt.lng, c)
			}
		})
	}
}

func TestCoordinatePointRoundTrip(t *testing.T) {
	c := Coordinate{Lat: 22.5726, Lng: 88.3639}
	p := c.Point()
	if p != (orb.Point{88.3639, 22.5726}) {
		t.Fatalf("Point() = %v, expected lon/lat order", p)
	}
	if back := FromPoint(p); back != c {
		t.Errorf("FromPoint(Point()) = %v, expected %v", back, c)
	}
}

func BenchmarkDistance(b *testing.B) {
	a := Coordinate{18.76328, 73.6990708}
	c := Coordinate{28.7041, 77.1025}
	for i := 0; i < b.N; i++ {
		Distance(a, c)
	}
}
