package rules

import (
	"errors"
	"math"
	"testing"
)

func TestHaversineKMKnownDistance(t *testing.T) {
	// Minsk to Brest is roughly 326 km.
	got := HaversineKM(53.9006, 27.5590, 52.0976, 23.7341)
	if got < 320 || got > 332 {
		t.Fatalf("unexpected distance: %.2f", got)
	}
}

func TestHaversineKMIsSymmetricAndZeroOnSamePoint(t *testing.T) {
	if d := HaversineKM(40.7128, -74.0060, 40.7128, -74.0060); d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}
	ab := HaversineKM(40.7128, -74.0060, 40.8, -74.1)
	ba := HaversineKM(40.8, -74.1, 40.7128, -74.0060)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "valid", lat: 53.9, lon: 27.56},
		{name: "poles", lat: -90, lon: 180},
		{name: "lat out of range", lat: 91, lon: 0, wantErr: true},
		{name: "lon out of range", lat: 0, lon: -181, wantErr: true},
		{name: "nan", lat: math.NaN(), lon: 0, wantErr: true},
		{name: "inf", lat: 0, lon: math.Inf(1), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lon)
			if tc.wantErr && !errors.Is(err, ErrInvalidCoordinates) {
				t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
