package service

import (
	"math"
	"testing"

	"ridepay/internal/domain"
)

func TestHaversine(t *testing.T) {
	t.Parallel()

	if d := Haversine(14.6, 121.0, 14.6, 121.0); d != 0 {
		t.Errorf("expected 0 for same point, got %v", d)
	}

	ab := Haversine(14.6, 121.0, 14.7, 121.1)
	ba := Haversine(14.7, 121.1, 14.6, 121.0)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("expected symmetric distance, got %v and %v", ab, ba)
	}
	if math.Abs(ab-15.47) > 0.01 {
		t.Errorf("expected about 15.47 km, got %v", ab)
	}

	// One degree of longitude on the equator.
	if d := Haversine(0, 0, 0, 1); math.Abs(d-111.19) > 0.01 {
		t.Errorf("expected about 111.19 km, got %v", d)
	}
}

func TestDistanceFare(t *testing.T) {
	t.Parallel()

	tariff := domain.DistanceTariff{BaseFare: 10, TierDistance: 2, TierFare: 5}

	tests := []struct {
		km   float64
		want float64
	}{
		{0, 10},
		{1.5, 10},
		{2, 10},
		{2.01, 15},
		{4, 15},
		{4.0001, 20},
		{6, 20},
		{15.47, 45},
	}

	for _, tt := range tests {
		if got := DistanceFare(tariff, tt.km); got != tt.want {
			t.Errorf("DistanceFare(%v): expected %v, got %v", tt.km, tt.want, got)
		}
	}

	prev := 0.0
	for km := 0.0; km < 30; km += 0.25 {
		fare := DistanceFare(tariff, km)
		if fare < prev {
			t.Fatalf("fare decreased at %v km: %v < %v", km, fare, prev)
		}
		prev = fare
	}
}

func TestRoundKmAndCoordinates(t *testing.T) {
	t.Parallel()

	if got := RoundKm(15.4718); got != 15.5 {
		t.Errorf("expected 15.5, got %v", got)
	}
	if !validCoordinates(-90, 180) {
		t.Error("expected boundary coordinates to be valid")
	}
	if validCoordinates(91, 0) || validCoordinates(0, -181) || validCoordinates(math.NaN(), 0) {
		t.Error("expected out-of-range coordinates to be invalid")
	}
}
