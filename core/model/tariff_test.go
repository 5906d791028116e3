package model

import (
	"testing"
	"time"
)

func TestDefaultTOURateAt(t *testing.T) {
	s := DefaultTOU(0.10, 0.20, 0.35, 12)
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		hour int
		want float64
	}{
		{0, 0.10}, {6, 0.10}, {7, 0.20}, {15, 0.20},
		{16, 0.35}, {20, 0.35}, {21, 0.20}, {23, 0.20},
	}
	for _, tc := range cases {
		at := day.Add(time.Duration(tc.hour) * time.Hour)
		if got := s.RateAt(at); got != tc.want {
			t.Errorf("hour %d: rate %v, want %v", tc.hour, got, tc.want)
		}
	}
}

func TestOffPeak(t *testing.T) {
	s := DefaultTOU(0.10, 0.20, 0.35, 12)
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !s.OffPeak(day.Add(3 * time.Hour)) {
		t.Errorf("03:00 should be off-peak")
	}
	if s.OffPeak(day.Add(12 * time.Hour)) {
		t.Errorf("12:00 should not be off-peak")
	}
	if s.OffPeak(day.Add(18 * time.Hour)) {
		t.Errorf("18:00 should not be off-peak")
	}
}

func TestTariffValidate(t *testing.T) {
	good := DefaultTOU(0.10, 0.20, 0.35, 12)
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []TariffSchedule{
		{DefaultRatePerKWh: -0.1},
		{DemandChargePerKW: -1},
		{Bands: []TOUBand{{StartHour: 5, EndHour: 5, RatePerKWh: 0.1}}},
		{Bands: []TOUBand{{StartHour: -1, EndHour: 5, RatePerKWh: 0.1}}},
		{Bands: []TOUBand{{StartHour: 0, EndHour: 25, RatePerKWh: 0.1}}},
		{Bands: []TOUBand{{StartHour: 0, EndHour: 5, RatePerKWh: -0.1}}},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestWindowKey(t *testing.T) {
	a := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	b := time.Date(2025, 1, 16, 10, 0, 0, 0, time.UTC)
	c := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	monthly := TariffSchedule{Window: WindowMonthly}
	if monthly.WindowKey(a) != monthly.WindowKey(b) {
		t.Errorf("monthly: same month should share a key")
	}
	if monthly.WindowKey(a) == monthly.WindowKey(c) {
		t.Errorf("monthly: different months should not share a key")
	}

	daily := TariffSchedule{Window: WindowDaily}
	if daily.WindowKey(a) == daily.WindowKey(b) {
		t.Errorf("daily: different days should not share a key")
	}
}

func TestParseBillingWindow(t *testing.T) {
	if w, err := ParseBillingWindow(""); err != nil || w != WindowMonthly {
		t.Fatalf("empty string: got %v err %v", w, err)
	}
	if w, err := ParseBillingWindow("daily"); err != nil || w != WindowDaily {
		t.Fatalf("daily: got %v err %v", w, err)
	}
	if _, err := ParseBillingWindow("weekly"); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}
