package model

import (
	"fmt"
	"time"
)

// BillingWindow determines how often the demand-charge peak resets.
type BillingWindow int

const (
	// WindowMonthly resets the demand-charge peak at month boundaries.
	WindowMonthly BillingWindow = iota
	// WindowDaily resets the demand-charge peak at midnight.
	WindowDaily
)

// String returns the window name used in configuration files.
func (w BillingWindow) String() string {
	if w == WindowDaily {
		return "daily"
	}
	return "monthly"
}

// ParseBillingWindow converts a configuration string into a BillingWindow.
func ParseBillingWindow(s string) (BillingWindow, error) {
	switch s {
	case "", "monthly":
		return WindowMonthly, nil
	case "daily":
		return WindowDaily, nil
	default:
		return WindowMonthly, fmt.Errorf("unknown billing window: %q", s)
	}
}

// TOUBand is a time-of-day window [StartHour, EndHour) with an energy rate.
type TOUBand struct {
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	RatePerKWh float64 `json:"rate_per_kwh"`
}

// TariffSchedule is an immutable time-of-use rate table plus a demand charge
// billed on the peak grid draw within each billing window.
type TariffSchedule struct {
	Bands             []TOUBand     `json:"bands"`
	DefaultRatePerKWh float64       `json:"default_rate_per_kwh"`
	DemandChargePerKW float64       `json:"demand_charge_per_kw"`
	Window            BillingWindow `json:"-"`
}

// DefaultTOU returns the canonical three-band schedule: off-peak 00:00-07:00,
// peak 16:00-21:00, shoulder elsewhere.
func DefaultTOU(offpeak, shoulder, peak, demandChargePerKW float64) TariffSchedule {
	return TariffSchedule{
		Bands: []TOUBand{
			{StartHour: 0, EndHour: 7, RatePerKWh: offpeak},
			{StartHour: 16, EndHour: 21, RatePerKWh: peak},
		},
		DefaultRatePerKWh: shoulder,
		DemandChargePerKW: demandChargePerKW,
		Window:            WindowMonthly,
	}
}

// Validate rejects negative rates and malformed band windows.
func (s TariffSchedule) Validate() error {
	if s.DefaultRatePerKWh < 0 {
		return fmt.Errorf("default_rate_per_kwh must not be negative, got %v", s.DefaultRatePerKWh)
	}
	if s.DemandChargePerKW < 0 {
		return fmt.Errorf("demand_charge_per_kw must not be negative, got %v", s.DemandChargePerKW)
	}
	for i, b := range s.Bands {
		if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 1 || b.EndHour > 24 {
			return fmt.Errorf("bands[%d]: hours must lie within a day, got [%d, %d)", i, b.StartHour, b.EndHour)
		}
		if b.StartHour >= b.EndHour {
			return fmt.Errorf("bands[%d]: start_hour %d must precede end_hour %d", i, b.StartHour, b.EndHour)
		}
		if b.RatePerKWh < 0 {
			return fmt.Errorf("bands[%d].rate_per_kwh must not be negative, got %v", i, b.RatePerKWh)
		}
	}
	return nil
}

// RateAt returns the energy rate applying at t. The first matching band wins;
// outside all bands the default (shoulder) rate applies.
func (s TariffSchedule) RateAt(t time.Time) float64 {
	h := t.Hour()
	for _, b := range s.Bands {
		if h >= b.StartHour && h < b.EndHour {
			return b.RatePerKWh
		}
	}
	return s.DefaultRatePerKWh
}

// OffPeak reports whether t falls in the cheapest configured rate band.
func (s TariffSchedule) OffPeak(t time.Time) bool {
	min := s.DefaultRatePerKWh
	for _, b := range s.Bands {
		if b.RatePerKWh < min {
			min = b.RatePerKWh
		}
	}
	return s.RateAt(t) <= min
}

// WindowKey maps a timestamp onto its billing window identity. Two timestamps
// share a demand-charge peak iff their keys are equal.
func (s TariffSchedule) WindowKey(t time.Time) string {
	if s.Window == WindowDaily {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01")
}
