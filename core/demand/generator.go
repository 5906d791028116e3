// Package demand produces vehicle charging demand profiles for the
// simulator: either synthetic daily envelopes or profiles derived from
// configured utilisation curves.
package demand

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/kilianp07/sitesim/core/model"
)

// GeneratorConfig shapes the synthetic daily utilisation envelope. The
// envelope has a morning and an evening bump on top of a base load, with
// seeded noise so runs stay reproducible.
type GeneratorConfig struct {
	Seed          int64   `json:"seed"`
	Steps         int     `json:"steps"`
	TimestepHours float64 `json:"timestep_hours"`
	BaseLoad      float64 `json:"base_load"`
	MorningPeak   float64 `json:"morning_peak"`
	EveningPeak   float64 `json:"evening_peak"`
	Jitter        float64 `json:"jitter"`
}

// SetDefaults fills in the canonical 24 h horizon at 15 min resolution.
func (c *GeneratorConfig) SetDefaults() {
	if c.Steps == 0 {
		c.Steps = 96
	}
	if c.TimestepHours == 0 {
		c.TimestepHours = model.DefaultTimestepHours
	}
}

// Validate rejects envelopes that cannot produce a usable profile.
func (c GeneratorConfig) Validate() error {
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.TimestepHours <= 0 {
		return fmt.Errorf("timestep_hours must be positive, got %v", c.TimestepHours)
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"base_load", c.BaseLoad},
		{"morning_peak", c.MorningPeak},
		{"evening_peak", c.EveningPeak},
		{"jitter", c.Jitter},
	} {
		if v.val < 0 {
			return fmt.Errorf("%s must not be negative, got %v", v.name, v.val)
		}
	}
	return nil
}

// Envelope returns the utilisation curve in [0,1], one value per step.
func (c GeneratorConfig) Envelope() []float64 {
	rng := rand.New(rand.NewSource(c.Seed))
	util := make([]float64, c.Steps)
	for i := range util {
		h := math.Mod(float64(i)*c.TimestepHours, 24)
		u := c.BaseLoad
		u += c.MorningPeak * bump(h, 8, 2)
		u += c.EveningPeak * bump(h, 18, 2.5)
		if c.Jitter > 0 {
			u += rng.NormFloat64() * c.Jitter
		}
		if u < 0 {
			u = 0
		}
		if u > 1 {
			u = 1
		}
		util[i] = u
	}
	return util
}

// Profile applies the envelope to the charger fleet's nameplate power.
func (c GeneratorConfig) Profile(start time.Time, chargers []model.Charger) model.DemandProfile {
	return model.FromUtilisation(start, c.Envelope(), c.Steps, chargers)
}

// bump is a gaussian-shaped peak centred on hour c with width w.
func bump(h, c, w float64) float64 {
	d := (h - c) / w
	return math.Exp(-d * d)
}
