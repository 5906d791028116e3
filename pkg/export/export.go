// Package export writes simulation results to portable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/sitesim/core/model"
)

// WriteJSON writes the full simulation result to w in JSON format.
func WriteJSON(w io.Writer, res *model.SimulationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes the allocation ledger to w, one row per timestep.
func WriteCSV(w io.Writer, res *model.SimulationResult) error {
	cw := csv.NewWriter(w)
	header := []string{"step", "time", "grid_kw", "battery_kw", "delivered_kw", "shortfall_kw", "soc_kwh"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range res.Records {
		rec := []string{
			strconv.Itoa(r.Step),
			r.Time.Format(time.RFC3339),
			fmtKW(r.GridKW),
			fmtKW(r.BatteryKW),
			fmtKW(r.TotalDeliveredKW()),
			fmtKW(r.TotalShortfallKW()),
			fmtKW(r.SoCKWh),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtKW(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
