package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/sitesim/core/model"
)

func sampleResult() *model.SimulationResult {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.SimulationResult{
		Scenario: "sample",
		Records: []model.AllocationRecord{
			{Step: 0, Time: start, GridKW: 150, DeliveredKW: []float64{100, 50}, ShortfallKW: []float64{20, 30}},
			{Step: 1, Time: start.Add(15 * time.Minute), GridKW: 80, BatteryKW: -40, DeliveredKW: []float64{40, 0}, ShortfallKW: []float64{0, 0}, SoCKWh: 10},
		},
		Costs:   model.CostBreakdown{EnergyCost: 5.75, DemandCost: 18, TotalCost: 23.75},
		Summary: model.RunSummary{EnergyDeliveredKWh: 47.5, PeakGridKW: 150},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 records", len(rows))
	}
	if rows[0][0] != "step" || rows[0][6] != "soc_kwh" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "150.000" || rows[1][4] != "150.000" || rows[1][5] != "50.000" {
		t.Fatalf("unexpected first record: %v", rows[1])
	}
	if rows[2][3] != "-40.000" {
		t.Fatalf("charge flow not signed: %v", rows[2])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var decoded model.SimulationResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if decoded.Scenario != "sample" || len(decoded.Records) != 2 {
		t.Fatalf("round trip lost data: %+v", decoded)
	}
	if decoded.Costs.TotalCost != 23.75 {
		t.Fatalf("costs lost: %+v", decoded.Costs)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatalf("output not indented")
	}
}
