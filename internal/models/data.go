package models

import (
	"math"
	"sort"
	"strconv"
)

// Field names used by the analysis backend
const (
	FieldTimestamp       = "timestamp"
	FieldWindSpeed       = "wind_speed"
	FieldPower           = "power"
	FieldWindDirection   = "wind_direction"
	FieldAmbientTemp     = "ambient_temperature"
	FieldPitchAngle      = "pitch_angle"
	FieldRelativeWindDir = "relative_wind_direction"
	FieldWindSpeedBin    = "wind_speed_bin"
	FieldMeanPower       = "mean_power"
	FieldStdPower        = "std_power"
	FieldCount           = "count"
	FieldCILower         = "ci_lower"
	FieldCIUpper         = "ci_upper"
	FieldMinPower        = "min_power"
	FieldMaxPower        = "max_power"
	FieldMonth           = "month"
	FieldRecordCount     = "record_count"
	FieldMeanWindSpeed   = "mean_wind_speed"
	FieldEnergyMWh       = "energy_mwh"
	FieldCapacityFactor  = "capacity_factor_pct"
	FieldAvailability    = "availability_pct"
	FieldDirection       = "direction"
	FieldAngle           = "angle"
	FieldFrequency       = "frequency"
	FieldMeanWS          = "mean_ws"
)

// DataPoint is one ordered record of a dataset. A field absent from Fields is missing for this point.
type DataPoint struct {
	Key    string             `json:"key"`
	Fields map[string]float64 `json:"fields"`
}

// NewDataPoint builds a point, dropping NaN and infinite values so they read as missing
func NewDataPoint(key string, fields map[string]float64) DataPoint {
	clean := make(map[string]float64, len(fields))
	for k, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean[k] = v
	}
	return DataPoint{Key: key, Fields: clean}
}

// Value returns the field value and whether it is present
func (p DataPoint) Value(field string) (float64, bool) {
	if p.Fields == nil {
		return 0, false
	}
	v, ok := p.Fields[field]
	return v, ok
}

// Dataset is one named array of the analysis result
type Dataset struct {
	Name     string      `json:"name"`
	KeyField string      `json:"key_field"`
	Points   []DataPoint `json:"points"`
}

// Len returns the number of points; a nil dataset has none
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Points)
}

// Empty reports whether there is nothing to draw
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// HasField reports whether field is present on at least one point
func (d *Dataset) HasField(field string) bool {
	if d == nil {
		return false
	}
	if field == d.KeyField {
		return len(d.Points) > 0
	}
	for _, p := range d.Points {
		if _, ok := p.Fields[field]; ok {
			return true
		}
	}
	return false
}

// Fields lists every numeric field present in the dataset, sorted
func (d *Dataset) Fields() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, p := range d.Points {
		for k := range p.Fields {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ClassMagnitude is the share of one speed class inside a polar bin
type ClassMagnitude struct {
	Key       string  `json:"key"`
	Magnitude float64 `json:"magnitude"`
}

// PolarBin is one direction sector of the wind rose
type PolarBin struct {
	Label        string           `json:"label"`
	AngleDegrees float64          `json:"angle"`
	Total        float64          `json:"frequency"`
	Count        int              `json:"count"`
	MeanSpeed    float64          `json:"mean_ws"`
	PerClass     []ClassMagnitude `json:"per_class"`
}

// Magnitude returns the value for a class key
func (b PolarBin) Magnitude(key string) (float64, bool) {
	for _, c := range b.PerClass {
		if c.Key == key {
			return c.Magnitude, true
		}
	}
	return 0, false
}

// ClassSum adds up every class magnitude
func (b PolarBin) ClassSum() float64 {
	sum := 0.0
	for _, c := range b.PerClass {
		sum += c.Magnitude
	}
	return sum
}

// Consistent reports whether the class magnitudes add up to Total within tol
func (b PolarBin) Consistent(tol float64) bool {
	return math.Abs(b.ClassSum()-b.Total) <= tol
}

// ClassKeys returns the class keys of the first bin, the order every bin shares
func ClassKeys(bins []PolarBin) []string {
	if len(bins) == 0 {
		return nil
	}
	keys := make([]string, len(bins[0].PerClass))
	for i, c := range bins[0].PerClass {
		keys[i] = c.Key
	}
	return keys
}

// AnalysisResult is the analysis object produced by the SCADA backend
type AnalysisResult struct {
	Method        string                 `json:"method"`
	RatedPowerKW  float64                `json:"rated_power_kw,omitempty"`
	Summary       map[string]interface{} `json:"summary,omitempty"`
	DataQuality   map[string]interface{} `json:"data_quality,omitempty"`
	LossBreakdown map[string]interface{} `json:"loss_breakdown,omitempty"`
	TimeSeries    *Dataset               `json:"time_series,omitempty"`
	PowerCurve    *Dataset               `json:"power_curve,omitempty"`
	MonthlyStats  *Dataset               `json:"monthly_stats,omitempty"`
	WindRose      []PolarBin             `json:"wind_rose,omitempty"`
}

// HasData reports whether any chartable array is non-empty
func (r *AnalysisResult) HasData() bool {
	if r == nil {
		return false
	}
	return !r.TimeSeries.Empty() || !r.PowerCurve.Empty() || !r.MonthlyStats.Empty() || len(r.WindRose) > 0
}

// FormatKey renders a numeric key the way it appears in CSV output
func FormatKey(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
