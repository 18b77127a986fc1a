package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrEmptyPayload is returned when there is no JSON document to decode
var ErrEmptyPayload = errors.New("empty analysis payload")

// AnalysisEnvelope is the wrapper the backend puts around a result
type AnalysisEnvelope struct {
	Status       string          `json:"status"`
	Filename     string          `json:"filename,omitempty"`
	RatedPowerKW float64         `json:"rated_power_kw,omitempty"`
	Results      json.RawMessage `json:"results"`
}

type rawResult struct {
	Method        string                       `json:"method"`
	Summary       map[string]interface{}       `json:"summary"`
	DataQuality   map[string]interface{}       `json:"data_quality"`
	LossBreakdown map[string]interface{}       `json:"loss_breakdown"`
	TimeSeries    []map[string]json.RawMessage `json:"time_series"`
	PowerCurve    []map[string]json.RawMessage `json:"power_curve"`
	MonthlyStats  []map[string]json.RawMessage `json:"monthly_stats"`
	WindRose      []map[string]json.RawMessage `json:"wind_rose"`
}

var windRoseReserved = map[string]bool{
	FieldDirection: true,
	FieldAngle:     true,
	FieldFrequency: true,
	FieldCount:     true,
	FieldMeanWS:    true,
}

// DecodeAnalysisResult parses a backend result, either bare or wrapped in {"status", "results"}.
// Only presence of the arrays is checked; null and non-numeric values read as missing.
func DecodeAnalysisResult(data []byte) (*AnalysisResult, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var env AnalysisEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse analysis payload: %w", err)
	}
	body := data
	if len(env.Results) > 0 && !bytes.Equal(env.Results, []byte("null")) {
		body = env.Results
	}

	var raw rawResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse analysis results: %w", err)
	}

	result := &AnalysisResult{
		Method:        raw.Method,
		RatedPowerKW:  env.RatedPowerKW,
		Summary:       raw.Summary,
		DataQuality:   raw.DataQuality,
		LossBreakdown: raw.LossBreakdown,
	}
	if raw.TimeSeries != nil {
		result.TimeSeries = decodeDataset("time_series", FieldTimestamp, raw.TimeSeries)
	}
	if raw.PowerCurve != nil {
		result.PowerCurve = decodeDataset("power_curve", FieldWindSpeedBin, raw.PowerCurve)
	}
	if raw.MonthlyStats != nil {
		result.MonthlyStats = decodeDataset("monthly_stats", FieldMonth, raw.MonthlyStats)
	}
	if raw.WindRose != nil {
		result.WindRose = decodeWindRose(raw.WindRose)
	}
	if result.RatedPowerKW == 0 && result.Summary != nil {
		if v, ok := result.Summary["rated_power_kw"].(float64); ok {
			result.RatedPowerKW = v
		}
	}
	return result, nil
}

func decodeDataset(name, keyField string, records []map[string]json.RawMessage) *Dataset {
	ds := &Dataset{Name: name, KeyField: keyField, Points: make([]DataPoint, 0, len(records))}
	for _, rec := range records {
		fields := make(map[string]float64, len(rec))
		key := ""
		for k, v := range rec {
			if k == keyField {
				if s, ok := stringValue(v); ok {
					key = s
					continue
				}
			}
			if f, ok := numberValue(v); ok {
				fields[k] = f
				if k == keyField {
					key = FormatKey(f)
				}
			}
		}
		ds.Points = append(ds.Points, NewDataPoint(key, fields))
	}
	return ds
}

func decodeWindRose(records []map[string]json.RawMessage) []PolarBin {
	bins := make([]PolarBin, 0, len(records))
	for _, rec := range records {
		var bin PolarBin
		if s, ok := stringValue(rec[FieldDirection]); ok {
			bin.Label = s
		}
		if v, ok := numberValue(rec[FieldAngle]); ok {
			bin.AngleDegrees = normalizeDegrees(v)
		}
		if v, ok := numberValue(rec[FieldFrequency]); ok {
			bin.Total = v
		}
		if v, ok := numberValue(rec[FieldCount]); ok {
			bin.Count = int(v)
		}
		if v, ok := numberValue(rec[FieldMeanWS]); ok {
			bin.MeanSpeed = v
		}
		for k, raw := range rec {
			if windRoseReserved[k] {
				continue
			}
			if v, ok := numberValue(raw); ok {
				bin.PerClass = append(bin.PerClass, ClassMagnitude{Key: k, Magnitude: v})
			}
		}
		sort.SliceStable(bin.PerClass, func(i, j int) bool {
			return classLess(bin.PerClass[i].Key, bin.PerClass[j].Key)
		})
		bins = append(bins, bin)
	}
	return bins
}

// classLess orders speed class labels ("0-3", "3-6", ..., "25+") by their lower bound
func classLess(a, b string) bool {
	la, oka := classLowerBound(a)
	lb, okb := classLowerBound(b)
	switch {
	case oka && okb && la != lb:
		return la < lb
	case oka != okb:
		return oka
	default:
		return a < b
	}
}

func classLowerBound(label string) (float64, bool) {
	end := strings.IndexAny(label, "-+")
	if end <= 0 {
		end = len(label)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(label[:end]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func numberValue(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	// null unmarshals into a float64 without error, so decode through a pointer
	var p *float64
	if err := json.Unmarshal(raw, &p); err != nil || p == nil {
		return 0, false
	}
	f := *p
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringValue(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func normalizeDegrees(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// EncodeAnalysisResult writes the result back in the backend's record layout, wrapped in an envelope
func EncodeAnalysisResult(r *AnalysisResult) ([]byte, error) {
	if r == nil {
		return nil, ErrEmptyPayload
	}
	results := map[string]interface{}{
		"method": r.Method,
	}
	if r.Summary != nil {
		results["summary"] = r.Summary
	}
	if r.DataQuality != nil {
		results["data_quality"] = r.DataQuality
	}
	if r.LossBreakdown != nil {
		results["loss_breakdown"] = r.LossBreakdown
	}
	for name, ds := range map[string]*Dataset{
		"time_series":   r.TimeSeries,
		"power_curve":   r.PowerCurve,
		"monthly_stats": r.MonthlyStats,
	} {
		if ds != nil {
			results[name] = encodeDataset(ds)
		}
	}
	if r.WindRose != nil {
		rose := make([]map[string]interface{}, 0, len(r.WindRose))
		for _, b := range r.WindRose {
			rec := map[string]interface{}{
				FieldDirection: b.Label,
				FieldAngle:     b.AngleDegrees,
				FieldFrequency: b.Total,
				FieldCount:     b.Count,
				FieldMeanWS:    b.MeanSpeed,
			}
			for _, c := range b.PerClass {
				rec[c.Key] = c.Magnitude
			}
			rose = append(rose, rec)
		}
		results["wind_rose"] = rose
	}

	body, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis results: %w", err)
	}
	return json.MarshalIndent(AnalysisEnvelope{
		Status:       "success",
		RatedPowerKW: r.RatedPowerKW,
		Results:      body,
	}, "", "  ")
}

func encodeDataset(ds *Dataset) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(ds.Points))
	for _, p := range ds.Points {
		rec := make(map[string]interface{}, len(p.Fields)+1)
		for k, v := range p.Fields {
			rec[k] = v
		}
		if _, numeric := p.Fields[ds.KeyField]; !numeric && ds.KeyField != "" {
			rec[ds.KeyField] = p.Key
		}
		out = append(out, rec)
	}
	return out
}
