package mocks

import (
	"math"
	"sort"

	"windscope/internal/models"
)

const (
	powerCurveBinWidth = 0.5
	minBinSamples      = 3
	sectorCount        = 16
)

var directionLabels = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// SpeedClass is a half-open wind speed interval [Lo, Hi) of the wind rose
type SpeedClass struct {
	Lo, Hi float64
	Label  string
}

// SpeedClasses are the wind rose classes, lowest first
var SpeedClasses = []SpeedClass{
	{0, 3, "0-3"},
	{3, 6, "3-6"},
	{6, 9, "6-9"},
	{9, 12, "9-12"},
	{12, 15, "12-15"},
	{15, 25, "15-25"},
	{25, 100, "25+"},
}

// Analyze reduces SCADA records to the analysis result the chart engine draws
func Analyze(records []Record, ratedPowerKW float64) *models.AnalysisResult {
	return &models.AnalysisResult{
		Method:        "sample",
		RatedPowerKW:  ratedPowerKW,
		Summary:       summarize(records, ratedPowerKW),
		DataQuality:   assessQuality(records, ratedPowerKW),
		LossBreakdown: lossBreakdown(records, ratedPowerKW),
		TimeSeries:    timeSeries(records),
		PowerCurve:    powerCurve(records),
		MonthlyStats:  monthlyStats(records, ratedPowerKW),
		WindRose:      windRose(records),
	}
}

// GenerateSample builds a complete synthetic analysis result
func GenerateSample(opts SampleOptions) *models.AnalysisResult {
	opts = opts.withDefaults()
	return Analyze(GenerateSCADA(opts), opts.RatedPowerKW)
}

func timeSeries(records []Record) *models.Dataset {
	ds := &models.Dataset{Name: "time_series", KeyField: models.FieldTimestamp, Points: make([]models.DataPoint, 0, len(records))}
	for _, r := range records {
		ds.Points = append(ds.Points, models.NewDataPoint(r.Timestamp.Format("2006-01-02T15:04:05"), map[string]float64{
			models.FieldWindSpeed:       r.WindSpeed,
			models.FieldPower:           r.Power,
			models.FieldWindDirection:   r.WindDirection,
			models.FieldAmbientTemp:     r.AmbientTemp,
			models.FieldPitchAngle:      r.PitchAngle,
			models.FieldRelativeWindDir: r.RelativeWindDir,
		}))
	}
	return ds
}

// powerCurve bins available records into 0.5 m/s classes, skipping bins with fewer than 3 samples
func powerCurve(records []Record) *models.Dataset {
	bins := make(map[int][]float64)
	for _, r := range records {
		if !r.Available() || math.IsNaN(r.WindSpeed) || math.IsNaN(r.Power) {
			continue
		}
		i := int(math.Floor(r.WindSpeed / powerCurveBinWidth))
		bins[i] = append(bins[i], r.Power)
	}
	idx := make([]int, 0, len(bins))
	for i := range bins {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	ds := &models.Dataset{Name: "power_curve", KeyField: models.FieldWindSpeedBin}
	for _, i := range idx {
		pw := bins[i]
		n := len(pw)
		if n < minBinSamples {
			continue
		}
		mean, std := meanStd(pw)
		ci := std / math.Sqrt(float64(n)) * 1.96
		lo, hi := minMax(pw)
		centre := float64(i)*powerCurveBinWidth + powerCurveBinWidth/2
		ds.Points = append(ds.Points, models.NewDataPoint(models.FormatKey(centre), map[string]float64{
			models.FieldWindSpeedBin: centre,
			models.FieldMeanPower:    round(mean, 2),
			models.FieldStdPower:     round(std, 2),
			models.FieldCount:        float64(n),
			models.FieldCILower:      round(mean-ci, 2),
			models.FieldCIUpper:      round(mean+ci, 2),
			models.FieldMinPower:     round(lo, 2),
			models.FieldMaxPower:     round(hi, 2),
		}))
	}
	return ds
}

func monthlyStats(records []Record, rated float64) *models.Dataset {
	type month struct {
		key     string
		records []Record
	}
	var months []*month
	byKey := make(map[string]*month)
	for _, r := range records {
		key := r.Timestamp.Format("2006-01")
		m, ok := byKey[key]
		if !ok {
			m = &month{key: key}
			byKey[key] = m
			months = append(months, m)
		}
		m.records = append(m.records, r)
	}

	ds := &models.Dataset{Name: "monthly_stats", KeyField: models.FieldMonth}
	for _, m := range months {
		ws := column(m.records, func(r Record) float64 { return r.WindSpeed })
		pw := column(m.records, func(r Record) float64 { return r.Power })
		meanPW, _ := meanStd(pw)
		meanWS, _ := meanStd(ws)
		_, maxPW := minMax(pw)
		fields := map[string]float64{
			models.FieldRecordCount:   float64(len(m.records)),
			models.FieldMeanWindSpeed: round(meanWS, 2),
			models.FieldMeanPower:     round(meanPW, 2),
			models.FieldMaxPower:      round(maxPW, 2),
			models.FieldEnergyMWh:     round(sum(pw)/1000, 1),
			models.FieldAvailability:  round(float64(countIf(pw, func(v float64) bool { return v > 0 }))/float64(len(m.records))*100, 2),
		}
		if rated > 0 {
			fields[models.FieldCapacityFactor] = round(meanPW/rated*100, 2)
		}
		ds.Points = append(ds.Points, models.NewDataPoint(m.key, fields))
	}
	return ds
}

// windRose splits records with both speed and direction into 16 sectors of speed classes, each
// magnitude a percentage of all such records. A sector's frequency is the sum of its classes.
func windRose(records []Record) []models.PolarBin {
	type sector struct {
		speeds []float64
	}
	sectors := make([]sector, sectorCount)
	total := 0
	size := 360.0 / sectorCount
	for _, r := range records {
		if math.IsNaN(r.WindSpeed) || math.IsNaN(r.WindDirection) {
			continue
		}
		i := int(math.Mod(r.WindDirection+size/2, 360)/size) % sectorCount
		sectors[i].speeds = append(sectors[i].speeds, r.WindSpeed)
		total++
	}
	if total == 0 {
		return nil
	}

	bins := make([]models.PolarBin, sectorCount)
	for i, s := range sectors {
		bin := models.PolarBin{
			Label:        directionLabels[i],
			AngleDegrees: float64(i) * size,
			Count:        len(s.speeds),
		}
		if len(s.speeds) > 0 {
			mean, _ := meanStd(s.speeds)
			bin.MeanSpeed = round(mean, 2)
		}
		for _, c := range SpeedClasses {
			n := countIf(s.speeds, func(v float64) bool { return v >= c.Lo && v < c.Hi })
			bin.PerClass = append(bin.PerClass, models.ClassMagnitude{
				Key:       c.Label,
				Magnitude: round(float64(n)/float64(total)*100, 2),
			})
		}
		bin.Total = round(bin.ClassSum(), 2)
		bins[i] = bin
	}
	return bins
}

func summarize(records []Record, rated float64) map[string]interface{} {
	n := len(records)
	ws := column(records, func(r Record) float64 { return r.WindSpeed })
	pw := column(records, func(r Record) float64 { return r.Power })
	meanWS, _ := meanStd(ws)
	meanPW, _ := meanStd(pw)
	_, maxWS := minMax(ws)
	_, maxPW := minMax(pw)

	spanDays := 0.0
	if n > 1 {
		spanDays = records[n-1].Timestamp.Sub(records[0].Timestamp).Hours() / 24
	}
	energyMWh := sum(pw) / 1000
	hours := spanDays * 24
	if hours <= 0 {
		hours = float64(n)
	}
	aep := 0.0
	if hours > 0 {
		aep = energyMWh / hours * 8760
	}
	cf := 0.0
	if rated > 0 {
		cf = meanPW / rated
	}
	availability := 0.0
	if n > 0 {
		availability = float64(countIf(pw, func(v float64) bool { return v > 0 })) / float64(n)
	}

	return map[string]interface{}{
		"total_records":        n,
		"time_span_days":       round(spanDays, 1),
		"mean_wind_speed_ms":   round(meanWS, 2),
		"median_wind_speed_ms": round(median(ws), 2),
		"max_wind_speed_ms":    round(maxWS, 2),
		"mean_power_kw":        round(meanPW, 2),
		"max_power_kw":         round(maxPW, 2),
		"capacity_factor":      round(cf, 4),
		"capacity_factor_pct":  round(cf*100, 2),
		"availability_pct":     round(availability*100, 2),
		"estimated_aep_mwh":    round(aep, 1),
		"total_energy_mwh":     round(energyMWh, 1),
		"rated_power_kw":       rated,
	}
}

func assessQuality(records []Record, rated float64) map[string]interface{} {
	n := len(records)
	if n == 0 {
		return map[string]interface{}{"total_records_after_cleaning": 0}
	}
	missingWS := float64(countRecords(records, func(r Record) bool { return math.IsNaN(r.WindSpeed) })) / float64(n) * 100
	missingPW := float64(countRecords(records, func(r Record) bool { return math.IsNaN(r.Power) })) / float64(n) * 100
	curtailed := countRecords(records, func(r Record) bool { return r.Power >= rated*0.95 && r.WindSpeed > RatedWS })
	idle := countRecords(records, func(r Record) bool { return r.Power <= 0 && r.WindSpeed > CutInWS })

	freq := "unknown"
	gaps := 0
	if n > 1 {
		step := records[1].Timestamp.Sub(records[0].Timestamp)
		freq = step.String()
		for i := 2; i < n; i++ {
			if records[i].Timestamp.Sub(records[i-1].Timestamp) != step {
				gaps++
			}
		}
	}
	completeness := round(100-(round(missingWS, 2)+round(missingPW, 2))/2, 2)

	return map[string]interface{}{
		"total_records_after_cleaning": n,
		"missing_wind_speed_pct":       round(missingWS, 2),
		"missing_power_pct":            round(missingPW, 2),
		"detected_frequency":           freq,
		"timestamp_gaps":               gaps,
		"data_completeness_pct":        completeness,
		"potential_curtailment_count":  curtailed,
		"idle_in_wind_count":           idle,
		"completeness_score":           completeness,
	}
}

// lossBreakdown compares produced energy against the ideal curve, in kWh at hourly resolution
func lossBreakdown(records []Record, rated float64) map[string]interface{} {
	sampleHours := 1.0
	if len(records) > 1 {
		sampleHours = records[1].Timestamp.Sub(records[0].Timestamp).Hours()
	}
	var theoretical, operational, downtime, cutout float64
	missing := 0
	for _, r := range records {
		if math.IsNaN(r.WindSpeed) || math.IsNaN(r.Power) {
			missing++
		}
		expected := ExpectedPower(r.WindSpeed, rated)
		theoretical += expected * sampleHours
		if !math.IsNaN(r.Power) {
			operational += math.Max(r.Power, 0) * sampleHours
		}
		if r.Power <= 0 && r.WindSpeed > CutInWS {
			downtime += expected * sampleHours
		}
		if r.WindSpeed >= CutOutWS {
			cutout += rated * sampleHours
		}
	}
	missingPct := 0.0
	if len(records) > 0 {
		missingPct = float64(missing) / float64(len(records)) * 100
	}
	return map[string]interface{}{
		"downtime_loss_kwh":      round(downtime, 2),
		"cutout_loss_kwh":        round(cutout, 2),
		"missing_data_percent":   round(missingPct, 2),
		"operational_energy_kwh": round(operational, 2),
		"theoretical_energy_kwh": round(theoretical, 2),
	}
}

// column collects the non-missing values of one field
func column(records []Record, get func(Record) float64) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v := get(r); !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// meanStd returns the mean and population standard deviation, zeros for no values
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := sum(values) / float64(len(values))
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(values)))
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func countIf(values []float64, pred func(float64) bool) int {
	n := 0
	for _, v := range values {
		if pred(v) {
			n++
		}
	}
	return n
}

func countRecords(records []Record, pred func(Record) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

