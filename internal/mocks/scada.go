package mocks

import (
	"math"
	"math/rand"
	"time"
)

// Turbine operating limits shared by the generator and the analysis
const (
	CutInWS  = 3.0
	RatedWS  = 12.0
	CutOutWS = 25.0
)

// Turbine status codes
const (
	StatusStopped     = 0
	StatusNormal      = 1
	StatusMaintenance = 2
)

// SampleOptions controls the synthetic SCADA generator
type SampleOptions struct {
	Rows         int
	RatedPowerKW float64
	Seed         int64
	Start        time.Time
}

// DefaultSampleOptions is thirty days of hourly data from a 2 MW turbine
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		Rows:         720,
		RatedPowerKW: 2000,
		Seed:         42,
		Start:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (o SampleOptions) withDefaults() SampleOptions {
	d := DefaultSampleOptions()
	if o.Rows <= 0 {
		o.Rows = d.Rows
	}
	if o.RatedPowerKW <= 0 {
		o.RatedPowerKW = d.RatedPowerKW
	}
	if o.Start.IsZero() {
		o.Start = d.Start
	}
	return o
}

// Record is one hourly SCADA row. NaN marks a missing sensor value.
type Record struct {
	Timestamp       time.Time
	WindSpeed       float64
	Power           float64
	WindDirection   float64
	AmbientTemp     float64
	PitchAngle      float64
	RelativeWindDir float64
	Status          int
}

// Available reports whether the turbine was in normal operation
func (r Record) Available() bool {
	return r.Status == StatusNormal
}

// GenerateSCADA produces a deterministic series of hourly records: Weibull wind with a diurnal
// swing, a cubic power curve between cut-in and rated, downtime events and 2% missing values.
func GenerateSCADA(opts SampleOptions) []Record {
	opts = opts.withDefaults()
	rows := opts.Rows
	rated := opts.RatedPowerKW
	rng := rand.New(rand.NewSource(opts.Seed))

	records := make([]Record, rows)
	for i := range records {
		ts := opts.Start.Add(time.Duration(i) * time.Hour)
		hour := float64(ts.Hour())

		ws := weibull(rng, 2.0, 8.0) + 0.5*math.Sin(2*math.Pi*(hour-6)/24)
		ws = clamp(ws, 0, 35)

		pw := clamp(ExpectedPower(ws, rated)+rng.NormFloat64()*rated*0.03, 0, rated*1.02)

		records[i] = Record{Timestamp: ts, WindSpeed: ws, Power: pw, Status: StatusNormal}
	}

	// ~5% downtime in blocks of 2 to 6 hours
	starts := rng.Perm(max(1, rows-6))[:max(1, int(float64(rows)*0.05)/4)]
	for _, s := range starts {
		end := min(s+2+rng.Intn(5), rows)
		for i := s; i < end; i++ {
			records[i].Power = 0
			records[i].Status = StatusStopped
		}
	}
	nMaint := max(1, int(float64(rows)*0.01))
	for _, i := range rng.Perm(rows)[:nMaint] {
		records[i].Status = StatusMaintenance
	}

	baseDir := 180 + rng.Float64()*90
	for i := range records {
		r := &records[i]
		r.WindDirection = math.Mod(baseDir+30*math.Sin(2*math.Pi*float64(i)/(float64(rows)/3))+rng.NormFloat64()*15, 360)
		if r.WindDirection < 0 {
			r.WindDirection += 360
		}

		day := float64(r.Timestamp.YearDay())
		hour := float64(r.Timestamp.Hour())
		r.AmbientTemp = 10 + 10*math.Sin(2*math.Pi*(day-100)/365) + 5*math.Sin(2*math.Pi*(hour-14)/24) + rng.NormFloat64()*2

		r.PitchAngle = clamp(pitchFor(r.WindSpeed)+rng.NormFloat64()*0.5, -2, 90)
		r.RelativeWindDir = clamp(rng.NormFloat64()*5+3*math.Sin(2*math.Pi*float64(i)/(float64(rows)/2)), -30, 30)
	}

	nMissing := int(float64(rows) * 0.02)
	missing := rng.Perm(rows)[:nMissing]
	for j, i := range missing {
		if j < nMissing/2 {
			records[i].WindSpeed = math.NaN()
		} else {
			records[i].Power = math.NaN()
		}
	}

	for i := range records {
		r := &records[i]
		r.WindSpeed = round(r.WindSpeed, 2)
		r.Power = round(r.Power, 2)
		r.WindDirection = math.Mod(round(r.WindDirection, 1), 360)
		r.AmbientTemp = round(r.AmbientTemp, 1)
		r.PitchAngle = round(r.PitchAngle, 2)
		r.RelativeWindDir = round(r.RelativeWindDir, 1)
	}
	return records
}

// ExpectedPower is the idealised cubic power curve, zero outside cut-in and cut-out
func ExpectedPower(ws, ratedPowerKW float64) float64 {
	switch {
	case math.IsNaN(ws), ws < CutInWS, ws > CutOutWS:
		return 0
	case ws >= RatedWS:
		return ratedPowerKW
	}
	f := (ws - CutInWS) / (RatedWS - CutInWS)
	return f * f * f * ratedPowerKW
}

// pitchFor ramps the blades from 0 at rated speed to 25 degrees at cut-out
func pitchFor(ws float64) float64 {
	if math.IsNaN(ws) || ws < RatedWS {
		return 0
	}
	return math.Min(25*(ws-RatedWS)/(CutOutWS-RatedWS), 90)
}

func weibull(rng *rand.Rand, shape, scale float64) float64 {
	return scale * math.Pow(-math.Log(1-rng.Float64()), 1/shape)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	if math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
