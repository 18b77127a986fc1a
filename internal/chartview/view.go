package chartview

import (
	"windscope/internal/models"
	"windscope/internal/zoom"
)

// View is one interactive chart. Each instance owns its zoom, visibility and layout state;
// nothing is shared between views.
type View interface {
	ID() string
	Title() string
	Kind() Kind
	Frame() Frame
	Series() []SeriesDescriptor
	ToggleSeries(id string) (bool, error)
	ExportVisible() (string, error)
	Reset() zoom.Transition
	PointerDown(x, y float64) zoom.Transition
	PointerMove(x, y float64) zoom.Transition
	PointerUp(x, y float64) zoom.Transition
	Cancel() zoom.Transition
	DoubleClick() zoom.Transition
	Hover(x, y float64) (HoverInfo, bool)
	Zoom() zoom.Snapshot
	SetExpanded(expanded bool)
	Expanded() bool
}

// TimeSeriesView is a dual-axis chart over the point index. A committed zoom is an index range
// and the visible slice is points[lo:hi+1].
type TimeSeriesView struct {
	*cartesianView
}

// NewTimeSeriesView validates the configuration and creates an empty view
func NewTimeSeriesView(cfg CartesianConfig, opts Options) (*TimeSeriesView, error) {
	base, err := newCartesianView(cfg, xIndex, ChartTimeSeries, opts)
	if err != nil {
		return nil, err
	}
	return &TimeSeriesView{base}, nil
}

// BandView is a scatter chart with bands over a continuous x column. A committed zoom is a value
// range; the y domains are recomputed from the points inside it.
type BandView struct {
	*cartesianView
}

// NewBandView validates the configuration and creates an empty view
func NewBandView(cfg CartesianConfig, opts Options) (*BandView, error) {
	if cfg.XField == "" {
		cfg.XField = cfg.KeyField
	}
	base, err := newCartesianView(cfg, xValue, ChartScatter, opts)
	if err != nil {
		return nil, err
	}
	return &BandView{base}, nil
}

// TimeSeriesConfig describes the wind speed and power chart
func TimeSeriesConfig(opts Options) CartesianConfig {
	opts = opts.withDefaults()
	return CartesianConfig{
		ID:       "time_series",
		Title:    "Wind Speed & Power",
		XLabel:   "Time",
		KeyField: models.FieldTimestamp,
		Axes: [2]AxisConfig{
			{Label: "Wind speed (m/s)", Step: 1},
			{Label: "Power (kW)", Step: opts.DomainStep},
		},
		Series: []SeriesDescriptor{
			{ID: "wind_speed", Label: "Wind speed", SourceField: models.FieldWindSpeed, Kind: KindRaw, Axis: AxisPrimary, Visible: true},
			{ID: "wind_speed_ma", Label: "Wind speed (moving avg)", SourceField: models.FieldWindSpeed, Kind: KindMovingAverage, Axis: AxisPrimary, Visible: true, Window: opts.Window},
			{ID: "power", Label: "Power", SourceField: models.FieldPower, Kind: KindRaw, Axis: AxisSecondary, Visible: true},
			{ID: "power_ma", Label: "Power (moving avg)", SourceField: models.FieldPower, Kind: KindMovingAverage, Axis: AxisSecondary, Window: opts.Window},
			{ID: "wind_direction", Label: "Wind direction (deg)", SourceField: models.FieldWindDirection, Kind: KindRaw, Axis: AxisPrimary},
			{ID: "ambient_temperature", Label: "Ambient temperature (C)", SourceField: models.FieldAmbientTemp, Kind: KindRaw, Axis: AxisPrimary},
			{ID: "pitch_angle", Label: "Pitch angle (deg)", SourceField: models.FieldPitchAngle, Kind: KindRaw, Axis: AxisPrimary},
			{ID: "relative_wind_direction", Label: "Relative wind direction (deg)", SourceField: models.FieldRelativeWindDir, Kind: KindRaw, Axis: AxisPrimary},
		},
	}
}

// PowerCurveConfig describes the binned power curve with its bands
func PowerCurveConfig(opts Options) CartesianConfig {
	opts = opts.withDefaults()
	return CartesianConfig{
		ID:       "power_curve",
		Title:    "Power Curve",
		XLabel:   "Wind speed bin (m/s)",
		KeyField: models.FieldWindSpeedBin,
		XField:   models.FieldWindSpeedBin,
		Axes: [2]AxisConfig{
			{Label: "Power (kW)", Step: opts.DomainStep},
			{Label: "Samples", Step: 10},
		},
		Series: []SeriesDescriptor{
			{ID: "mean_power", Label: "Mean power", SourceField: models.FieldMeanPower, Kind: KindRaw, Axis: AxisPrimary, Visible: true},
			{ID: "std_band", Label: "Mean +/- std", SourceField: models.FieldMeanPower, AuxField: models.FieldStdPower, Kind: KindBand, Axis: AxisPrimary, Visible: true},
			{ID: "ci_band", Label: "95% confidence", SourceField: models.FieldCILower, AuxField: models.FieldCIUpper, Kind: KindBounds, Axis: AxisPrimary, Visible: true},
			{ID: "envelope", Label: "Min/max envelope", SourceField: models.FieldMinPower, AuxField: models.FieldMaxPower, Kind: KindBounds, Axis: AxisPrimary},
			{ID: "count", Label: "Samples per bin", SourceField: models.FieldCount, Kind: KindRaw, Axis: AxisSecondary},
		},
	}
}

// MonthlyStatsConfig describes the monthly energy and capacity factor chart
func MonthlyStatsConfig(opts Options) CartesianConfig {
	return CartesianConfig{
		ID:       "monthly_stats",
		Title:    "Monthly Performance",
		XLabel:   "Month",
		KeyField: models.FieldMonth,
		Axes: [2]AxisConfig{
			{Label: "Energy (MWh)", Step: 10},
			{Label: "Percent (%)", Step: 10},
		},
		Series: []SeriesDescriptor{
			{ID: "energy_mwh", Label: "Energy", SourceField: models.FieldEnergyMWh, Kind: KindRaw, Axis: AxisPrimary, Visible: true},
			{ID: "capacity_factor_pct", Label: "Capacity factor", SourceField: models.FieldCapacityFactor, Kind: KindRaw, Axis: AxisSecondary, Visible: true},
			{ID: "availability_pct", Label: "Availability", SourceField: models.FieldAvailability, Kind: KindRaw, Axis: AxisSecondary},
		},
	}
}

// WindRoseConfig describes the wind rose
func WindRoseConfig() PolarConfig {
	return PolarConfig{
		ID:         "wind_rose",
		Title:      "Wind Rose",
		ValueLabel: "Frequency (%)",
	}
}
