package chartview

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"windscope/internal/logger"
	"windscope/internal/models"
	"windscope/internal/series"
)

// ErrUnknownChart is returned when no view has the requested id
var ErrUnknownChart = errors.New("unknown chart")

// Dashboard groups the views of one analysis result. It is not safe for concurrent use;
// callers serialize access.
type Dashboard struct {
	opts    Options
	cache   *series.Cache
	result  *models.AnalysisResult
	version string

	timeSeries *TimeSeriesView
	powerCurve *BandView
	monthly    *TimeSeriesView
	windRose   *PolarView
	views      []View

	log *logger.Logger
}

// NewDashboard builds the standard set of charts, all empty until a result is loaded
func NewDashboard(opts Options) (*Dashboard, error) {
	opts = opts.withDefaults()
	if opts.Cache == nil {
		cache, err := series.NewCache(0)
		if err != nil {
			return nil, fmt.Errorf("failed to create series cache: %w", err)
		}
		opts.Cache = cache
	}

	d := &Dashboard{
		opts:  opts,
		cache: opts.Cache,
		log:   logger.GetGlobalLogger().WithComponent("chartview"),
	}

	var err error
	if d.timeSeries, err = NewTimeSeriesView(TimeSeriesConfig(opts), opts); err != nil {
		return nil, err
	}
	if d.powerCurve, err = NewBandView(PowerCurveConfig(opts), opts); err != nil {
		return nil, err
	}
	if d.monthly, err = NewTimeSeriesView(MonthlyStatsConfig(opts), opts); err != nil {
		return nil, err
	}
	if d.windRose, err = NewPolarView(WindRoseConfig(), opts); err != nil {
		return nil, err
	}
	d.views = []View{d.timeSeries, d.powerCurve, d.windRose, d.monthly}
	return d, nil
}

// SetResult replaces every dataset. All zoom selections return to Idle and derived caches are
// dropped. An inconsistent wind rose rejects the whole result.
func (d *Dashboard) SetResult(r *models.AnalysisResult) error {
	if r == nil {
		r = &models.AnalysisResult{}
	}
	if _, err := series.StackClasses(r.WindRose, models.ClassKeys(r.WindRose)); err != nil {
		d.log.Error("Rejected analysis result", err)
		return fmt.Errorf("invalid wind rose: %w", err)
	}

	hits, misses := d.cache.Stats()
	d.log.Debug("Dropping derived series", map[string]interface{}{
		"version": d.version,
		"entries": d.cache.Len(),
		"hits":    hits,
		"misses":  misses,
	})
	d.cache.Purge()
	d.result = r
	d.version = uuid.NewString()

	d.timeSeries.SetDataset(r.TimeSeries)
	d.powerCurve.SetDataset(r.PowerCurve)
	d.monthly.SetDataset(r.MonthlyStats)
	if _, err := d.windRose.SetBins(r.WindRose); err != nil {
		return err
	}

	d.log.Info("Analysis result loaded", map[string]interface{}{
		"version":       d.version,
		"method":        r.Method,
		"time_series":   r.TimeSeries.Len(),
		"power_curve":   r.PowerCurve.Len(),
		"monthly_stats": r.MonthlyStats.Len(),
		"wind_rose":     len(r.WindRose),
	})
	return nil
}

// Result returns the loaded result, nil before the first load
func (d *Dashboard) Result() *models.AnalysisResult {
	return d.result
}

// Version identifies the loaded result; it changes on every SetResult
func (d *Dashboard) Version() string {
	return d.version
}

// Views returns every chart in display order
func (d *Dashboard) Views() []View {
	out := make([]View, len(d.views))
	copy(out, d.views)
	return out
}

// View looks up a chart by id
func (d *Dashboard) View(id string) (View, error) {
	for _, v := range d.views {
		if v.ID() == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownChart, id)
}

// Options returns the rendering options the views were built with
func (d *Dashboard) Options() Options {
	return d.opts
}
